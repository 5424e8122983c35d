package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

var validate = newValidator()

// newValidator reporta los campos con su nombre JSON.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// bindAndValidate decodifica el body y aplica las reglas `validate`.
// Responde 400 directamente y devuelve false si algo falla.
func bindAndValidate(c *fiber.Ctx, obj any) bool {
	if err := c.BodyParser(obj); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return false
	}
	if err := validate.Struct(obj); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Fields: fields})
		return false
	}
	return true
}

// fieldPath quita el nombre del struct raíz: "CreateSaleRequest.lines[0].quantity" -> "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "requerido"
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "gte":
		return "debe ser mayor o igual que " + fe.Param()
	case "oneof":
		return "valores permitidos: " + fe.Param()
	case "nefield":
		return "debe ser distinto de " + fe.Param()
	default:
		return fmt.Sprintf("inválido (%s)", fe.Tag())
	}
}

// itemRefFromRequest convierte las dos columnas del request en un ItemRef.
func itemRefFromRequest(r dto.ItemRefRequest) (entity.ItemRef, error) {
	return entity.ParseItemRef(r.MerchandiseID, r.SparePartID)
}

// itemRefFromPath lee /:kind/:id (merchandise | spare_part).
func itemRefFromPath(c *fiber.Ctx) (entity.ItemRef, error) {
	return entity.NewItemRef(entity.ItemKind(c.Params("kind")), c.Params("id"))
}

// parseTimeQuery acepta RFC3339 o fecha (YYYY-MM-DD). Con endOfDay la fecha cubre el día completo.
func parseTimeQuery(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "formato de fecha: YYYY-MM-DD o RFC3339")
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return &d, nil
}
