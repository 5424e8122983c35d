package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/application/pos"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// POSHandler ventas de mostrador, anulaciones y reembolsos (protegido).
type POSHandler struct {
	uc *pos.SaleUseCase
}

// NewPOSHandler construye el handler.
func NewPOSHandler(uc *pos.SaleUseCase) *POSHandler {
	return &POSHandler{uc: uc}
}

// CreateSale godoc
// @Summary      Emitir recibo POS
// @Description  Crea el recibo y descuenta stock por cada línea de producto o repuesto en una sola transacción.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "ubicación y líneas"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/receipts [post]
func (h *POSHandler) CreateSale(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateSaleRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	input := pos.SaleInput{LocationID: in.LocationID, CustomerName: in.CustomerName}
	for _, l := range in.Lines {
		line := pos.SaleLine{Kind: l.Kind, Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
		if l.Kind != entity.LineService {
			ref, err := itemRefFromRequest(l.ItemRefRequest)
			if err != nil {
				return respondError(c, err)
			}
			line.Item = ref
		}
		input.Lines = append(input.Lines, line)
	}
	rc, err := h.uc.CreateSale(c.UserContext(), actor, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiptFromEntity(rc))
}

// GetReceipt GET /api/pos/receipts/:id
func (h *POSHandler) GetReceipt(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	rc, err := h.uc.GetReceipt(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReceiptFromEntity(rc))
}

// VoidReceipt godoc
// @Summary      Anular recibo
// @Description  Devuelve al stock lo pendiente de cada línea (RETURN). Solo admin y manager.
// @Tags         pos
// @Security     Bearer
// @Param        id    path  string                  true  "ID del recibo"
// @Param        body  body  dto.VoidReceiptRequest  true  "motivo"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/receipts/{id}/void [post]
func (h *POSHandler) VoidReceipt(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.VoidReceiptRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	rc, err := h.uc.VoidReceipt(c.UserContext(), actor, c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReceiptFromEntity(rc))
}

// RefundLines POST /api/pos/receipts/:id/refunds
func (h *POSHandler) RefundLines(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.RefundRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	lines := make([]pos.RefundLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, pos.RefundLine{LineID: l.LineID, Quantity: l.Quantity})
	}
	rc, err := h.uc.RefundLines(c.UserContext(), actor, c.Params("id"), in.Reason, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReceiptFromEntity(rc))
}
