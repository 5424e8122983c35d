package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-ledger/internal/application/buyback"
	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// BuybackHandler contratos de recompra (protegido).
type BuybackHandler struct {
	uc *buyback.BuybackUseCase
}

// NewBuybackHandler construye el handler.
func NewBuybackHandler(uc *buyback.BuybackUseCase) *BuybackHandler {
	return &BuybackHandler{uc: uc}
}

// Create POST /api/buybacks
func (h *BuybackHandler) Create(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateBuybackRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	input := buyback.CreateInput{LocationID: in.LocationID, SellerName: in.SellerName, SellerDoc: in.SellerDoc}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, buyback.LineInput{
			ItemKind:  entity.ItemKind(l.ItemKind),
			ItemID:    l.ItemID,
			SKU:       l.SKU,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	contract, err := h.uc.CreateContract(c.UserContext(), actor, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BuybackFromEntity(contract))
}

// Get GET /api/buybacks/:id
func (h *BuybackHandler) Get(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	contract, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BuybackFromEntity(contract))
}

// Sign godoc
// @Summary      Firmar contrato de recompra
// @Description  Cada línea ingresa al inventario (RECEIVE) al precio pagado; crea el ítem por SKU/IMEI si no existe.
// @Tags         buybacks
// @Security     Bearer
// @Param        id  path  string  true  "ID del contrato"
// @Success      200  {object}  dto.BuybackResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/buybacks/{id}/sign [post]
func (h *BuybackHandler) Sign(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	contract, err := h.uc.Sign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BuybackFromEntity(contract))
}
