package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/application/transfer"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
)

// TransferHandler flujo de traslados entre ubicaciones (protegido).
type TransferHandler struct {
	uc *transfer.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Solicitar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	input := transfer.CreateInput{FromLocationID: in.FromLocationID, ToLocationID: in.ToLocationID, Notes: in.Notes}
	for _, l := range in.Lines {
		ref, err := itemRefFromRequest(l.ItemRefRequest)
		if err != nil {
			return respondError(c, err)
		}
		input.Lines = append(input.Lines, transfer.ItemQty{Item: ref, Quantity: l.Quantity})
	}
	t, err := h.uc.Create(c.UserContext(), actor, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferFromEntity(t))
}

// Get GET /api/transfers/:id
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	t, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransferFromEntity(t))
}

// Approve POST /api/transfers/:id/approve. Sin líneas aprueba lo solicitado.
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	return h.withLines(c, h.uc.Approve)
}

// Receive POST /api/transfers/:id/receive. Sin líneas confirma lo enviado.
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	return h.withLines(c, h.uc.Receive)
}

// Ship godoc
// @Summary      Despachar traslado
// @Description  Registra TRANSFER_OUT en origen por lo aprobado. Sin stock suficiente el traslado sigue APPROVED.
// @Tags         transfers
// @Security     Bearer
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	t, err := h.uc.Ship(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransferFromEntity(t))
}

// Reject POST /api/transfers/:id/reject
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	return h.withReason(c, h.uc.Reject)
}

// Cancel POST /api/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	return h.withReason(c, h.uc.Cancel)
}

func (h *TransferHandler) withLines(c *fiber.Ctx, fn func(ctx context.Context, actor entity.Actor, id string, lines []transfer.LineQty) (*entity.TransferRequest, error)) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TransferLinesRequest
	if len(c.Body()) > 0 && !bindAndValidate(c, &in) {
		return nil
	}
	var lines []transfer.LineQty
	for _, l := range in.Lines {
		lines = append(lines, transfer.LineQty{LineID: l.LineID, Quantity: l.Quantity, ShortageReason: l.ShortageReason})
	}
	t, err := fn(c.UserContext(), actor, c.Params("id"), lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransferFromEntity(t))
}

func (h *TransferHandler) withReason(c *fiber.Ctx, fn func(ctx context.Context, actor entity.Actor, id, reason string) (*entity.TransferRequest, error)) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TransferReasonRequest
	if len(c.Body()) > 0 && !bindAndValidate(c, &in) {
		return nil
	}
	t, err := fn(c.UserContext(), actor, c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransferFromEntity(t))
}
