package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/application/inventory"
	"github.com/jhoicas/repairshop-ledger/internal/domain/entity"
	"github.com/jhoicas/repairshop-ledger/internal/domain/repository"
)

// InventoryHandler maneja movimientos, flujos de inventario y consultas de kardex (protegido).
type InventoryHandler struct {
	register      *inventory.RegisterMovementUseCase
	workflow      *inventory.WorkflowUseCase
	query         *inventory.StockQueryUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	register *inventory.RegisterMovementUseCase,
	workflow *inventory.WorkflowUseCase,
	query *inventory.StockQueryUseCase,
	replenishment *inventory.ReplenishmentUseCase,
) *InventoryHandler {
	return &InventoryHandler{register: register, workflow: workflow, query: query, replenishment: replenishment}
}

// RecordMovement godoc
// @Summary      Registrar un movimiento de kardex
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "merchandise_id o spare_part_id, location_id, kind, quantity_delta"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.RecordMovementRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	m, err := h.register.RecordMovementFromRequest(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// ReceiveGoods godoc
// @Summary      Entrada de mercancía contra factura de compra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveGoodsRequest  true  "ubicación, factura y líneas"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) ReceiveGoods(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReceiveGoodsRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	input := inventory.ReceiveGoodsInput{
		LocationID: in.LocationID,
		Reference:  entity.DocumentRef{Kind: entity.RefPurchaseInvoice, ID: in.ReferenceID, Number: in.ReferenceNumber},
		Notes:      in.Notes,
	}
	for _, l := range in.Lines {
		ref, err := itemRefFromRequest(l.ItemRefRequest)
		if err != nil {
			return respondError(c, err)
		}
		input.Lines = append(input.Lines, inventory.ReceiveLine{Item: ref, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	movs, err := h.workflow.ReceiveGoods(c.UserContext(), actor, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementsFromEntities(movs))
}

// UseTicketPart POST /api/inventory/ticket-parts/use
func (h *InventoryHandler) UseTicketPart(c *fiber.Ctx) error {
	return h.ticketPart(c, h.workflow.UseTicketPart)
}

// ReturnTicketPart POST /api/inventory/ticket-parts/return
func (h *InventoryHandler) ReturnTicketPart(c *fiber.Ctx) error {
	return h.ticketPart(c, h.workflow.ReturnTicketPart)
}

type ticketPartFunc func(ctx context.Context, actor entity.Actor, in inventory.TicketPartInput) (*entity.StockMovement, error)

func (h *InventoryHandler) ticketPart(c *fiber.Ctx, fn ticketPartFunc) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TicketPartRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	m, err := fn(c.UserContext(), actor, inventory.TicketPartInput{
		LocationID:   in.LocationID,
		Part:         entity.SparePart(strings.TrimSpace(in.SparePartID)),
		TicketID:     in.TicketID,
		TicketNumber: in.TicketNumber,
		Quantity:     in.Quantity,
		Notes:        in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// UseInternal POST /api/inventory/internal-use
func (h *InventoryHandler) UseInternal(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.InternalUseRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	ref, err := itemRefFromRequest(in.ItemRefRequest)
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.workflow.UseInternal(c.UserContext(), actor, inventory.InternalUseInput{
		LocationID: in.LocationID, Item: ref, Quantity: in.Quantity, Notes: in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// Adjust godoc
// @Summary      Ajuste manual o baja por daño
// @Description  Solo admin y manager. El motivo es obligatorio.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "kind ADJUST o DAMAGE"
// @Success      201   {object}  dto.MovementResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AdjustRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	ref, err := itemRefFromRequest(in.ItemRefRequest)
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.workflow.Adjust(c.UserContext(), actor, inventory.AdjustInput{
		LocationID:    in.LocationID,
		Item:          ref,
		Kind:          entity.MovementKind(in.Kind),
		QuantityDelta: in.QuantityDelta,
		Reason:        in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// ImportInitialBalance POST /api/inventory/initial-balance
func (h *InventoryHandler) ImportInitialBalance(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.InitialBalanceRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	input := inventory.ImportInput{LocationID: in.LocationID, BatchID: in.BatchID, Reason: in.Reason}
	for _, r := range in.Rows {
		input.Rows = append(input.Rows, inventory.ImportRow{
			Kind: entity.ItemKind(r.ItemKind), SKU: r.SKU, Name: r.Name, Quantity: r.Quantity, UnitCost: r.UnitCost,
		})
	}
	res, err := h.workflow.ImportInitialBalance(c.UserContext(), actor, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.InitialBalanceResponse{
		BatchID:      res.BatchID,
		CreatedItems: res.CreatedItems,
		Movements:    dto.MovementsFromEntities(res.Movements),
	})
}

// GetStockCard godoc
// @Summary      Kardex de un ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        kind         path   string  true   "merchandise | spare_part"
// @Param        id           path   string  true   "ID del ítem"
// @Param        location_id  query  string  false  "filtrar por ubicación"
// @Param        from         query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        to           query  string  false  "YYYY-MM-DD o RFC3339 (inclusive)"
// @Success      200  {array}   dto.MovementResponse
// @Router       /api/inventory/items/{kind}/{id}/card [get]
func (h *InventoryHandler) GetStockCard(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	ref, err := itemRefFromPath(c)
	if err != nil {
		return respondError(c, err)
	}
	from, err := parseTimeQuery(c, "from", false)
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseTimeQuery(c, "to", true)
	if err != nil {
		return respondError(c, err)
	}
	movs, err := h.query.GetStockCard(c.UserContext(), actor, ref, repository.MovementFilter{
		LocationID: c.Query("location_id"), From: from, To: to,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MovementsFromEntities(movs))
}

// GetStockOverview GET /api/inventory/items/:kind/:id/stock
func (h *InventoryHandler) GetStockOverview(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	ref, err := itemRefFromPath(c)
	if err != nil {
		return respondError(c, err)
	}
	ov, err := h.query.GetStockOverview(c.UserContext(), actor, ref)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.StockOverviewResponse{
		ItemKind:  string(ref.Kind()),
		ItemID:    ref.ID(),
		Total:     ov.Total,
		Locations: make([]dto.StockLevelResponse, 0, len(ov.Locations)),
	}
	for _, s := range ov.Locations {
		out.Locations = append(out.Locations, dto.StockLevelFromEntity(s))
	}
	return c.JSON(out)
}

// ValidateBalance GET /api/inventory/items/:kind/:id/validate[?location_id=]
// Sin location_id valida todas las ubicaciones del ítem.
func (h *InventoryHandler) ValidateBalance(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	ref, err := itemRefFromPath(c)
	if err != nil {
		return respondError(c, err)
	}
	var consistent bool
	if loc := c.Query("location_id"); loc != "" {
		consistent, err = h.query.ValidateBalance(c.UserContext(), actor, loc, ref)
	} else {
		consistent, err = h.query.ValidateItemBalance(c.UserContext(), actor, ref)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"consistent": consistent})
}

// CheckBalances GET /api/inventory/locations/:id/balance-checks
func (h *InventoryHandler) CheckBalances(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	checks, err := h.query.CheckBalances(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BalanceCheckResponse, 0, len(checks))
	for _, ch := range checks {
		out = append(out, dto.BalanceCheckResponse{
			LocationID:      ch.LocationID,
			ItemKind:        string(ch.Item.Kind()),
			ItemID:          ch.Item.ID(),
			Consistent:      ch.Consistent(),
			SnapshotBalance: ch.SnapshotBalance,
			LedgerBalance:   ch.LedgerBalance,
		})
	}
	return c.JSON(out)
}

// ListLocationStock GET /api/inventory/locations/:id/stock?limit=&offset=
func (h *InventoryHandler) ListLocationStock(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.Normalize()
	stocks, err := h.query.ListLocationStock(c.UserContext(), actor, c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.StockLevelResponse, 0, len(stocks))
	for _, s := range stocks {
		items = append(items, dto.StockLevelFromEntity(s))
	}
	return c.JSON(dto.PageResponse[dto.StockLevelResponse]{Items: items, Limit: page.Limit, Offset: page.Offset})
}

// GetReplenishmentList GET /api/inventory/locations/:id/replenishment
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// MovementsByReference GET /api/inventory/references/:kind/:id/movements
func (h *InventoryHandler) MovementsByReference(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	movs, err := h.query.MovementsByReference(c.UserContext(), actor, c.Params("kind"), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MovementsFromEntities(movs))
}
