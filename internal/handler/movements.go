package handler

import (
	"context"
	"net/http"

	"winecellar/internal/dto"
	"winecellar/internal/service"

	"github.com/gin-gonic/gin"
)

type MovementsHandler struct{ svc service.MovementService }

func NewMovementsHandler(svc service.MovementService) *MovementsHandler {
	return &MovementsHandler{svc: svc}
}

// ledgerCall is the shape shared by every ledger write.
type ledgerCall[R any] func(ctx context.Context, req R, opKey string) (*dto.MovementResult, error)

func record[R any](c *gin.Context, call ledgerCall[R]) {
	var req R
	if !bindAndValidate(c, &req) {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}
	resp, err := call(c.Request.Context(), req, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MovementsHandler) Record(c *gin.Context) { record(c, h.svc.RecordMovement) }

func (h *MovementsHandler) BulkTransfer(c *gin.Context) { record(c, h.svc.RecordBulkTransfer) }

func (h *MovementsHandler) TopUp(c *gin.Context) { record(c, h.svc.RecordTopUp) }

func (h *MovementsHandler) Bottling(c *gin.Context) { record(c, h.svc.RecordBottling) }

func (h *MovementsHandler) List(c *gin.Context) {
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
