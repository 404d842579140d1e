package handler

import (
	"net/http"

	"winecellar/internal/dto"
	"winecellar/internal/service"

	"github.com/gin-gonic/gin"
)

type BottlingHandler struct{ svc service.BottlingService }

func NewBottlingHandler(svc service.BottlingService) *BottlingHandler {
	return &BottlingHandler{svc: svc}
}

// CreateProduct drains the given containers and creates the bottled product.
func (h *BottlingHandler) CreateProduct(c *gin.Context) {
	var req dto.BottleAndCreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}
	resp, err := h.svc.BottleAndCreateProduct(c.Request.Context(), req, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
