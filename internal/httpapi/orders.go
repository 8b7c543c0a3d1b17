package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/pom/internal/dto"
)

type orderHandler struct {
	service OrderService
}

func (h *orderHandler) list(c *gin.Context) {
	orders, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *orderHandler) get(c *gin.Context) {
	order, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandler) create(c *gin.Context) {
	var req dto.OrderDTO
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Location", "/api/orders/"+order.OrderID)
	c.JSON(http.StatusCreated, order)
}

func (h *orderHandler) update(c *gin.Context) {
	var req dto.OrderDTO
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
