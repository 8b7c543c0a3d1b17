package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/pom/internal/domain"
	"github.com/vladislavdragonenkov/pom/internal/dto"
)

type productHandler struct {
	service ProductService
}

func (h *productHandler) list(c *gin.Context) {
	products, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *productHandler) get(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *productHandler) create(c *gin.Context) {
	var req dto.ProductDTO
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Location", "/api/products/"+strconv.FormatInt(product.ProductID, 10))
	c.JSON(http.StatusCreated, product)
}

func (h *productHandler) update(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req dto.ProductDTO
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.Update(c.Request.Context(), id, req); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *productHandler) delete(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// productID разбирает числовой ID из пути; нечисловой ID означает отсутствующий товар.
func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, domain.ErrProductNotFound)
		return 0, false
	}
	return id, true
}

// bindJSON декодирует тело запроса и отвечает 400 на некорректный JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, codeValidation, "malformed request body: "+err.Error())
		return false
	}
	return true
}
