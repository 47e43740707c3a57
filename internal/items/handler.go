package items

import (
	"errors"
	"net/http"
	"regexp"

	"item-service/internal/logger"
	"item-service/internal/store"

	"github.com/gin-gonic/gin"
)

// ItemRequest is the create/update payload.
type ItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// Matches the numeric(12,2) column: up to ten integer digits, at most
// two decimals, no sign.
var priceFormat = regexp.MustCompile(`^\d{1,10}(\.\d{1,2})?$`)

// normalizePrice defaults an empty price and rejects anything the price
// column would not accept, so bad input fails at the boundary instead of
// surfacing as a database error.
func normalizePrice(price string) (string, bool) {
	if price == "" {
		return "0.00", true
	}
	if !priceFormat.MatchString(price) {
		return "", false
	}
	return price, true
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the CRUD surface on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/items/", h.list)
	r.POST("/items/", h.create)
	r.GET("/items/:id", h.get)
	r.PUT("/items/:id", h.update)
	r.DELETE("/items/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		logger.Error("failed to list items", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list items"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) create(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	price, ok := normalizePrice(req.Price)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	item, err := h.store.Create(c.Request.Context(), req.Name, req.Description, price)
	if err != nil {
		logger.Error("failed to create item", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create item"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) get(c *gin.Context) {
	item, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOr500(c, err, "failed to load item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) update(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	price, ok := normalizePrice(req.Price)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	item, err := h.store.Update(c.Request.Context(), c.Param("id"), req.Name, req.Description, price)
	if err != nil {
		h.notFoundOr500(c, err, "failed to update item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.notFoundOr500(c, err, "failed to delete item")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) notFoundOr500(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	logger.Error(msg, map[string]any{"error": err.Error()})
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
