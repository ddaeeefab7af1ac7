package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const productCacheTTL = 60 * time.Second

// ProductsHandler serves the price/stock lookup terminals poll between
// sales. Reads go through a short-lived redis cache; the stock figure is
// advisory — the guarded decrement inside the sale transaction is the
// authority.
type ProductsHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewProductsHandler(repo repository.ProductRepository, rdb *redis.Client) *ProductsHandler {
	return &ProductsHandler{repo: repo, rdb: rdb}
}

// Lookup godoc
// @Summary      Price/stock lookup by product code
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Product code"
// @Success      200 {object} dto.ProductLookupResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{code} [get]
func (h *ProductsHandler) Lookup(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()
	cacheKey := "product:" + code

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.ProductLookupResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	product, err := h.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErr(c, apierror.NewNotFound("product", code))
			return
		}
		respondErr(c, apierror.NewTransient("product lookup", err))
		return
	}

	resp := dto.ProductLookupResponse{
		ID:    product.ID.String(),
		Code:  product.Code,
		Name:  product.Name,
		Price: product.Price,
		Stock: product.Stock,
	}

	// Populate cache — best effort, ignore errors
	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = h.rdb.Set(context.Background(), cacheKey, b, productCacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      Stock movement ledger for a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        code  path  string true  "Product UUID"
// @Param        limit query int    false "Rows (default 50)"
// @Success      200 {array} dto.StockMovementResponse
// @Router       /v1/products/{code}/movements [get]
func (h *ProductsHandler) Movements(c *gin.Context) {
	// Same path segment as the code lookup; movements address by UUID.
	id, err := uuid.Parse(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	movements, err := h.repo.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]dto.StockMovementResponse, 0, len(movements))
	for i := range movements {
		m := &movements[i]
		resp := dto.StockMovementResponse{
			ID:        m.ID.String(),
			Kind:      m.Kind,
			Quantity:  m.Quantity,
			StockPrev: m.StockPrev,
			StockNext: m.StockNext,
			Reason:    m.Reason,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
		if m.SaleID != nil {
			s := m.SaleID.String()
			resp.SaleID = &s
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}
