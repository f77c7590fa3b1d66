package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmiq/farmiq/internal/market"
	"github.com/farmiq/farmiq/pkg/response"
)

// MarketPricer serves normalized market prices, from cache or upstream.
type MarketPricer interface {
	Prices(ctx context.Context, q market.Query) (market.Result, error)
	MaxLimit() int
}

// MarketPricesHandler exposes the market price proxy.
type MarketPricesHandler struct {
	svc MarketPricer
}

// NewMarketPricesHandler constructs the handler around a pricing service.
func NewMarketPricesHandler(svc MarketPricer) *MarketPricesHandler {
	return &MarketPricesHandler{svc: svc}
}

// List handles GET /api/market-prices.
func (h *MarketPricesHandler) List(c *gin.Context) {
	q := market.ParseQuery(c.Request.URL.Query(), h.svc.MaxLimit())

	result, err := h.svc.Prices(requestContext(c), q)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, market.ToAppError(err))
		return
	}

	if result.Hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	response.JSON(c, http.StatusOK, result.Response)
}
