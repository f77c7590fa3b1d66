package api

import (
	"github.com/gin-gonic/gin"

	"github.com/farmiq/farmiq/internal/handlers"
)

func registerMarketRoutes(api *gin.RouterGroup, handler *handlers.MarketPricesHandler) {
	api.GET("/market-prices", handler.List)
}
