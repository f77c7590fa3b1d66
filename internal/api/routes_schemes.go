package api

import (
	"github.com/gin-gonic/gin"

	"github.com/farmiq/farmiq/internal/handlers"
)

func registerSchemeRoutes(api *gin.RouterGroup, handler *handlers.SchemesHandler) {
	schemes := api.Group("/ngo-schemes")
	{
		schemes.GET("", handler.List)
		schemes.GET("/:id", handler.Get)
	}
	api.POST("/government-schemes/filter", handler.Filter)
}
