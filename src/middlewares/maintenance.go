package middlewares

import (
	"net/http"
	"sitbook/src/config"

	"github.com/gin-gonic/gin"
)

func MaintenanceMiddleware(ctx *gin.Context) {
	if config.MaintenanceMode() {
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service is under maintenance"})
		return
	}
	ctx.Next()
}
