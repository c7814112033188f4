package main

import (
	"errors"
	"log"
	"net/http"
	"sitbook/src/boot"
	"sitbook/src/config"
	"sitbook/src/jobs"
	"sitbook/src/lib"
	"sitbook/src/types"
	"time"

	"github.com/gin-gonic/gin"
)

func reconcileHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		POST("/reconcile", func(ctx *gin.Context) {
			result, err := app.Runner.Run(ctx.Request.Context(), jobs.SourceManual)
			if err != nil {
				log.Printf("Manual reconcile failed: %s\n", err.Error())
				status := http.StatusInternalServerError
				if errors.Is(err, types.ErrConflict) {
					status = http.StatusConflict
				}
				ctx.JSON(status, gin.H{"error": err.Error(), "data": result})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		GET("/reconcile/preview", func(ctx *gin.Context) {
			preview, err := app.Reconciler.Preview(ctx.Request.Context())
			if err != nil {
				log.Printf("Preview failed: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": preview, "count": len(preview.Eligible)})
		}).
		GET("/reconcile/status", func(ctx *gin.Context) {
			status, err := app.Runner.LastStatus(ctx.Request.Context())
			if err != nil {
				log.Printf("Error retrieving run status: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if status == nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "no run has been recorded"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": status})
		}).
		POST("/booking-requests/:id/wake", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.WakeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if app.Wakes == nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "wake scheduling is not available"})
				return
			}
			expiration, err := time.Parse(config.TIME_PARSE_FORMAT, body.ExpirationTime)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			jobID, err := app.Wakes.ScheduleWake(ctx.Request.Context(), params.ID, expiration)
			if err != nil {
				ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusAccepted, gin.H{"data": gin.H{
				"job_id":    jobID,
				"scheduler": app.Wakes.Name(),
				"wake_at":   lib.WakeAt(expiration),
			}})
		})
	return g
}
