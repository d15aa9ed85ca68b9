package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, info map[string]string, metrics http.Handler) {
	router.GET("/", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		for k, v := range info {
			body[k] = v
		}
		c.JSON(http.StatusOK, body)
	})

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
}
