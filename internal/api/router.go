package api

import (
	"net/http"

	routes "guardplan/internal/api/handlers"
	"guardplan/internal/service/planner"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP surface is built on
type Deps struct {
	Planner *planner.Planner
	Stream  *routes.Stream
	Metrics http.Handler // nil disables /metrics
	Info    map[string]string
}

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, deps Deps) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), deps.Info, deps.Metrics)

	// Setup plan handlers
	routes.SetupPlanHandlers(api, deps.Planner)

	// Setup event stream
	if deps.Stream != nil {
		api.GET("/events", deps.Stream.Handle)
	}
}
