package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"guardplan/internal/export"
	"guardplan/internal/model"
	"guardplan/internal/service/planner"
	"guardplan/internal/util"

	"github.com/gin-gonic/gin"
)

type perimeterRequest struct {
	Points   []model.Point `json:"points"`
	Polyline string        `json:"polyline"` // Google encoded polyline, precision 1e-5
}

func (r perimeterRequest) perimeter() (model.Perimeter, error) {
	if r.Polyline != "" {
		return util.DecodePerimeter(r.Polyline)
	}
	return model.Perimeter(r.Points), nil
}

type pointRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func (r pointRequest) point() model.Point {
	return model.Point{Lat: *r.Lat, Lng: *r.Lng}
}

type unitRequest struct {
	Kind string   `json:"kind" binding:"required"`
	Lat  *float64 `json:"lat" binding:"required"`
	Lng  *float64 `json:"lng" binding:"required"`
}

// PlanHandlers exposes the planner commands over HTTP
type PlanHandlers struct {
	planner *planner.Planner
}

// SetupPlanHandlers registers the plan endpoints
func SetupPlanHandlers(router *gin.RouterGroup, p *planner.Planner) {
	h := &PlanHandlers{planner: p}
	plan := router.Group("/plan")

	plan.GET("", h.GetReport)
	plan.GET("/geojson", h.GetGeoJSON)
	plan.GET("/estimate", h.GetEstimate)

	plan.PUT("/perimeter", h.SetPerimeter)
	plan.DELETE("/perimeter", h.ClearPerimeter)
	plan.POST("/perimeter/vertices", h.AddVertex)
	plan.PATCH("/perimeter/vertices/:index", h.MoveVertex)
	plan.DELETE("/perimeter/vertices/:index", h.RemoveVertex)

	plan.POST("/analysis", h.StartAnalysis)
	plan.DELETE("/analysis", h.CancelAnalysis)

	plan.POST("/deployment", h.StartDeployment)
	plan.DELETE("/deployment", h.ClearDeployment)

	plan.POST("/units", h.PlaceUnit)
	plan.DELETE("/units/:id", h.RemoveUnit)
}

// GetReport returns the whole plan
func (h *PlanHandlers) GetReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Snapshot())
}

// GetGeoJSON returns the plan as a GeoJSON FeatureCollection
func (h *PlanHandlers) GetGeoJSON(c *gin.Context) {
	fc := export.FeatureCollection(h.planner.Snapshot())
	data, err := fc.MarshalJSON()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// GetEstimate returns the live capacity preview
func (h *PlanHandlers) GetEstimate(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Estimate())
}

// SetPerimeter replaces the perimeter
func (h *PlanHandlers) SetPerimeter(c *gin.Context) {
	var req perimeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := req.perimeter()
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.planner.SetPerimeter(p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"perimeter": h.planner.Perimeter(), "estimate": h.planner.Estimate()})
}

// ClearPerimeter removes the perimeter and everything derived from it
func (h *PlanHandlers) ClearPerimeter(c *gin.Context) {
	h.planner.ClearPerimeter()
	c.Status(http.StatusNoContent)
}

// AddVertex appends one vertex
func (h *PlanHandlers) AddVertex(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.planner.AddVertex(req.point()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"perimeter": h.planner.Perimeter()})
}

// MoveVertex moves the vertex at :index
func (h *PlanHandlers) MoveVertex(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, errors.New("vertex index must be an integer"))
		return
	}
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.planner.MoveVertex(idx, req.point()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"perimeter": h.planner.Perimeter()})
}

// RemoveVertex deletes the vertex at :index
func (h *PlanHandlers) RemoveVertex(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, errors.New("vertex index must be an integer"))
		return
	}
	if err := h.planner.RemoveVertex(idx); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"perimeter": h.planner.Perimeter()})
}

// StartAnalysis starts analysis on the posted perimeter, or on the current
// one when the body is empty
func (h *PlanHandlers) StartAnalysis(c *gin.Context) {
	var perimeter model.Perimeter
	if c.Request.ContentLength > 0 {
		var req perimeterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		p, err := req.perimeter()
		if err != nil {
			badRequest(c, err)
			return
		}
		perimeter = p
	}

	if err := h.planner.StartAnalysis(perimeter); err != nil {
		slog.Info("analysis refused", slog.Any("error", err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.planner.AnalysisState())
}

// CancelAnalysis stops a running analysis
func (h *PlanHandlers) CancelAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": h.planner.CancelAnalysis()})
}

// StartDeployment starts automatic deployment of the completed quota
func (h *PlanHandlers) StartDeployment(c *gin.Context) {
	if err := h.planner.StartAutoDeployment(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "deploying"})
}

// ClearDeployment discards every placed unit
func (h *PlanHandlers) ClearDeployment(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": h.planner.ClearDeployment()})
}

// PlaceUnit places one unit at the requested point
func (h *PlanHandlers) PlaceUnit(c *gin.Context) {
	var req unitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	kind, err := model.ParseResourceKind(req.Kind)
	if err != nil {
		badRequest(c, err)
		return
	}
	unit, err := h.planner.PlaceUnit(kind, model.Point{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// RemoveUnit removes the unit with :id
func (h *PlanHandlers) RemoveUnit(c *gin.Context) {
	if err := h.planner.RemoveUnit(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
