package routes

import (
	"errors"
	"net/http"

	"guardplan/internal/service/analysis"
	"guardplan/internal/service/deployment"
	"guardplan/internal/service/placement"
	"guardplan/internal/service/planner"
	"guardplan/internal/surface"
	"guardplan/internal/util"

	"github.com/gin-gonic/gin"
)

// statusFor maps engine errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidPerimeter),
		errors.Is(err, placement.ErrEmptyPerimeter),
		errors.Is(err, planner.ErrVertexIndex),
		errors.Is(err, planner.ErrInvalidPoint),
		errors.Is(err, deployment.ErrUnknownKind),
		errors.Is(err, util.ErrTruncatedPolyline),
		errors.Is(err, util.ErrMalformedPolyline):
		return http.StatusBadRequest
	case errors.Is(err, deployment.ErrUnitNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrAnalysisInProgress),
		errors.Is(err, analysis.ErrAnalysisDone),
		errors.Is(err, analysis.ErrAnalysisFailed),
		errors.Is(err, deployment.ErrAnalysisNotComplete):
		return http.StatusConflict
	case errors.Is(err, surface.ErrMapNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}
