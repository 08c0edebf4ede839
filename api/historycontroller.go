package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cybershield/store"
)

// HistoryController serves past analysis reports, newest first.
type HistoryController struct {
	reports store.ReportStore
	auth    *AuthController
}

func NewHistoryController(reports store.ReportStore, auth *AuthController) *HistoryController {
	return &HistoryController{reports: reports, auth: auth}
}

// Register registers the history routes behind authentication.
func (hc *HistoryController) Register(r *gin.Engine) {
	g := r.Group("/api")
	g.Use(hc.auth.RequireAuth())
	g.GET("/history", hc.handleHistory)
}

func (hc *HistoryController) handleHistory(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reports, err := hc.reports.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}
