package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"greenmap/export"
	"greenmap/listing"
	"greenmap/models"

	"github.com/gin-gonic/gin"
)

func parseQuery(c *gin.Context) (listing.Query, error) {
	return listing.ParseQuery(c.Query("type"), c.Query("search"), c.Query("sort"))
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", models.ErrInvalid, err))
		return false
	}
	return true
}

// GetReports returns the filtered and sorted report list.
func (h *Handlers) GetReports(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reports := h.svc.Reports(q)
	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

func (h *Handlers) GetReport(c *gin.Context) {
	r, err := h.svc.Report(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) CreateReport(c *gin.Context) {
	var draft models.ReportDraft
	if !bindJSON(c, &draft) {
		return
	}
	r, err := h.svc.AddReport(c.Request.Context(), draft)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UpdateReport replaces a report. An unknown id is not an error: the
// response says updated false.
func (h *Handlers) UpdateReport(c *gin.Context) {
	var r models.Report
	if !bindJSON(c, &r) {
		return
	}
	id := c.Param("id")
	if r.ID != "" && r.ID != id {
		abortWithError(c, fmt.Errorf("%w: body id %q does not match path id %q", models.ErrInvalid, r.ID, id))
		return
	}
	r.ID = id

	ok, err := h.svc.UpdateReport(c.Request.Context(), r)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp := gin.H{"updated": ok}
	if ok {
		if updated, err := h.svc.Report(id); err == nil {
			resp["report"] = updated
		}
	}
	c.JSON(http.StatusOK, resp)
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// RelocateReport moves a report marker.
func (h *Handlers) RelocateReport(c *gin.Context) {
	var req locationRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.RelocateReport(c.Request.Context(), c.Param("id"), *req.Latitude, *req.Longitude)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ExportReports downloads the current view as CSV.
func (h *Handlers) ExportReports(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(&buf, q); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, "text/csv;charset=utf-8", buf.Bytes())
}

func (h *Handlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Summary())
}
