package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"greenmap/models"

	"github.com/gin-gonic/gin"
)

func queryFloat(c *gin.Context, key string) (float64, error) {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", models.ErrInvalid, key)
	}
	return v, nil
}

// ReverseGeocode names the place under a map click.
func (h *Handlers) ReverseGeocode(c *gin.Context) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		abortWithError(c, err)
		return
	}
	lon, err := queryFloat(c, "lon")
	if err != nil {
		abortWithError(c, err)
		return
	}
	loc, err := h.svc.Locate(c.Request.Context(), lat, lon)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// SearchLocation finds coordinates for a place name.
func (h *Handlers) SearchLocation(c *gin.Context) {
	p, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
