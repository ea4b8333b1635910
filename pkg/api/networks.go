package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pwnamap/pkg/store"
)

func parseBoolParam(c *gin.Context, name string) *bool {
	v, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// handleNetworksGeoJSON serves stored records as a GeoJSON
// FeatureCollection, with bbox/cracked/has_bssid/q/limit filters.
func (s *Server) handleNetworksGeoJSON(c *gin.Context) {
	filter := store.GeoJSONFilter{
		Cracked:  parseBoolParam(c, "cracked"),
		HasBSSID: parseBoolParam(c, "has_bssid"),
		Query:    c.Query("q"),
		Limit:    5000,
	}

	if bbox := c.Query("bbox"); bbox != "" {
		parts := strings.Split(bbox, ",")
		if len(parts) == 4 {
			var vals [4]float64
			ok := true
			for i, p := range parts {
				f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					ok = false
					break
				}
				vals[i] = f
			}
			if ok {
				filter.BBox = &vals
			}
		}
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 50000 {
			filter.Limit = n
		}
	}

	fc, err := s.store.GeoJSON(c.Request.Context(), filter)
	if err != nil {
		s.logger.Errorf("geojson query: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "query failed"})
		return
	}

	for i := range fc.Features {
		props := fc.Features[i].Properties
		status := "unknown"
		if pwd, ok := props["password"].(*string); ok && pwd != nil && strings.TrimSpace(*pwd) != "" {
			status = "cracked"
		}
		props["status"] = status
	}

	c.JSON(http.StatusOK, fc)
}

// handleNetworksStats serves the record counters.
func (s *Server) handleNetworksStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.logger.Errorf("stats query: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "query failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleWpaSecSync runs one correlation sync and reports its audit
// result, or an explicit sync failure.
func (s *Server) handleWpaSecSync(c *gin.Context) {
	res, err := s.syncer.Sync(c.Request.Context())
	if err != nil {
		s.logger.Errorf("wpasec sync: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
