package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"pwnamap/pkg/ingest"
	"pwnamap/pkg/macaddr"
	"pwnamap/pkg/models"
)

// handleUpload accepts one capture pair (pcap + gps document), stores
// both files, extracts hash metadata, and creates exactly one network
// record. The response is either a created-record acknowledgment,
// possibly flagged with a soft hash-metadata warning, or a precise
// rejection reason. A failed conversion never blocks the record.
func (s *Server) handleUpload(c *gin.Context) {
	s.logger.Infof("upload: ct=%s ua=%s ip=%s",
		c.GetHeader("Content-Type"), c.GetHeader("User-Agent"), c.ClientIP())

	pcapFile, err := c.FormFile("pcap")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "pcap file missing"})
		return
	}
	gpsFile, err := c.FormFile("gps")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "gps file missing"})
		return
	}
	if pcapFile.Filename == "" {
		s.logger.Warn("400: missing pcap filename")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "pcap file missing filename"})
		return
	}
	ssidFromName := ingest.SafeStem(pcapFile.Filename)

	gpsReader, err := gpsFile.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "gps file unreadable"})
		return
	}
	gpsBytes, err := io.ReadAll(gpsReader)
	gpsReader.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "gps file unreadable"})
		return
	}

	reading, err := ingest.ParseLocation(gpsBytes)
	if err != nil {
		s.logger.Warnf("400: invalid gps json: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid gps json: %v", err)})
		return
	}

	paths := ingest.BuildCapturePaths(filepath.Join(s.cfg.DataDir, "captures"), reading.Timestamp, ssidFromName)
	if err := os.MkdirAll(paths.Dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "storage unavailable"})
		return
	}
	if err := c.SaveUploadedFile(pcapFile, paths.PcapPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to store pcap"})
		return
	}
	if err := os.WriteFile(paths.GPSPath, gpsBytes, 0644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to store gps"})
		return
	}

	meta, convErr := s.converter.Extract(c.Request.Context(), paths.PcapPath, paths.HashPath)
	if convErr != nil {
		s.logger.Warnf("22000 conversion failed: %v", convErr)
	}

	ssid := ssidFromName
	var hashType, hashVariant, bssidPtr, vendorPtr *string
	if meta != nil {
		if meta.SSID != "" {
			ssid = meta.SSID
		}
		ht := meta.Type
		hv := string(meta.Variant)
		hashType, hashVariant = &ht, &hv

		if bssid := macaddr.Normalize(meta.BSSID); bssid != "" {
			bssidPtr = &bssid
			if vendor := s.resolver.Resolve(bssid); vendor != "" {
				vendorPtr = &vendor
			}
		}
	}

	date := reading.Timestamp.Format("2006-01-02")
	timeOfDay := reading.Timestamp.Format("15:04:05")

	s.logger.Infof("insert: ssid=%s type=%v var=%v bssid=%v vendor=%v date=%s time=%s",
		ssid, deref(hashType), deref(hashVariant), deref(bssidPtr), deref(vendorPtr), date, timeOfDay)

	recordID := s.store.InsertNetwork(c.Request.Context(), models.NetworkRecord{
		SSID:        &ssid,
		BSSID:       bssidPtr,
		Vendor:      vendorPtr,
		Date:        date,
		Time:        timeOfDay,
		HashType:    hashType,
		HashVariant: hashVariant,
		Lat:         &reading.Latitude,
		Lon:         &reading.Longitude,
		Alt:         reading.Altitude,
		Accuracy:    reading.Accuracy,
		Password:    nil,
	})

	resp := gin.H{"ok": true, "ssid": ssid, "record_id": recordID}
	if convErr != nil {
		resp["hash_meta_error"] = "no_22000"
	}
	c.JSON(http.StatusOK, resp)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
