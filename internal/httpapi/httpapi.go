// Package httpapi exposes a read-only JSON view of a Registry: the
// attached device list, a device's native mode (the /edid route; the
// parsed EDID record itself is not served), and its supported-mode list.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"udl/internal/diag"
	"udl/pkg/udl"
)

// Server wraps the gin engine with the Registry it reports on.
type Server struct {
	registry  *udl.Registry
	startTime time.Time
	router    *gin.Engine
}

// NewServer builds the router and registers every route under
// /api/v1. Callers get an *http.Server by wrapping Server.Handler().
func NewServer(registry *udl.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{registry: registry, startTime: time.Now(), router: router}

	api := router.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/devices", s.handleListDevices)
		api.GET("/devices/:serial", s.handleDevice)
		api.GET("/devices/:serial/edid", s.handleDeviceEDID)
		api.GET("/devices/:serial/modes", s.handleDeviceModes)
	}

	return s
}

// Handler returns the http.Handler to mount on an *http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	DeviceCount int    `json:"device_count"`
	Host        string `json:"host,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:      "healthy",
		Uptime:      time.Since(s.startTime).String(),
		DeviceCount: s.registry.Len(),
	}
	if snap, err := diag.Read(); err == nil {
		resp.Host = snap.String()
	}
	c.JSON(http.StatusOK, resp)
}

// DeviceSummary is the JSON shape returned for each registered device.
type DeviceSummary struct {
	Serial   string `json:"serial"`
	Type     string `json:"type"`
	Claimed  bool   `json:"claimed"`
	Mode     *Mode  `json:"mode,omitempty"`
	LowBlank bool   `json:"low_blank"`
}

// Mode is the JSON shape of a resolved udl.Mode.
type Mode struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	BPP     int `json:"bpp"`
	Refresh int `json:"refresh"`
}

func summarize(d *udl.Device) DeviceSummary {
	s := DeviceSummary{
		Serial:   d.Serial,
		Type:     d.Type.String(),
		Claimed:  d.Claimed(),
		LowBlank: d.LowBlank,
	}
	if d.Mode.Width != 0 {
		s.Mode = &Mode{Width: d.Mode.Width, Height: d.Mode.Height, BPP: d.Mode.BPP, Refresh: d.Mode.Refresh}
	}
	return s
}

func (s *Server) handleListDevices(c *gin.Context) {
	devs := s.registry.Devices()
	out := make([]DeviceSummary, 0, len(devs))
	for _, d := range devs {
		out = append(out, summarize(d))
	}
	c.JSON(http.StatusOK, gin.H{"devices": out})
}

func (s *Server) findDevice(c *gin.Context) (*udl.Device, bool) {
	serial := c.Param("serial")
	d, ok := s.registry.Lookup(serial)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found", "serial": serial})
		return nil, false
	}
	return d, true
}

func (s *Server) handleDevice(c *gin.Context) {
	d, ok := s.findDevice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summarize(d))
}

func (s *Server) handleDeviceEDID(c *gin.Context) {
	d, ok := s.findDevice(c)
	if !ok {
		return
	}
	if d.Native == nil {
		c.JSON(http.StatusOK, gin.H{"serial": d.Serial, "native": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"serial": d.Serial,
		"native": Mode{Width: d.Native.Width, Height: d.Native.Height, BPP: d.Native.BPP, Refresh: d.Native.Refresh},
	})
}

func (s *Server) handleDeviceModes(c *gin.Context) {
	d, ok := s.findDevice(c)
	if !ok {
		return
	}
	modes := make([]Mode, 0, len(d.Supported))
	for _, idx := range d.Supported {
		if idx == udl.InvalidMode || idx < 0 || idx >= len(udl.Catalog) {
			continue
		}
		e := udl.Catalog[idx]
		modes = append(modes, Mode{Width: e.Width, Height: e.Height, BPP: e.BPP, Refresh: e.Refresh})
	}
	c.JSON(http.StatusOK, gin.H{"serial": d.Serial, "modes": modes})
}
