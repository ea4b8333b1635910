package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pwnamap/pkg/config"
	"pwnamap/pkg/ingest"
	"pwnamap/pkg/oui"
	"pwnamap/pkg/store"
	"pwnamap/pkg/wpasec"
)

// Server is the ingestion and map API.
type Server struct {
	router    *gin.Engine
	logger    *logrus.Logger
	cfg       config.Config
	store     *store.Store
	resolver  *oui.Resolver
	converter *ingest.Converter
	syncer    *wpasec.Syncer
}

// NewServer wires the API around its collaborators.
func NewServer(cfg config.Config, st *store.Store, resolver *oui.Resolver,
	converter *ingest.Converter, syncer *wpasec.Syncer, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:    router,
		logger:    logger,
		cfg:       cfg,
		store:     st,
		resolver:  resolver,
		converter: converter,
		syncer:    syncer,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.router.GET("/healthz", s.handleHealthz)

	api := s.router.Group("/api")
	{
		api.POST("/upload", s.requireAuth(), s.handleUpload)
		api.GET("/networks/geojson", s.handleNetworksGeoJSON)
		api.GET("/networks/stats", s.handleNetworksStats)
		api.POST("/wpasec/sync", s.handleWpaSecSync)
	}

	// The frontend is mounted last so /api and /healthz always win.
	if s.cfg.FrontendDir != "" {
		s.router.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.cfg.FrontendDir))))
	}
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	addr := s.cfg.Bind + ":" + s.cfg.Port
	s.logger.Infof("API listening on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
