package ui

import (
	"log"
	"net/http"
	"time"

	"sheetsort/app"
	"sheetsort/internal/container"
	"sheetsort/internal/profiles"
	"sheetsort/internal/session"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer calls
type Dependencies struct {
	Uploads      *app.UploadService
	Workbooks    *app.WorkbookService
	Sheets       *app.SheetService
	Backups      *app.BackupService
	Distribution *app.DistributionService
	Sessions     *session.Store
	Profiles     *profiles.Registry

	SessionCookie  string
	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// DependenciesFrom collects the dependencies from an initialized container
func DependenciesFrom(c *container.Container) Dependencies {
	return Dependencies{
		Uploads:        c.Uploads,
		Workbooks:      c.Workbooks,
		Sheets:         c.Sheets,
		Backups:        c.Backups,
		Distribution:   c.Distribution,
		Sessions:       c.Sessions,
		Profiles:       c.Profiles,
		SessionCookie:  c.Config.Server.SessionCookie,
		SessionTTL:     c.Config.Server.SessionTTL,
		MaxUploadBytes: c.Config.Upload.MaxBytes,
	}
}

// Server represents the web server for sheetsort
type Server struct {
	router *gin.Engine
	deps   Dependencies
}

// NewServer creates a server with all routes registered
func NewServer(deps Dependencies) *Server {
	if deps.SessionCookie == "" {
		deps.SessionCookie = "sheetsort_session"
	}

	router := gin.New()
	router.MaxMultipartMemory = deps.MaxUploadBytes

	s := &Server{router: router, deps: deps}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(s.sessionMiddleware())
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.POST("/upload", s.handleUpload)

	api := s.router.Group("/api")
	{
		api.GET("/files", s.handleListFiles)
		api.POST("/files/:id/open", s.handleOpenFile)
		api.DELETE("/files/:id", s.handleDeleteFile)

		api.GET("/sheets", s.handleListSheets)
		api.GET("/sheets/:name", s.handleGetSheet)
		api.GET("/sheets/:name/profile", s.handleProfileSheet)
		api.PATCH("/sheets/:name/cells", s.handleEditCell)
		api.POST("/sheets/:name/rows", s.handleAddRow)
		api.DELETE("/sheets/:name/rows/:index", s.handleDeleteRow)
		api.PUT("/sheets/:name/rows/:index/color", s.handleSetRowColor)
		api.DELETE("/sheets/:name/rows/:index/color", s.handleClearRowColor)

		api.GET("/profiles", s.handleListProfiles)
		api.POST("/distribute", s.handleDistribute)

		api.GET("/backups", s.handleListBackups)
		api.POST("/backups", s.handleCreateBackup)
		api.POST("/backups/:id/restore", s.handleRestoreBackup)
		api.GET("/export", s.handleExport)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	log.Printf("Starting sheetsort on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
