package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"appanote/internal/blog"
	"appanote/internal/metadata"
	"appanote/internal/refresh"
	"appanote/internal/store"
	"appanote/pkg/models"
)

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
)

// Server represents the HTTP server hosting the blog and the video library
type Server struct {
	config    *models.Config
	store     *store.Manager
	blog      *blog.Manager
	meta      *metadata.Client
	refresher *refresh.Refresher
	logger    zerolog.Logger
	router    *chi.Mux
	templates *template.Template
	server    *http.Server
	listener  net.Listener
	running   bool
	mu        sync.RWMutex
}

// NewServer creates a new HTTP server
func NewServer(config *models.Config, storeMgr *store.Manager, blogMgr *blog.Manager, logger zerolog.Logger) (*Server, error) {
	meta := metadata.NewClient(config)
	refresher := refresh.NewRefresher(meta, storeMgr, logger, config.RefreshWorkers)

	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		config:    config,
		store:     storeMgr,
		blog:      blogMgr,
		meta:      meta,
		refresher: refresher,
		logger:    logger,
		router:    chi.NewRouter(),
		templates: templates,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Get("/folders", s.handleListFolders)
		r.Post("/folders", s.handleAddFolder)

		r.Route("/folders/{folder}", func(r chi.Router) {
			r.Get("/", s.handleGetFolder)
			r.Put("/notes", s.handleSetFolderNotes)

			r.Get("/videos", s.handleListVideos)
			r.Post("/videos", s.handleAddVideo)

			r.Route("/videos/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetVideo)
				r.Patch("/", s.handleUpdateVideo)
				r.Delete("/", s.handleDeleteVideo)
				r.Post("/move", s.handleMoveVideo)
			})
		})

		r.Get("/search", s.handleSearch)
		r.Get("/metadata", s.handleMetadata)
		r.Get("/backup", s.handleBackup)
		r.Post("/restore", s.handleRestore)
		r.Post("/refresh", s.handleRefresh)
	})

	// HTML pages
	s.router.Get("/", s.handleHome)
	s.router.Get("/blog", s.handleBlogIndex)
	s.router.Get("/blog/{slug}", s.handleBlogPost)

	s.router.Get("/library", s.handleLibrary)
	s.router.Get("/library/watch", s.handleWatch)
	s.router.Post("/library/folders", s.handleFormAddFolder)
	s.router.Post("/library/videos", s.handleFormAddVideo)
	s.router.Post("/library/videos/toggle-watched", s.handleFormToggleWatched)
	s.router.Post("/library/videos/toggle-later", s.handleFormToggleLater)
	s.router.Post("/library/videos/notes", s.handleFormSaveNotes)
	s.router.Post("/library/videos/move", s.handleFormMoveVideo)
	s.router.Post("/library/videos/delete", s.handleFormDeleteVideo)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrServerAlreadyRunning
	}

	addr := s.GetAddr()

	// Create listener
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	httpServer := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.server = httpServer

	s.running = true

	// Start background metadata refresher
	if err := s.refresher.Start(); err != nil {
		return fmt.Errorf("failed to start refresher: %w", err)
	}

	// Start server in goroutine
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("server error")
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServerNotRunning
	}

	// Stop refresher first
	if err := s.refresher.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("refresher stop error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.running = false
	s.server = nil
	s.listener = nil

	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.config.WebServerPort)
}

// GetActualAddr returns the actual listening address (useful when port is 0)
func (s *Server) GetActualAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.GetAddr()
}
