// Package server provides the HTTP API for the document portal.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docportal/internal/common"
	"docportal/internal/export"
	"docportal/internal/extract"
	"docportal/internal/ingest"
	"docportal/internal/match"
	"docportal/internal/merge"
	"docportal/internal/store"
	"docportal/internal/verify"
)

// TextExtractor turns a scanned file on disk into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ingest.Result, error)
}

// Server is the HTTP server for the document portal API.
type Server struct {
	ids        *extract.IDPipeline
	invoices   *extract.InvoicePipeline
	merger     *merge.Merger
	matcher    *match.IdentityMatcher
	verifier   *verify.Verifier
	compliance *verify.ComplianceChecker
	jobs       *verify.JobStore
	store      *store.Store
	texts      TextExtractor
	exporter   *export.Service
	config     common.ServerConfig
	logger     *zap.Logger
	server     *http.Server
}

// Deps carries the collaborators the handlers dispatch to. Store may be
// nil, which disables the user cache and the result log.
type Deps struct {
	IDs        *extract.IDPipeline
	Invoices   *extract.InvoicePipeline
	Merger     *merge.Merger
	Matcher    *match.IdentityMatcher
	Verifier   *verify.Verifier
	Compliance *verify.ComplianceChecker
	Jobs       *verify.JobStore
	Store      *store.Store
	Texts      TextExtractor
	Exporter   *export.Service
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg common.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		ids:        deps.IDs,
		invoices:   deps.Invoices,
		merger:     deps.Merger,
		matcher:    deps.Matcher,
		verifier:   deps.Verifier,
		compliance: deps.Compliance,
		jobs:       deps.Jobs,
		store:      deps.Store,
		texts:      deps.Texts,
		exporter:   deps.Exporter,
		config:     cfg,
		logger:     logger,
	}
}

// Handler builds the routed handler. Exposed so tests can drive the API
// without binding a socket.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))

	r.Get("/health", s.handleHealth)

	r.Post("/api/v1/id/extract", s.handleExtractID)
	r.Post("/api/v1/id/verify", s.handleVerifyID)
	r.Post("/api/v1/invoices/extract", s.handleExtractInvoices)
	r.Post("/api/v1/invoices/export", s.handleExportInvoices)
	r.Post("/api/v1/compliance/lease", s.handleLeaseCompliance)
	r.Post("/api/v1/verify/contract", s.handleVerifyContract)
	r.Post("/api/v1/verify/jobs", s.handleCreateVerifyJob)
	r.Get("/api/v1/verify/jobs/{id}", s.handleGetVerifyJob)
	r.Get("/api/v1/results", s.handleListResults)

	return r
}

// requestContext mirrors the chi request ID into the common context
// helpers so layers below the router can read it without importing chi.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := common.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}
	s.logger.Info("starting server", zap.String("addr", s.config.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
