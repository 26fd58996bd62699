package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibecodeauditor/vcaudit/domain"
	"github.com/vibecodeauditor/vcaudit/internal/config"
	"github.com/vibecodeauditor/vcaudit/internal/registry"
	"github.com/vibecodeauditor/vcaudit/internal/version"
)

// Server exposes the compliance mapping engine over HTTP
type Server struct {
	service    domain.ComplianceService
	registry   *registry.Registry
	frameworks domain.FrameworkStore
	scans      domain.ScanStore
	log        *logrus.Logger
	cfg        config.ServerConfig

	// defaultUserID scopes requests that carry no user_id
	defaultUserID string
}

// New creates a server around the given service, registry, and stores
func New(service domain.ComplianceService, reg *registry.Registry, frameworks domain.FrameworkStore, scans domain.ScanStore, cfg config.ServerConfig, defaultUserID string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	if reg == nil {
		reg = registry.Default()
	}
	return &Server{
		service:       service,
		registry:      reg,
		frameworks:    frameworks,
		scans:         scans,
		log:           log,
		cfg:           cfg,
		defaultUserID: defaultUserID,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.healthHandler)

	api := r.Group("/api/v1")
	api.POST("/scans", s.submitScanHandler)
	api.GET("/scans/:id/compliance", s.scanComplianceHandler)
	api.GET("/frameworks", s.listFrameworksHandler)
	api.POST("/recommendations", s.recommendationsHandler)

	return r
}

// Run starts the HTTP server and blocks until it exits
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	server := &http.Server{
		Addr:           addr,
		Handler:        s.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	s.log.WithField("addr", addr).Info("server listening")
	return server.ListenAndServe()
}

func (s *Server) healthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.GetVersion()})
}

// submitScanRequest is the JSON body accepted by POST /api/v1/scans
type submitScanRequest struct {
	ScanID string            `json:"scan_id"`
	UserID string            `json:"user_id"`
	Issues []domain.RawIssue `json:"issues"`
}

// submitScanHandler accepts a scan's issue batch, runs the compliance
// mapping pass, and persists the scan record with its summary attached
func (s *Server) submitScanHandler(ctx *gin.Context) {
	var request submitScanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		s.log.WithError(err).Warn("invalid scan submission")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if request.ScanID == "" {
		request.ScanID = uuid.NewString()
	}
	if request.UserID == "" {
		request.UserID = s.defaultUserID
	}

	for i, issue := range request.Issues {
		if issue.Title == "" && issue.Description == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("issue %d has neither title nor description", i),
			})
			return
		}
	}

	response, err := s.service.MapIssuesToCompliance(ctx.Request.Context(), domain.MappingRequest{
		ScanID: request.ScanID,
		UserID: request.UserID,
		Issues: request.Issues,
	})
	if err != nil {
		// The scan outlives a failed mapping pass: save it without
		// compliance data and report the failure as a warning
		s.log.WithError(err).WithField("scan_id", request.ScanID).Error("compliance mapping failed")
		response = &domain.MappingResponse{
			ComplianceIssues: []domain.ComplianceIssue{},
			FrameworkImpacts: map[string]*domain.FrameworkImpact{},
			Summary:          domain.ComplianceSummary{},
			Warnings:         []string{err.Error()},
			ScanID:           request.ScanID,
			GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
			Version:          version.GetVersion(),
		}
	}

	record := &domain.ScanRecord{
		ID:                request.ScanID,
		UserID:            request.UserID,
		Status:            domain.ScanStatusCompleted,
		Issues:            request.Issues,
		ComplianceSummary: response.Summary,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.scans.SaveScan(ctx.Request.Context(), record); err != nil {
		s.log.WithError(err).WithField("scan_id", request.ScanID).Error("failed to save scan record")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save scan"})
		return
	}

	ctx.JSON(http.StatusCreated, response)
}

// scanComplianceHandler returns the stored compliance summary for a scan
func (s *Server) scanComplianceHandler(ctx *gin.Context) {
	id := ctx.Param("id")

	scan, ok, err := s.scans.GetScan(ctx.Request.Context(), id)
	if err != nil {
		s.log.WithError(err).WithField("scan_id", id).Error("failed to load scan record")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
		return
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"scan_id":            scan.ID,
		"status":             scan.Status,
		"compliance_summary": scan.ComplianceSummary,
	})
}

// frameworkView is one framework in the listing response, enriched with
// the registry's reference clauses
type frameworkView struct {
	domain.ComplianceFramework
	References map[string][]string `json:"references,omitempty"`
}

// listFrameworksHandler returns the caller's frameworks with their
// cumulative issue counters and reference clauses
func (s *Server) listFrameworksHandler(ctx *gin.Context) {
	userID := ctx.DefaultQuery("user_id", s.defaultUserID)

	frameworks, err := s.frameworks.ListFrameworks(ctx.Request.Context(), userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to list frameworks")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list frameworks"})
		return
	}

	views := make([]frameworkView, 0, len(frameworks))
	for _, fw := range frameworks {
		view := frameworkView{ComplianceFramework: fw}
		if def, ok := s.registry.Definition(fw.Code); ok {
			view.References = def.References
		}
		views = append(views, view)
	}

	ctx.JSON(http.StatusOK, gin.H{"frameworks": views})
}

// recommendationsRequest is the JSON body accepted by POST /api/v1/recommendations
type recommendationsRequest struct {
	Issues []domain.RawIssue `json:"issues"`
}

// recommendationsHandler suggests frameworks based on issue content
func (s *Server) recommendationsHandler(ctx *gin.Context) {
	var request recommendationsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recommendations := s.service.GetFrameworkRecommendations(request.Issues)
	ctx.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}
