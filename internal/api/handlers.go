package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/encounter"
	"github.com/psi-indicator-engine/internal/engine"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/middleware"
)

// IndicatorView describes one registered rule
type IndicatorView struct {
	ID       domain.IndicatorID `json:"id"`
	Name     string             `json:"name"`
	CodeSets []string           `json:"code_sets"`
}

// EvaluateRequest carries either structured encounters or raw claim rows
type EvaluateRequest struct {
	Encounters []*domain.Encounter `json:"encounters,omitempty"`
	Rows       []encounter.RawRow  `json:"rows,omitempty"`
	// Persist stores the batch when a result store is configured
	Persist bool `json:"persist,omitempty"`
}

// EvaluateResponse is the body of a successful evaluation
type EvaluateResponse struct {
	Result  *engine.Result            `json:"result"`
	Summary []engine.IndicatorSummary `json:"summary"`
	Stored  bool                      `json:"stored"`
}

func (r EvaluateRequest) size() int {
	return len(r.Encounters) + len(r.Rows)
}

func viewOf(rule indicator.Rule) IndicatorView {
	return IndicatorView{ID: rule.ID(), Name: rule.Name(), CodeSets: rule.CodeSets()}
}

// handleHealth reports readiness. It answers 503 until a reference is loaded.
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    s.version,
		"indicators": s.deps.Engine.Registry().Len(),
		"workers":    s.deps.Engine.Workers(),
	}

	ref, err := s.deps.Holder.Current()
	if err != nil {
		body["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["reference_version"] = ref.Version()
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleListIndicators(c *gin.Context) {
	rules := s.deps.Engine.Registry().All()
	views := make([]IndicatorView, 0, len(rules))
	for _, rule := range rules {
		views = append(views, viewOf(rule))
	}
	c.JSON(http.StatusOK, gin.H{"indicators": views, "total": len(views)})
}

func (s *Server) handleGetIndicator(c *gin.Context) {
	rule, err := s.deps.Engine.Registry().Lookup(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(rule))
}

func (s *Server) handleGetReference(c *gin.Context) {
	ref, err := s.deps.Holder.Current()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref.Info())
}

func (s *Server) handleReloadReference(c *gin.Context) {
	if s.deps.Source == nil {
		middleware.Abort(c, http.StatusNotImplemented, domain.ErrReferenceLoad, "No reference source configured", "")
		return
	}

	ref, err := s.deps.Holder.Reload(c.Request.Context(), s.deps.Source)
	if err != nil {
		s.logger.WithError(err).WithField("source", s.deps.Source.Name()).Warn("Reference reload rejected")
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref.Info())
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}
	if len(req.Encounters) > 0 && len(req.Rows) > 0 {
		middleware.Abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Send either encounters or rows, not both", "")
		return
	}
	if req.size() > s.cfg.MaxBatchSize {
		middleware.Abort(c, http.StatusRequestEntityTooLarge, domain.ErrInvalidInput,
			"Batch too large", "at most "+strconv.Itoa(s.cfg.MaxBatchSize)+" records per request")
		return
	}

	result, err := s.evaluate(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := EvaluateResponse{Result: result, Summary: result.Summary()}
	if req.Persist && s.deps.Store != nil {
		if err := s.deps.Store.SaveBatch(c.Request.Context(), result); err != nil {
			s.logger.WithError(err).WithField("batch_id", result.BatchID).Error("Failed to store batch")
			middleware.Abort(c, http.StatusInternalServerError, domain.ErrDatabaseError, "Failed to store batch", "")
			return
		}
		resp.Stored = true
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) evaluate(ctx context.Context, req EvaluateRequest) (*engine.Result, error) {
	if len(req.Rows) > 0 {
		return s.deps.Engine.EvaluateRows(ctx, req.Rows)
	}
	return s.deps.Engine.Evaluate(ctx, req.Encounters)
}

func (s *Server) handleListBatches(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit, err1 := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, err2 := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err1 != nil || err2 != nil || offset < 0 {
		middleware.Abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "limit and offset must be non-negative integers", "")
		return
	}

	batches, err := s.deps.Store.ListBatches(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	total, err := s.deps.Store.Count(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "total": total})
}

func (s *Server) handleGetBatch(c *gin.Context) {
	id, ok := s.batchID(c)
	if !ok {
		return
	}
	result, err := s.deps.Store.GetBatch(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, EvaluateResponse{Result: result, Summary: result.Summary(), Stored: true})
}

func (s *Server) handleDeleteBatch(c *gin.Context) {
	id, ok := s.batchID(c)
	if !ok {
		return
	}
	if err := s.deps.Store.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) batchID(c *gin.Context) (uuid.UUID, bool) {
	if !s.requireStore(c) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.Abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid batch id", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.deps.Store == nil {
		middleware.Abort(c, http.StatusNotImplemented, domain.ErrDatabaseError, "No result store configured", "")
		return false
	}
	return true
}

// respondError maps domain errors onto status codes
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		referenceErr  *domain.ReferenceLoadError
	)

	switch {
	case errors.As(err, &validationErr):
		middleware.Abort(c, http.StatusBadRequest, domain.ErrValidation, validationErr.Message, validationErr.Error())
	case errors.As(err, &referenceErr):
		middleware.Abort(c, http.StatusUnprocessableEntity, domain.ErrReferenceLoad, "Reference data rejected", err.Error())
	case errors.Is(err, domain.ErrReferenceNotReady):
		middleware.Abort(c, http.StatusServiceUnavailable, domain.ErrServiceNotReady, "Reference data not loaded", "")
	case errors.Is(err, domain.ErrNotFound):
		middleware.Abort(c, http.StatusNotFound, domain.ErrNotFoundCode, "Not found", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		middleware.Abort(c, http.StatusServiceUnavailable, domain.ErrEvaluation, "Evaluation did not complete", err.Error())
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"correlation_id": c.GetString(middleware.CorrelationKey),
			"path":           c.FullPath(),
		}).Error("Request failed")
		middleware.Abort(c, http.StatusInternalServerError, domain.ErrInternalServer, "Internal server error", "")
	}
}
