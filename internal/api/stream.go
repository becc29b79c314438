package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/engine"
	"github.com/psi-indicator-engine/internal/middleware"
)

// Stream message types
const (
	StreamEncounter = "encounter"
	StreamBatch     = "batch"
	StreamError     = "error"
)

const (
	streamReadLimit    = 32 << 20
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is one server frame on /api/v1/stream. Each request frame
// yields one "encounter" frame per record followed by a "batch" frame.
type StreamMessage struct {
	Type                string                        `json:"type"`
	BatchID             uuid.UUID                     `json:"batch_id,omitempty"`
	Encounter           *engine.EncounterResult       `json:"encounter,omitempty"`
	Summary             []engine.IndicatorSummary     `json:"summary,omitempty"`
	ConfigurationErrors []*domain.UnknownCodeSetError `json:"configuration_errors,omitempty"`
	Error               *domain.APIError              `json:"error,omitempty"`
}

// handleStream evaluates each EvaluateRequest frame the client sends and
// streams the verdicts back until the client closes the connection
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	correlationID := c.GetString(middleware.CorrelationKey)
	log := s.logger.WithField("correlation_id", correlationID)
	log.Debug("Stream opened")

	ctx := c.Request.Context()
	for {
		var req EvaluateRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("Stream closed unexpectedly")
			}
			return
		}

		if req.size() > s.cfg.MaxBatchSize {
			apiErr := domain.NewAPIError(domain.ErrInvalidInput, "Batch too large", "", correlationID)
			if err := s.writeFrame(conn, StreamMessage{Type: StreamError, Error: apiErr}); err != nil {
				return
			}
			continue
		}

		result, err := s.evaluate(ctx, req)
		if err != nil && result == nil {
			if writeErr := s.writeFrame(conn, StreamMessage{Type: StreamError, Error: streamError(err, correlationID)}); writeErr != nil {
				return
			}
			continue
		}

		for i := range result.Encounters {
			msg := StreamMessage{Type: StreamEncounter, BatchID: result.BatchID, Encounter: &result.Encounters[i]}
			if err := s.writeFrame(conn, msg); err != nil {
				log.WithError(err).Debug("Stream write failed")
				return
			}
		}
		done := StreamMessage{
			Type:                StreamBatch,
			BatchID:             result.BatchID,
			Summary:             result.Summary(),
			ConfigurationErrors: result.ConfigurationErrors,
		}
		if err != nil {
			done.Error = streamError(err, correlationID)
		}
		if err := s.writeFrame(conn, done); err != nil {
			return
		}

		log.WithFields(logrus.Fields{
			"batch_id":   result.BatchID,
			"encounters": len(result.Encounters),
		}).Debug("Stream batch sent")
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func streamError(err error, correlationID string) *domain.APIError {
	if errors.Is(err, domain.ErrReferenceNotReady) {
		return domain.NewAPIError(domain.ErrServiceNotReady, "Reference data not loaded", "", correlationID)
	}
	return domain.NewAPIError(domain.ErrEvaluation, "Evaluation did not complete", err.Error(), correlationID)
}
