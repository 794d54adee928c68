package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/config"
	"github.com/mathrouter/mathrouter/internal/feedback"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req apimodels.SolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	slog.Debug("Received solve request", "question", req.Question)

	result := s.deps.Router.Route(r.Context(), req.Question)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConcept(w http.ResponseWriter, r *http.Request) {
	var req apimodels.ConceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}
	if s.deps.Concepts == nil {
		writeError(w, http.StatusServiceUnavailable, "Concept search is not available")
		return
	}

	resp := s.deps.Concepts.SearchMathConcept(r.Context(), req.Concept)
	writeJSON(w, http.StatusOK, apimodels.ConceptResponse{
		Concept: req.Concept,
		Found:   resp.Found,
		Results: resp.Results,
		Error:   resp.Error,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req apimodels.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	total, err := s.deps.Feedback.Append(r.Context(), feedback.Feedback{
		Question: req.Question,
		Solution: req.Solution,
		Rating:   req.Rating,
		Comments: req.Comments,
	})
	if err != nil {
		slog.Error("Storing feedback failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store feedback")
		return
	}
	s.deps.Metrics.ObserveFeedback(req.Rating)

	writeJSON(w, http.StatusOK, apimodels.FeedbackResponse{
		Message:       "Feedback received",
		TotalFeedback: total,
	})
}

func (s *Server) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Feedback.Stats(r.Context())
	if err != nil {
		slog.Error("Reading feedback stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read feedback stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.HealthResponse{
		Status:            "healthy",
		Agent:             "ready",
		KnowledgeBaseSize: s.deps.KnowledgeSize(),
		LLMConfigured:     s.deps.LLMConfigured,
		SearchConfigured:  s.deps.SearchConfigured,
		GroqConfigured:    s.deps.LLMConfigured && s.deps.LLMProvider == config.LLMProviderGroq,
		TavilyConfigured:  s.deps.SearchConfigured,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.ServiceInfo{
		Message: "Math Routing Agent API",
		Version: s.deps.Version,
		Endpoints: map[string]string{
			"solve":    "/api/solve",
			"concept":  "/api/concept",
			"feedback": "/api/feedback",
			"stats":    "/api/feedback/stats",
			"health":   "/api/health",
			"metrics":  "/metrics",
		},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, apimodels.ErrorResponse{Detail: detail})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
