package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/services"
)

// ResponseHandler exposes the versioned response lifecycle.
type ResponseHandler struct {
	responses services.ResponseService
	logger    *zap.Logger
}

// NewResponseHandler creates a new ResponseHandler.
func NewResponseHandler(responses services.ResponseService, logger *zap.Logger) *ResponseHandler {
	return &ResponseHandler{responses: responses, logger: logger}
}

// RegisterRoutes registers response routes on the given mux.
func (h *ResponseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/questions/{qid}/responses", h.Generate)
	mux.HandleFunc("GET /api/questions/{qid}/responses", h.ListVersions)
	mux.HandleFunc("PATCH /api/responses/{rid}", h.Edit)
	mux.HandleFunc("POST /api/responses/{rid}/submit", h.SubmitForReview)
	mux.HandleFunc("POST /api/responses/{rid}/approve", h.Approve)
	mux.HandleFunc("POST /api/responses/{rid}/reject", h.Reject)
}

// GenerateRequest is the request body for drafting a response.
type GenerateRequest struct {
	UseKnowledgeBase bool   `json:"use_knowledge_base"`
	SnippetLimit     int    `json:"snippet_limit,omitempty"`
	Tone             string `json:"tone,omitempty"`
	Language         string `json:"language,omitempty"`
}

// EditRequest is the request body for editing response text.
type EditRequest struct {
	ResponseText string `json:"response_text"`
}

// Generate handles POST /api/questions/{qid}/responses
// Drafts a new current response version for the question.
func (h *ResponseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(r.PathValue("qid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_question_id", "Invalid question ID format")
		return
	}

	req := GenerateRequest{Tone: "professional", Language: "en"}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
			return
		}
	}
	if req.Tone == "" {
		req.Tone = "professional"
	}
	if req.Language == "" {
		req.Language = "en"
	}

	resp, err := h.responses.Generate(r.Context(), questionID, services.GenerateOptions{
		OrgID:            orgID(r),
		Actor:            actorUUID(r),
		UseKnowledgeBase: req.UseKnowledgeBase,
		SnippetLimit:     req.SnippetLimit,
		Tone:             req.Tone,
		Language:         req.Language,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrQuestionNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Question not found")
			return
		}
		h.logger.Error("Failed to generate response",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "generation_failed", "Failed to generate response")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListVersions handles GET /api/questions/{qid}/responses
// Returns the current response and the version history.
func (h *ResponseHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(r.PathValue("qid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_question_id", "Invalid question ID format")
		return
	}

	versions, err := h.responses.ListVersions(r.Context(), questionID)
	if err != nil {
		h.logger.Error("Failed to list response versions",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list responses")
		return
	}

	if err := WriteJSON(w, http.StatusOK, versions); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Edit handles PATCH /api/responses/{rid}
// Replaces the response text in place, reclassifying generated text as hybrid.
func (h *ResponseHandler) Edit(w http.ResponseWriter, r *http.Request) {
	responseID, err := uuid.Parse(r.PathValue("rid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_response_id", "Invalid response ID format")
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}
	if req.ResponseText == "" {
		h.writeError(w, http.StatusBadRequest, "empty_text", "response_text must not be empty")
		return
	}

	resp, err := h.responses.Edit(r.Context(), responseID, req.ResponseText, actorUUID(r))
	if err != nil {
		if errors.Is(err, apperrors.ErrResponseNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Response not found")
			return
		}
		h.logger.Error("Failed to edit response",
			zap.String("response_id", responseID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to edit response")
		return
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SubmitForReview handles POST /api/responses/{rid}/submit
func (h *ResponseHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.responses.SubmitForReview)
}

// Approve handles POST /api/responses/{rid}/approve
func (h *ResponseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.responses.Approve)
}

// Reject handles POST /api/responses/{rid}/reject
func (h *ResponseHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.responses.Reject)
}

func (h *ResponseHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, responseID, reviewer uuid.UUID) (*models.Response, error),
) {
	responseID, err := uuid.Parse(r.PathValue("rid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_response_id", "Invalid response ID format")
		return
	}

	resp, err := op(r.Context(), responseID, actorUUID(r))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrResponseNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "Response not found")
		case errors.Is(err, apperrors.ErrConflict):
			h.writeError(w, http.StatusConflict, "invalid_transition", err.Error())
		default:
			h.logger.Error("Failed to transition response",
				zap.String("response_id", responseID.String()),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update response status")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ResponseHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
