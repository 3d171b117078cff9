package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
	"github.com/tendercraft/rfp-engine/pkg/services"
)

// QuestionHandler exposes read and review operations over extracted questions.
type QuestionHandler struct {
	questions services.QuestionService
	logger    *zap.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions services.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, logger: logger}
}

// RegisterRoutes registers question routes on the given mux.
func (h *QuestionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects/{pid}/questions", h.List)
	mux.HandleFunc("GET /api/questions/{qid}", h.Get)
	mux.HandleFunc("PATCH /api/questions/{qid}", h.Review)
	mux.HandleFunc("DELETE /api/questions/{qid}", h.Delete)
}

// List handles GET /api/projects/{pid}/questions
// Supports document_id, category, question_type, limit, and offset query params.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
		return
	}

	filter := repositories.QuestionFilter{
		ProjectID:    projectID,
		Category:     r.URL.Query().Get("category"),
		QuestionType: models.QuestionType(r.URL.Query().Get("question_type")),
	}
	if docStr := r.URL.Query().Get("document_id"); docStr != "" {
		documentID, err := uuid.Parse(docStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_document_id", "Invalid document ID format")
			return
		}
		filter.DocumentID = &documentID
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	questions, err := h.questions.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list questions",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list questions")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"count":     len(questions),
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/questions/{qid}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(r.PathValue("qid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_question_id", "Invalid question ID format")
		return
	}

	question, err := h.questions.Get(r.Context(), questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrQuestionNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Question not found")
			return
		}
		h.logger.Error("Failed to get question",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get question")
		return
	}

	if err := WriteJSON(w, http.StatusOK, question); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Review handles PATCH /api/questions/{qid}
// Applies reviewer edits and stamps the question as human-reviewed.
func (h *QuestionHandler) Review(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(r.PathValue("qid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_question_id", "Invalid question ID format")
		return
	}

	var update models.QuestionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	question, err := h.questions.Review(r.Context(), questionID, update, actorUUID(r))
	if err != nil {
		if errors.Is(err, apperrors.ErrQuestionNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Question not found")
			return
		}
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, "invalid_update", err.Error())
			return
		}
		h.logger.Error("Failed to review question",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update question")
		return
	}

	if err := WriteJSON(w, http.StatusOK, question); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/questions/{qid}
// Soft-deletes the question and its responses.
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(r.PathValue("qid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_question_id", "Invalid question ID format")
		return
	}

	if err := h.questions.Delete(r.Context(), questionID); err != nil {
		if errors.Is(err, apperrors.ErrQuestionNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Question not found")
			return
		}
		h.logger.Error("Failed to delete question",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete question")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *QuestionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
