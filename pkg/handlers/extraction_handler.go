package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/apperrors"
	"github.com/tendercraft/rfp-engine/pkg/services"
)

// ActorHeader carries the acting user on API requests. Authentication happens
// upstream of the engine.
const ActorHeader = "X-User-ID"

// ExtractionHandler exposes the question extraction pipeline.
type ExtractionHandler struct {
	extraction services.ExtractionService
	logger     *zap.Logger
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extraction services.ExtractionService, logger *zap.Logger) *ExtractionHandler {
	return &ExtractionHandler{extraction: extraction, logger: logger}
}

// RegisterRoutes registers extraction routes on the given mux.
func (h *ExtractionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/documents/{did}/extract", h.Extract)
	mux.HandleFunc("POST /api/projects/{pid}/extract", h.BulkExtract)
}

// BulkExtractRequest is the request body for bulk extraction.
type BulkExtractRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

// Extract handles POST /api/projects/{pid}/documents/{did}/extract
// Runs question extraction over one processed document.
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
		return
	}
	documentID, err := uuid.Parse(r.PathValue("did"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_document_id", "Invalid document ID format")
		return
	}

	questions, err := h.extraction.ExtractFromDocument(r.Context(), orgID(r), projectID, documentID, actor(r))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "Document not found")
		case errors.Is(err, apperrors.ErrDocumentNotReady):
			h.writeError(w, http.StatusConflict, "document_not_ready", "Document text is not available for extraction")
		default:
			h.logger.Error("Extraction failed",
				zap.String("document_id", documentID.String()),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Extraction failed")
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]any{
		"questions": questions,
		"count":     len(questions),
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// BulkExtract handles POST /api/projects/{pid}/extract
// Runs extraction over several documents, isolating per-document failures.
func (h *ExtractionHandler) BulkExtract(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
		return
	}

	var req BulkExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}
	if len(req.DocumentIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "no_documents", "document_ids must not be empty")
		return
	}

	report, err := h.extraction.BulkExtract(r.Context(), orgID(r), projectID, req.DocumentIDs, actor(r))
	if err != nil {
		h.logger.Error("Bulk extraction failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Bulk extraction failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ExtractionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
