package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/database"
)

// OrgHeader carries the acting organization on API requests. Authentication
// happens upstream; by the time a request reaches the engine the header is
// trusted.
const OrgHeader = "X-Organization-ID"

// OrgScope returns middleware that acquires an org-scoped database connection
// for the request and stores it in the request context. Requests without a
// valid organization header are rejected.
func OrgScope(provider *database.OrgScopeProvider, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, err := uuid.Parse(r.Header.Get(OrgHeader))
			if err != nil || orgID == uuid.Nil {
				http.Error(w, "missing or invalid organization header", http.StatusBadRequest)
				return
			}

			scopedCtx, cleanup, err := provider.WithOrgScope(r.Context(), orgID)
			if err != nil {
				logger.Error("Failed to acquire org scope",
					zap.String("org_id", orgID.String()),
					zap.Error(err))
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			defer cleanup()

			next.ServeHTTP(w, r.WithContext(scopedCtx))
		})
	}
}
