package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// TenantHeader carries the tenant identifier on every API request
const TenantHeader = "X-Tenant-ID"

type contextKey string

const tenantIDKey contextKey = "tenant_id"

// TenantContext extracts and validates the tenant ID header, rejecting
// requests without one. Every rule and event operation is scoped to the
// tenant resolved here.
func TenantContext() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(TenantHeader)
			if raw == "" {
				respondError(w, http.StatusBadRequest, "X-Tenant-ID header is required")
				return
			}

			tenantID, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "X-Tenant-ID must be a valid UUID")
				return
			}

			ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantID returns the tenant ID stored by TenantContext
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantIDKey).(uuid.UUID)
	return id, ok
}
