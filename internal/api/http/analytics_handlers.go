package http

import (
	"net/http"
	"strconv"

	"github.com/testifyhub/testifyhub/internal/analytics"
	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/rbac"
)

// AnalyticsHandler serves the role-scoped rollup. Best effort: never errors
// on an empty data set. The pass threshold is caller-chosen via
// ?pass_threshold=N.
func AnalyticsHandler(agg *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())

		scope := ""
		if actor.Role == rbac.RoleEducator {
			scope = actor.UserID
		}
		threshold := 0.0
		if raw := r.URL.Query().Get("pass_threshold"); raw != "" {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				threshold = f
			}
		}
		out := agg.Overview(r.Context(), scope, threshold)
		writeJSON(w, http.StatusOK, "analytics retrieved successfully", out)
	}
}
