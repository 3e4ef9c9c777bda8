package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/testifyhub/testifyhub/internal/analytics"
	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/rbac"
	"github.com/testifyhub/testifyhub/internal/submission"
	"github.com/testifyhub/testifyhub/internal/testbank"
)

type Deps struct {
	Auth        *auth.Service
	Users       *auth.UserStore
	Tests       testbank.Store
	Engine      *submission.Engine
	Analytics   *analytics.Aggregator
	CORSOrigins []string
}

// NewRouter assembles the full HTTP surface: public auth endpoints, then a
// JWT-protected group where each route is gated by a role permission and
// handlers do the per-resource ownership checks.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/api/auth/register", RegisterHandler(d.Users, d.Auth))
	r.Post("/api/auth/login", LoginHandler(d.Users, d.Auth))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(d.Auth))

		pr.Get("/api/auth/user", CurrentUserHandler(d.Users))

		pr.With(rbac.Require("test:create")).
			Post("/api/tests", CreateTestHandler(d.Tests))
		pr.With(rbac.Require("test:list")).
			Get("/api/tests", ListTestsHandler(d.Tests))
		pr.With(rbac.Require("test:view")).
			Get("/api/tests/{testID}", GetTestHandler(d.Tests))
		pr.With(rbac.Require("test:update")).
			Put("/api/tests/{testID}", UpdateTestHandler(d.Tests))
		pr.With(rbac.Require("test:delete")).
			Delete("/api/tests/{testID}", DeleteTestHandler(d.Tests))
		pr.With(rbac.Require("test:view")).
			Get("/api/tests/{testID}/questions", ListQuestionsHandler(d.Tests))

		pr.With(rbac.Require("question:create")).
			Post("/api/questions", AddQuestionHandler(d.Tests))
		pr.With(rbac.Require("question:update")).
			Put("/api/questions/{questionID}", UpdateQuestionHandler(d.Tests))
		pr.With(rbac.Require("question:delete")).
			Delete("/api/questions/{questionID}", DeleteQuestionHandler(d.Tests))

		pr.With(rbac.Require("result:submit")).
			Post("/api/results/submit", SubmitTestHandler(d.Engine))
		pr.With(rbac.Require("result:view-own")).
			Get("/api/results/mine", MyResultsHandler(d.Engine))
		pr.With(rbac.Require("result:view-test")).
			Get("/api/results/test/{testID}", TestResultsHandler(d.Engine))
		pr.With(rbac.Require("result:view")).
			Get("/api/results/{resultID}", GetResultHandler(d.Engine))

		pr.With(rbac.Require("analytics:view")).
			Get("/api/analytics", AnalyticsHandler(d.Analytics))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	return r
}
