// ============================================================================
// backend/internal/gateway/routes.go
// Chi router, middleware stack, and route table
// ============================================================================

package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"schoolhub/backend/internal/admin"
	"schoolhub/backend/internal/auth"
	"schoolhub/backend/internal/finance"
	"schoolhub/backend/internal/gateway/handlers"
	"schoolhub/backend/internal/gateway/util"
	"schoolhub/backend/internal/grade"
	"schoolhub/backend/internal/shared"
)

// Services bundles the domain services the router dispatches to.
type Services struct {
	Auth    *auth.Service
	Grades  *grade.Service
	Admin   *admin.Service
	Finance *finance.Service
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(config *shared.ServerConfig, services *Services) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.CORS.AllowedOrigins,
		AllowedMethods:   config.CORS.AllowedMethods,
		AllowedHeaders:   config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           config.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: services.Auth}
	gradeHandler := &handlers.GradeHandler{Grades: services.Grades}
	adminHandler := &handlers.AdminHandler{Admin: services.Admin}
	financeHandler := &handlers.FinanceHandler{Finance: services.Finance}

	// 3. Define Routes (grouped by prefix)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		util.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "service": config.ServiceName})
	})

	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout) // idempotent, extracts its own token

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(services.Auth))

			// Auth
			r.Get("/auth/validate", authHandler.Validate)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			// Grade Lifecycle
			r.Route("/grades", func(r chi.Router) {
				// Teachers / principals
				r.Post("/submit", gradeHandler.SubmitGrade)
				r.Post("/bulk", gradeHandler.SubmitBulk)

				// Principals / owners (review + transitions)
				r.Get("/submissions", gradeHandler.ListSubmissions)
				r.Post("/approve", gradeHandler.ApproveGrades)
				r.Post("/release", gradeHandler.ReleaseGrades)

				// Released views and reports
				r.Get("/my", gradeHandler.MyGrades)
				r.Get("/student/{student_id}", gradeHandler.StudentGrades)
				r.Get("/report/{class_id}", gradeHandler.ClassReport)
			})

			// School Administration
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", adminHandler.SchoolStats)
				r.Get("/audit", adminHandler.AuditLogs)

				// Schools (platform admins)
				r.Post("/schools", adminHandler.CreateSchool)
				r.Get("/schools", adminHandler.ListSchools)

				// Users
				r.Post("/users", adminHandler.CreateUser)
				r.Get("/users", adminHandler.ListUsers)
				r.Post("/users/{id}/reset-password", adminHandler.ResetPassword)
				r.Patch("/users/{id}/status", adminHandler.ToggleUserStatus)

				// Classes & subjects
				r.Post("/classes", adminHandler.CreateClass)
				r.Get("/classes", adminHandler.ListClasses)
				r.Post("/classes/{id}/teachers", adminHandler.AssignTeacher)
				r.Post("/subjects", adminHandler.CreateSubject)

				// Enrollments
				r.Post("/enrollments", adminHandler.EnrollStudent)
				r.Post("/enrollments/withdraw", adminHandler.WithdrawStudent)
			})

			// Finance
			r.Route("/finance", func(r chi.Router) {
				r.Post("/payments", financeHandler.RecordPayment)
				r.Get("/payments/{student_id}", financeHandler.ListPayments)
				r.Put("/charges/{student_id}", financeHandler.SetCharges)
				r.Get("/balance/{student_id}", financeHandler.GetBalance)
			})
		})
	})

	return r
}

// AuthMiddleware validates the bearer token and injects the acting identity
// into the request context.
func AuthMiddleware(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Validate (signature, session row, account state)
			actor, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// 3. Inject Actor into Context
			next.ServeHTTP(w, r.WithContext(util.WithActor(r.Context(), actor)))
		})
	}
}
