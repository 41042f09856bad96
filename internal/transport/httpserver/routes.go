package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"casa360/internal/config"
	"casa360/internal/metrics"
	"casa360/internal/transport/httpserver/handler"
	"casa360/internal/transport/httpserver/middleware"
	"casa360/pkg/jwtutil"
	"casa360/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, issuer *jwtutil.Issuer, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/auth/register", handlers.Register)
		r.Post("/auth/login", handlers.Login)

		auth := middleware.NewJWTAuth(issuer, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/houses", handlers.ListHouses)
			r.Post("/houses", handlers.CreateHouse)
			r.Get("/houses/{house_id}", handlers.GetHouse)
			r.Delete("/houses/{house_id}", handlers.DeleteHouse)
			r.Get("/houses/{house_id}/members", handlers.ListHouseMembers)
			r.Post("/houses/{house_id}/members", handlers.AddHouseMember)
			r.Delete("/houses/{house_id}/members/{user_id}", handlers.RemoveHouseMember)

			// everything below touches a tenant database, so membership is
			// checked once here
			guard := middleware.NewHouseGuard(handlers.Houses, log)
			r.Route("/houses/{house_id}/finance", func(r chi.Router) {
				r.Use(guard.Middleware)

				r.Get("/currencies", handlers.ListCurrencies)
				r.Post("/currencies", handlers.CreateCurrency)
				r.Put("/currencies/{id}", handlers.UpdateCurrency)
				r.Delete("/currencies/{id}", handlers.DeleteCurrency)

				r.Get("/categories", handlers.ListFinanceCategories)
				r.Post("/categories", handlers.CreateFinanceCategory)
				r.Put("/categories/{id}", handlers.UpdateFinanceCategory)
				r.Delete("/categories/{id}", handlers.DeleteFinanceCategory)

				r.Get("/cost-centers", handlers.ListCostCenters)
				r.Post("/cost-centers", handlers.CreateCostCenter)
				r.Put("/cost-centers/{id}", handlers.UpdateCostCenter)
				r.Delete("/cost-centers/{id}", handlers.DeleteCostCenter)

				r.Get("/payers", handlers.ListPayers)
				r.Post("/payers", handlers.CreatePayer)
				r.Put("/payers/{id}", handlers.UpdatePayer)
				r.Delete("/payers/{id}", handlers.DeletePayer)

				r.Get("/entries", handlers.ListEntries)
				r.Post("/entries", handlers.CreateEntry)
				r.Delete("/entries/{id}", handlers.DeleteEntry)

				r.Get("/transactions", handlers.ListTransactions)
				r.Post("/transactions/{id}/pay", handlers.PayTransaction)

				r.Get("/summary", handlers.FinanceSummary)
			})

			r.Route("/houses/{house_id}/tasks", func(r chi.Router) {
				r.Use(guard.Middleware)

				r.Get("/", handlers.ListTasks)
				r.Post("/", handlers.CreateTask)
				r.Get("/progress", handlers.TaskProgress)
				r.Get("/{id}", handlers.GetTask)
				r.Patch("/{id}", handlers.UpdateTask)
				r.Delete("/{id}", handlers.DeleteTask)
				r.Post("/{id}/complete", handlers.CompleteTask)
			})
		})
	})

	return r
}
