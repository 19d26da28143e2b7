package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"washwise/internal/api"
	"washwise/internal/auth"
	"washwise/internal/catalog"
	"washwise/internal/notify"
	"washwise/internal/order"
	"washwise/internal/plan"
	"washwise/internal/system"
	"washwise/internal/user"
	"washwise/internal/workflow"
	"washwise/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Log *zap.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(api.RequestLogger(deps.Log))
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAgeSeconds:  600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	registry := catalog.Default()
	validator := workflow.NewValidator(registry)
	ledger := plan.NewLedger(registry)
	mailer := notify.NewMailer(deps.Cfg.Mail)

	usersRepo := user.NewRepository(deps.DB)
	ordersRepo := order.NewRepository(deps.DB)
	tokens := auth.NewTokenManager(deps.Cfg.JWTSecret, time.Duration(deps.Cfg.TokenTTLHrs)*time.Hour)

	authHandlers := auth.Handlers{Users: usersRepo, Tokens: tokens, Mail: mailer, Log: deps.Log}
	userHandlers := user.Handlers{Users: usersRepo}
	orderHandlers := order.Handlers{
		DB:        deps.DB,
		Orders:    ordersRepo,
		Users:     usersRepo,
		Registry:  registry,
		Validator: validator,
		Ledger:    ledger,
		Mail:      mailer,
		Log:       deps.Log,
	}
	systemHandlers := system.Handlers{Registry: registry}

	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/register", authHandlers.Register)
		r.Post("/auth/login", authHandlers.Login)
		r.Post("/auth/password-reset/request", authHandlers.RequestPasswordReset)
		r.Post("/auth/password-reset", authHandlers.ResetPassword)

		r.Get("/system/config", systemHandlers.Config)

		// QR deep link on the order slip; no session required.
		r.Get("/orders/qr/{orderID}", orderHandlers.GetByQR)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(api.AuthMiddleware(tokens, usersRepo))

			r.Get("/orders", orderHandlers.List)
			r.Put("/orders/{orderID}/pay", orderHandlers.Pay)
			r.Get("/orders/{orderID}/events", orderHandlers.Events)

			r.Get("/users/me", userHandlers.Me)
			r.Put("/users/me/password", userHandlers.ChangePassword)
			r.Put("/users/me/subscribe", userHandlers.SelfSubscribe)

			// Serviceman-only administration
			r.Group(func(r chi.Router) {
				r.Use(api.RequireRole(api.RoleServiceman))

				r.Post("/orders", orderHandlers.Create)
				r.Put("/orders/items/{itemID}/status", orderHandlers.UpdateItemStatus)

				r.Get("/users", userHandlers.List)
				r.Delete("/users/{id}", userHandlers.Delete)
				r.Post("/users/{id}/subscribe", userHandlers.Subscribe)
				r.Get("/users/{id}/active-orders", orderHandlers.ActiveForUser)
			})
		})
	})

	return r
}
