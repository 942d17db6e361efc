package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/meatmart/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(h.clients.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/otp", h.RequestOTP)
			r.Post("/otp/verify", h.VerifyOTP)
			r.Post("/otp/back", h.OTPBack)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
		})

		r.Get("/session", h.Session)
		r.Get("/shell", h.Shell)

		r.Get("/categories", h.Categories)
		r.Get("/categories/{id}", h.Category)
		r.Get("/meats/{id}", h.Meat)
		r.Post("/meats/{id}/weight-step", h.StepMeatWeight)
		r.Get("/offers", h.Offers)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddToCart)
			r.Put("/items/{productID}", h.UpdateCartItem)
			r.Delete("/items/{productID}", h.RemoveCartItem)
		})

		r.Get("/orders", h.Orders)
		r.Get("/profile", h.Profile)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Get("/meats", h.AdminMeats)
			r.Get("/categories", h.Categories)
			r.Get("/offers", h.AdminOffers)
			r.Get("/settings", h.AdminSettings)
			r.Get("/orders", h.AdminOrders)
			r.Get("/orders/export", h.ExportOrders)
			r.Get("/loyalty-rewards", h.LoyaltyRewards)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
