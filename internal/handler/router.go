package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/freshmart/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса freshmart.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Recovery(h.logger))
	r.Use(custommiddleware.CORS)
	r.Use(custommiddleware.GzipMiddleware)

	auth := h.authMiddleware.Middleware
	requireAdmin := custommiddleware.RequireAdmin(h.service, h.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/ping", h.AuthPing)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(auth)

			r.Get("/me", h.Me)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/cart", h.ReplaceCart)
			r.Put("/favorites", h.ReplaceFavorites)
			r.Put("/address", h.UpdateAddress)
			r.Put("/settings", h.UpdateSettings)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/trending", h.ListTrending)
			r.Get("/offers", h.ListOffers)
			r.Get("/featured", h.ListFeatured)
			r.Get("/{id}", h.GetProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)

			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListMyOrders)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Use(auth)

			r.Post("/", h.CreateSale)
			r.With(requireAdmin).Get("/", h.ListSales)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth)
			r.Use(requireAdmin)

			r.Get("/ping", h.AdminPing)

			r.Get("/products", h.AdminListProducts)
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/orders", h.AdminListOrders)
			r.Patch("/orders/{id}/status", h.UpdateOrderStatus)

			r.Get("/users", h.AdminListUsers)
			r.Post("/users/promote-allowlisted", h.AdminPromoteAllowlisted)
			r.Get("/users/{id}", h.AdminGetUser)
			r.Patch("/users/{id}/role", h.AdminSetUserRole)
		})

		r.Route("/payments/razorpay", func(r chi.Router) {
			r.Get("/health", h.PaymentHealth)
			r.Post("/create-order", h.CreatePaymentOrder)
			r.Post("/verify", h.VerifyPayment)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "METHOD_NOT_ALLOWED")
	})

	return r
}
