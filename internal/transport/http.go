package transport

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/config"
	"github.com/vasiliy-maslov/food-delivery/internal/coupon"
	"github.com/vasiliy-maslov/food-delivery/internal/customer"
	"github.com/vasiliy-maslov/food-delivery/internal/driver"
	handler "github.com/vasiliy-maslov/food-delivery/internal/handler/http"
	"github.com/vasiliy-maslov/food-delivery/internal/order"
	"github.com/vasiliy-maslov/food-delivery/internal/rating"
	"github.com/vasiliy-maslov/food-delivery/internal/receipt"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

// NewRouter builds every repository, service and handler on top of dbConn and
// mounts the handlers under /api.
func NewRouter(dbConn *sqlx.DB, cfg config.AppConfig) http.Handler {
	customerSvc := customer.NewService(customer.NewRepository(dbConn), customer.NewAddressRepository(dbConn))
	ratingSvc := rating.NewService(rating.NewRepository(dbConn))
	couponSvc := coupon.NewService(coupon.NewRepository(dbConn))
	driverSvc := driver.NewService(driver.NewRepository(dbConn))

	orderRepo := order.NewRepository(dbConn)
	restaurantSvc := restaurant.NewService(
		restaurant.NewRepository(dbConn),
		restaurant.NewMenuItemRepository(dbConn),
		restaurant.Dependencies{
			Reviews:   ratingSvc,
			Orders:    orderRepo,
			Addresses: customerSvc,
		},
	)
	orderSvc := order.NewService(orderRepo, order.NewItemRepository(dbConn), order.Dependencies{
		Customers:   customerSvc,
		Restaurants: restaurantSvc,
		Ratings:     ratingSvc,
		Coupons:     couponSvc,
		Drivers:     driverSvc,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("Failed to write health response")
		}
	})

	r.Route("/api", func(api chi.Router) {
		handler.NewCustomerHandler(customerSvc, orderSvc, restaurantSvc).RegisterRoutes(api)
		handler.NewRestaurantHandler(restaurantSvc).RegisterRoutes(api)
		handler.NewOrderHandler(orderSvc, receipt.NewQRGenerator(cfg.PublicBaseURL)).RegisterRoutes(api)
		handler.NewDriverHandler(driverSvc, orderSvc).RegisterRoutes(api)
		handler.NewCouponHandler(couponSvc).RegisterRoutes(api)
	})

	return cors.New(corsOptions(cfg.AllowedOrigins)).Handler(r)
}

// corsOptions allows credentials for the session cookies. Browsers reject a
// literal "*" origin on credentialed responses, so a wildcard list reflects
// the request origin instead.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}
	if slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
		return opts
	}
	opts.AllowedOrigins = origins
	return opts
}
