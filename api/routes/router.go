package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaidenz/storefront-gateway/api/controllers"
	webhookcontrollers "github.com/kaidenz/storefront-gateway/api/controllers/webhooks"
	"github.com/kaidenz/storefront-gateway/api/middleware"
	"github.com/kaidenz/storefront-gateway/internal/cart"
	checkoutsvc "github.com/kaidenz/storefront-gateway/internal/checkout"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	stripewebhook "github.com/kaidenz/storefront-gateway/internal/webhooks/stripe"
	"github.com/kaidenz/storefront-gateway/internal/wishlist"
	"github.com/kaidenz/storefront-gateway/pkg/config"
	"github.com/kaidenz/storefront-gateway/pkg/cookies"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
	"github.com/kaidenz/storefront-gateway/pkg/maps"
	"github.com/kaidenz/storefront-gateway/pkg/redis"
	"github.com/kaidenz/storefront-gateway/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	backend *upstream.Client,
	redisClient *redis.Client,
	carts *cart.Registry,
	wishlists *wishlist.Registry,
	checkoutService checkoutsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
	mapsClient *maps.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	cookieWriter := cookies.NewWriter(cfg.Cookies)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, backend, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", controllers.SessionProbe(backend, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-in", controllers.SignIn(backend, cookieWriter, logg))
			r.Post("/sign-up", controllers.SignUp(backend, cookieWriter, logg))
			r.Post("/sign-out", controllers.SignOut(backend, cookieWriter, carts, wishlists, logg))
			r.Post("/verify-email", controllers.VerifyEmail(backend, cookieWriter, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(backend, logg))
			r.Get("/category/{category}", controllers.ProductsByCategory(backend, logg))
			r.Get("/{productId}", controllers.ProductDetail(backend, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(carts, logg))
			r.Post("/", controllers.CartAdd(carts, logg))
			r.Put("/{itemId}", controllers.CartUpdate(carts, logg))
			r.Delete("/{itemId}", controllers.CartRemove(carts, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(wishlists, logg))
			r.Post("/", controllers.WishlistAdd(wishlists, logg))
			r.Delete("/{entryId}", controllers.WishlistRemove(wishlists, logg))
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(backend, logg))
			r.Put("/password", controllers.UserPasswordUpdate(backend, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			if mapsClient != nil {
				r.Get("/suggest", controllers.AddressSuggest(mapsClient, cfg.Maps.RegionCodes, logg))
				r.Get("/suggest/{placeId}", controllers.AddressResolve(mapsClient, logg))
			} else {
				r.Get("/suggest", controllers.AddressSuggest(nil, nil, logg))
				r.Get("/suggest/{placeId}", controllers.AddressResolve(nil, logg))
			}
			r.Get("/", controllers.AddressList(backend, logg))
			r.Post("/", controllers.AddressCreate(backend, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(backend, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(backend, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(backend, logg))
			r.Get("/{orderId}", controllers.OrderDetail(backend, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/session", controllers.CheckoutCreate(checkoutService, carts, logg))
			r.Post("/confirm", controllers.CheckoutConfirm(checkoutService, carts, logg))
		})
	})

	// Page navigation goes through the guard; the API tree above does not.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard())
		r.NotFound(spaHandler(cfg.Web.StaticDir))
	})

	return r
}

// spaHandler serves the built storefront: real files as-is, everything
// else falls back to index.html for client-side routing.
func spaHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		requested := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
