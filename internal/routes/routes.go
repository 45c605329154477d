package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/domain/articles"
	"github.com/FACorreiaa/go-kidspots/internal/app/domain/billing"
	"github.com/FACorreiaa/go-kidspots/internal/app/domain/contributions"
	"github.com/FACorreiaa/go-kidspots/internal/app/domain/favorites"
	"github.com/FACorreiaa/go-kidspots/internal/app/domain/places"
	"github.com/FACorreiaa/go-kidspots/internal/app/domain/profiles"
	"github.com/FACorreiaa/go-kidspots/internal/app/domain/reviews"
	"github.com/FACorreiaa/go-kidspots/internal/app/middleware"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
)

type AppHandlers struct {
	Places    *places.Handler
	Reviews   *reviews.Handler
	Favorites *favorites.Handler
	Articles  *articles.Handler
	Profiles  *profiles.Handler
	Billing   *billing.Handler
	Webhook   *billing.WebhookHandler
}

func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	handlers := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers, dbPool, cfg, log)
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	// Repositories
	profilesRepo := profiles.NewRepository(dbPool, log)
	placesRepo := places.NewRepository(dbPool, log)
	reviewsRepo := reviews.NewRepository(dbPool, log)
	favoritesRepo := favorites.NewRepository(dbPool, log)
	articlesRepo := articles.NewRepository(dbPool, log)
	contributionsRepo := contributions.NewRepository(dbPool, log)
	subscriptionsRepo := billing.NewRepository(dbPool, log)

	// Services
	profilesService := profiles.NewService(profilesRepo, log)
	contributionsService := contributions.NewService(contributionsRepo, log)
	placesService := places.NewService(placesRepo, reviewsRepo, contributionsService, profilesService, cfg.Search, log)
	reviewsService := reviews.NewService(reviewsRepo, placesRepo, profilesService, log)
	reviewsService.SetPlaceNotifier(placesService)
	favoritesService := favorites.NewService(favoritesRepo, placesRepo, log)
	articlesService := articles.NewService(articlesRepo, log)

	stripeProvider := billing.NewStripeProvider(cfg.Stripe)
	plans := billing.PlansFromConfig(cfg.Stripe)
	billingService := billing.NewService(subscriptionsRepo, stripeProvider, profilesService, plans, log)
	reconciler := billing.NewReconciler(subscriptionsRepo, stripeProvider, plans, log)

	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		log.Warn("Stripe credentials not set, billing calls and webhooks will fail")
	}

	return &AppHandlers{
		Places:    places.NewHandler(placesService, log),
		Reviews:   reviews.NewHandler(reviewsService, log),
		Favorites: favorites.NewHandler(favoritesService, log),
		Articles:  articles.NewHandler(articlesService, log),
		Profiles:  profiles.NewHandler(profilesService, log),
		Billing:   billing.NewHandler(billingService, log),
		Webhook:   billing.NewWebhookHandler(stripeProvider, reconciler, log),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	r.GET("/healthz", healthCheck(dbPool))

	requireAuth := middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey: cfg.Auth.JWTSecret,
		Logger:    log,
	})

	api := r.Group("/api")

	// Public reads
	{
		api.GET("/places", h.Places.SearchPlaces)
		api.GET("/places/:slug", h.Places.GetPlace)
		api.GET("/places/:slug/reviews", h.Reviews.ListPlaceReviews)
		api.GET("/reviews/:id", h.Reviews.GetReview)
		api.GET("/articles", h.Articles.ListArticles)
		api.GET("/articles/:slug", h.Articles.GetArticle)
	}

	// Signed by the payment provider, not by a user token
	api.POST("/stripe/webhook", h.Webhook.HandleWebhook)

	authed := api.Group("")
	authed.Use(requireAuth)
	{
		authed.GET("/profile", h.Profiles.GetProfile)

		authed.POST("/places", h.Places.CreatePlace)
		authed.PATCH("/places/:slug", h.Places.UpdatePlace)
		authed.POST("/places/:slug/contributions", h.Places.SubmitContribution)

		authed.POST("/places/:slug/reviews", h.Reviews.CreateReview)
		authed.PATCH("/reviews/:id", h.Reviews.UpdateReview)
		authed.DELETE("/reviews/:id", h.Reviews.DeleteReview)

		authed.GET("/favorites", h.Favorites.ListFavorites)
		authed.POST("/favorites", h.Favorites.AddFavorite)
		authed.DELETE("/favorites", h.Favorites.RemoveFavorite)
	}

	billingGroup := authed.Group("/billing")
	{
		billingGroup.GET("/subscription", h.Billing.GetSubscription)
		billingGroup.POST("/checkout", h.Billing.CreateCheckout)
		billingGroup.POST("/portal", h.Billing.CreatePortal)
		billingGroup.POST("/cancel", h.Billing.CancelSubscription)
		billingGroup.POST("/resume", h.Billing.ResumeSubscription)
	}
}

func healthCheck(dbPool *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
