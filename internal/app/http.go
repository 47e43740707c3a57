package app

import (
	"context"
	"errors"
	"net/http"

	"item-service/internal/auth/credentials"
	"item-service/internal/auth/handler"
	"item-service/internal/auth/provider"
	"item-service/internal/auth/provider/google"
	"item-service/internal/auth/resolver"
	"item-service/internal/config"
	"item-service/internal/items"
	"item-service/internal/middleware"
	"item-service/internal/store"
	"item-service/internal/tokens"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	if cfg.JWTSecret == "" {
		return nil, nil, errors.New("JWT_SECRET is required")
	}

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Stores
	// ----------------------------

	var (
		userStore   store.UserStore
		socialStore store.SocialStore
		credStore   store.CredentialStore
		itemStore   items.Store
	)

	if infra.DB != nil {
		pg := store.NewPostgres(infra.DB)
		userStore, socialStore, credStore = pg, pg, pg
		itemStore = items.NewPostgresStore(infra.DB)
	} else {
		mem := store.NewMemory()
		if cfg.GoogleClientID != "" {
			mem.SeedApp("google", cfg.GoogleClientID, cfg.GoogleClientSecret)
		}
		userStore, socialStore, credStore = mem, mem, mem
		itemStore = items.NewMemoryStore()
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	denylist := tokens.NewDenylist(infra.Redis.Client)
	issuer := tokens.NewIssuer(
		cfg.JWTSecret,
		cfg.JWTIssuer,
		cfg.AccessTTL,
		cfg.RefreshTTL,
		denylist,
	)

	googleProvider, err := google.New(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.GoogleUserinfoURL,
	)
	if err != nil {
		return nil, nil, err
	}

	registry := provider.NewRegistry(googleProvider)
	socialResolver := resolver.NewSocialResolver(userStore, socialStore)
	credentialService := credentials.NewService(userStore, credStore)

	authHandler := handler.NewHandler(
		registry,
		socialResolver,
		issuer,
		credentialService,
	)

	authMiddleware := middleware.NewAuthMiddleware(issuer)
	itemHandler := items.NewHandler(itemStore)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())

	itemHandler.RegisterRoutes(api)

	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(middleware.ContextUserID),
			"email":   c.GetString(middleware.ContextUserEmail),
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		if infra.DB != nil {
			return infra.DB.Close()
		}
		return nil
	}, nil
}
