package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	adapthttp "ecotrack/internal/adapter/http"
	"ecotrack/internal/adapter/mistral"
	"ecotrack/internal/adapter/postgres"
	"ecotrack/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/oauth2"
)

func main() {
	_ = godotenv.Load()

	addr := env("ADDR", ":8080")
	webDir := env("WEB_DIR", "web")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = db.Close() }()

	sessionRepo := postgres.NewSessionRepo(db)

	metricsSvc := app.NewMetricsService(db, db, db)
	activitySvc := app.NewActivityService(db, db)
	goalSvc := app.NewGoalService(db)
	achievementSvc := app.NewAchievementService(db, metricsSvc)
	adviceSvc := app.NewAdviceService(db, db, mistral.NewClient(
		os.Getenv("MISTRAL_API_KEY"),
		os.Getenv("MISTRAL_AGENT_ID"),
		os.Getenv("MISTRAL_API_BASE"),
	))
	authSvc := app.NewAuthService(db, sessionRepo)

	oidcCfg := loadOIDCConfig(context.Background())

	c := cron.New()
	// Hourly session purge, nightly achievement sweep for all users.
	_, _ = c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sessionRepo.DeleteExpired(ctx); err != nil {
			log.Printf("session purge: %v", err)
		}
	})
	_, _ = c.AddFunc("30 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		ids, err := db.ListIDs(ctx)
		if err != nil {
			log.Printf("achievement sweep: list users: %v", err)
			return
		}
		for _, id := range ids {
			if _, err := achievementSvc.Check(ctx, id, time.Now()); err != nil {
				log.Printf("achievement sweep: user %d: %v", id, err)
			}
		}
	})
	c.Start()
	defer c.Stop()

	h := adapthttp.New(activitySvc, goalSvc, achievementSvc, adviceSvc, authSvc, oidcCfg, webDir).Handler()
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func loadOIDCConfig(ctx context.Context) adapthttp.OIDCConfig {
	issuer := os.Getenv("OIDC_ISSUER")
	clientID := os.Getenv("OIDC_CLIENT_ID")
	if issuer == "" || clientID == "" {
		return adapthttp.OIDCConfig{}
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		log.Printf("oidc provider: %v (sso disabled)", err)
		return adapthttp.OIDCConfig{}
	}

	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  env("OIDC_REDIRECT_URL", "http://localhost:8080/api/auth/sso/callback"),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
