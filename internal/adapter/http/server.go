package adapthttp

import (
	"net/http"

	"ecotrack/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the optional SSO configuration of the server.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	activities   *app.ActivityService
	goals        *app.GoalService
	achievements *app.AchievementService
	advice       *app.AdviceService
	authSvc      *app.AuthService
	oidcConfig   OIDCConfig
	webDir       string
	disableAuth  bool
}

// New creates a Server wired to the given application services.
func New(ac *app.ActivityService, gs *app.GoalService, as *app.AchievementService, ad *app.AdviceService, auth *app.AuthService, oidcCfg OIDCConfig, webDir string) *Server {
	return &Server{
		activities:   ac,
		goals:        gs,
		achievements: as,
		advice:       ad,
		authSvc:      auth,
		oidcConfig:   oidcCfg,
		webDir:       webDir,
	}
}

// WithoutAuth disables the auth middleware. For tests only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/activities", s.handleActivities)
	api.HandleFunc("/activities/undo-last", s.handleActivitiesUndoLast)

	api.HandleFunc("/goals", s.handleGoals)
	api.HandleFunc("/goals/stats", s.handleGoalStats)
	api.HandleFunc("/goals/{id}/progress", s.handleGoalProgress)

	api.HandleFunc("/achievements", s.handleAchievements)
	api.HandleFunc("/achievements/check", s.handleAchievementsCheck)
	api.HandleFunc("/achievements/stats", s.handleAchievementStats)
	api.HandleFunc("/achievements/{id}/unlock", s.handleAchievementUnlock)

	api.HandleFunc("/advice/daily", s.handleAdviceDaily)

	auth := http.NewServeMux()
	auth.HandleFunc("/auth/login", s.handleLogin)
	auth.HandleFunc("/auth/logout", s.handleLogout)
	auth.HandleFunc("/auth/setup", s.handleSetupUser)
	auth.HandleFunc("/auth/config", s.handleConfig)
	auth.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	auth.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	auth.Handle("/", s.authMiddleware(api))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", auth))
	root.Handle("/", spaFromDisk(s.webDir))

	return loggingMiddleware(withNoCache(root))
}
