package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vetgate/internal/application/oauthflow"
	"github.com/vetgate/internal/application/passcode"
	"github.com/vetgate/internal/application/roster"
	"github.com/vetgate/internal/application/verifier"
	"github.com/vetgate/internal/config"
	"github.com/vetgate/internal/infrastructure/discord"
	"github.com/vetgate/internal/pkg/retry"
	"github.com/vetgate/internal/transport/http/handler"
	appmiddleware "github.com/vetgate/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Signature-Ed25519", "X-Signature-Timestamp"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	policy := retry.Policy{Retries: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay}

	// 5 requests/second, burst of 10 — the redirect target is public and
	// unauthenticated, unlike the signed webhook endpoint.
	oauthRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	rosterSvc := roster.NewService(deps.Sheets, policy)
	passcodeSvc := passcode.NewService(deps.PasscodeRepo, deps.Mailer, cfg.PasscodeTTL,
		"https://discord.com/channels/"+cfg.DiscordGuildID)
	verifierSvc := verifier.NewService(verifier.Deps{
		Settings:     deps.SettingRepo,
		Roster:       rosterSvc,
		Passcodes:    passcodeSvc,
		Granter:      deps.Discord,
		Events:       deps.Publisher,
		GuildID:      cfg.DiscordGuildID,
		AuthorizeURL: discord.AuthorizeURL(cfg.DiscordAPIBase, cfg.DiscordClientID, cfg.OAuthRedirectURI),
		ApplyURL:     cfg.ApplyURL,
	})
	oauthSvc := oauthflow.NewService(deps.Discord, deps.SettingRepo, rosterSvc, deps.Publisher,
		policy, cfg.DiscordGuildID, cfg.OAuthRedirectURI)

	healthH := handler.NewHealthHandler()
	interactionH := handler.NewInteractionHandler(verifierSvc)
	oauthH := handler.NewOAuthHandler(oauthSvc, cfg.ApplyURL)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(appmiddleware.VerifySignature(deps.PublicKey)).Post("/interactions", interactionH.Handle)
		r.With(oauthRL.Limit).Get("/oauth", oauthH.Callback)
	})

	return r
}
