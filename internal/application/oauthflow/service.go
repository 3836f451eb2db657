package oauthflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/vetgate/internal/domain"
	"github.com/vetgate/internal/pkg/retry"
)

// State classifies the outcome of a delegated-authorization callback.
type State int

const (
	// StateVerified — identity resolved and matched at least one tier.
	StateVerified State = iota
	// StateNotFound — identity resolved but the email isn't on the roster.
	StateNotFound
	// StateNeutral — token/identity/configuration trouble. The user sees a
	// generic completion page rather than the failure detail.
	StateNeutral
)

// Result is what the HTML handler renders from.
type Result struct {
	State      State
	Email      string
	Membership domain.Membership
}

// Platform is the delegated-authorization side of the chat platform API.
type Platform interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	FetchIdentity(ctx context.Context, accessToken string) (*domain.Identity, error)
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
}

// Settings is the durable key/value configuration store.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
}

// Roster answers membership questions against the spreadsheet.
type Roster interface {
	Lookup(ctx context.Context, sheetID, email string) (domain.Membership, error)
}

// EventPublisher notifies downstream consumers of a completed verification.
type EventPublisher interface {
	PublishVerified(ctx context.Context, ev domain.VerifiedEvent) error
}

// Service completes the OAuth branch: code → token → identity → roster →
// role grants. Exchange and identity failures collapse to a neutral
// completion page; the redirect target is public and should not leak
// failure detail.
type Service struct {
	platform    Platform
	settings    Settings
	roster      Roster
	events      EventPublisher // optional
	policy      retry.Policy
	guildID     string
	redirectURI string
}

func NewService(platform Platform, settings Settings, roster Roster, events EventPublisher, policy retry.Policy, guildID, redirectURI string) *Service {
	policy.Retryable = domain.Retryable
	return &Service{
		platform:    platform,
		settings:    settings,
		roster:      roster,
		events:      events,
		policy:      policy,
		guildID:     guildID,
		redirectURI: redirectURI,
	}
}

// Complete drives the whole callback, never returning an error: every
// failure maps to a Result state the handler can render.
func (s *Service) Complete(ctx context.Context, code string) Result {
	token, err := retry.Call(ctx, s.policy, func() (string, error) {
		return s.platform.ExchangeCode(ctx, code, s.redirectURI)
	})
	if err != nil {
		slog.Warn("oauth code exchange failed", "err", err)
		return Result{State: StateNeutral}
	}

	ident, err := retry.Call(ctx, s.policy, func() (*domain.Identity, error) {
		return s.platform.FetchIdentity(ctx, token)
	})
	if err != nil {
		slog.Warn("oauth identity fetch failed", "err", err)
		return Result{State: StateNeutral}
	}

	email := domain.NormalizeEmail(ident.Email)
	if email == "" || !ident.Verified {
		// The platform won't vouch for this address, so the roster can't
		// either.
		return Result{State: StateNotFound, Email: email}
	}

	sheetID, err := s.settings.Get(ctx, domain.SettingSheet)
	if err != nil {
		slog.Error("sheet id missing during oauth verification", "err", err)
		return Result{State: StateNeutral}
	}

	membership, err := s.roster.Lookup(ctx, sheetID, email)
	if err != nil {
		slog.Warn("roster lookup failed during oauth verification", "err", err)
		return Result{State: StateNeutral}
	}
	if membership.None() {
		return Result{State: StateNotFound, Email: email}
	}

	s.grantRoles(ctx, ident.ID, membership)
	s.publishVerified(ctx, ident.ID, email, membership)

	return Result{State: StateVerified, Email: email, Membership: membership}
}

// grantRoles performs zero, one, or two best-effort grant calls, vetted
// tier first so logs read the same across both verification branches.
func (s *Service) grantRoles(ctx context.Context, userID string, m domain.Membership) {
	type tier struct {
		settingKey string
		matched    bool
	}
	for _, tr := range []tier{
		{domain.SettingVettedRole, m.Vetted},
		{domain.SettingPrivateRole, m.Private},
	} {
		if !tr.matched {
			continue
		}
		roleID, err := s.settings.Get(ctx, tr.settingKey)
		if err != nil {
			slog.Error("role binding missing", "tier", tr.settingKey, "err", err)
			continue
		}
		if err := s.platform.GrantRole(ctx, s.guildID, userID, roleID); err != nil {
			slog.Warn("role grant failed", "tier", tr.settingKey, "role", roleID, "user", userID, "err", err)
		}
	}
}

func (s *Service) publishVerified(ctx context.Context, userID, email string, m domain.Membership) {
	if s.events == nil {
		return
	}
	ev := domain.VerifiedEvent{
		UserID:     userID,
		Email:      email,
		Vetted:     m.Vetted,
		Private:    m.Private,
		Method:     "oauth",
		VerifiedAt: time.Now().UTC(),
	}
	if err := s.events.PublishVerified(ctx, ev); err != nil {
		slog.Warn("failed to publish verified event", "err", err)
	}
}
