package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/vetgate/internal/domain"
	"github.com/vetgate/internal/infrastructure/discord"
	"github.com/vetgate/internal/pkg/validate"
)

// customId tokens. Later workflow steps carry the subject email after the
// colon — that round-tripped token is the only cross-request state besides
// the durable store.
const (
	commandSetup      = "setup"
	customIDSetup     = "modal-setup"
	customIDManual    = "manual-verify"
	customIDEmail     = "modal-verify-email"
	prefixVerifyEmail = "verify-email:"
	prefixConfirmCode = "modal-confirm-code:"

	inputSheetURL = "sheet-url"
	inputEmail    = "email"
	inputCode     = "code"

	optionVettedRole  = "vetted-role"
	optionPrivateRole = "private-role"
)

var sheetURLPattern = regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Settings is the durable key/value configuration store.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Roster answers schema and membership questions against the spreadsheet.
type Roster interface {
	ValidateHeaders(ctx context.Context, sheetID string) error
	Lookup(ctx context.Context, sheetID, email string) (domain.Membership, error)
}

// Passcodes issues and checks one-time codes.
type Passcodes interface {
	Start(ctx context.Context, email string) (string, error)
	Check(ctx context.Context, email, submitted string) (bool, error)
}

// RoleGranter attaches a platform role to a guild member.
type RoleGranter interface {
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
}

// EventPublisher notifies downstream consumers of a completed verification.
type EventPublisher interface {
	PublishVerified(ctx context.Context, ev domain.VerifiedEvent) error
}

// Deps bundles the dispatcher's collaborators.
type Deps struct {
	Settings  Settings
	Roster    Roster
	Passcodes Passcodes
	Granter   RoleGranter
	Events    EventPublisher // optional

	GuildID      string
	AuthorizeURL string // delegated-authorization entry link
	ApplyURL     string // shown to users not on the roster
}

// Service is the interaction dispatcher. Each callback is classified by kind
// and customId and drives one step of the workflow; no state is held in
// process memory between calls.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Dispatch runs one state-machine step. It always returns a response
// payload — every failure past the signature check is converted to a
// user-facing message, because the webhook protocol wants a 200 with
// content, not an HTTP error.
func (s *Service) Dispatch(ctx context.Context, in *domain.Interaction) *discord.Response {
	switch {
	case in.Kind == domain.KindPing:
		return discord.Pong()

	case in.Kind == domain.KindCommand && in.CommandName == commandSetup:
		return s.setupCommand(ctx, in)

	case in.Kind == domain.KindModalSubmit && in.CustomID == customIDSetup:
		return s.setupModal(ctx, in)

	case in.Kind == domain.KindComponent && in.CustomID == customIDManual:
		return discord.Modal(customIDEmail, "Verify your email",
			discord.TextInput(inputEmail, "Email address", true))

	case in.Kind == domain.KindModalSubmit && in.CustomID == customIDEmail:
		return s.emailModal(ctx, in)

	case in.Kind == domain.KindComponent && strings.HasPrefix(in.CustomID, prefixVerifyEmail):
		email := strings.TrimPrefix(in.CustomID, prefixVerifyEmail)
		return discord.Modal(prefixConfirmCode+email, "Enter your code",
			discord.TextInput(inputCode, "6-digit code", true))

	case in.Kind == domain.KindModalSubmit && strings.HasPrefix(in.CustomID, prefixConfirmCode):
		return s.confirmCodeModal(ctx, in)

	default:
		slog.Warn("unrecognized interaction", "kind", in.Kind.String(), "custom_id", in.CustomID)
		return discord.EphemeralMessage("Something went wrong. Please try again later.")
	}
}

// setupCommand persists the two tier role bindings and asks for the
// spreadsheet URL.
func (s *Service) setupCommand(ctx context.Context, in *domain.Interaction) *discord.Response {
	vettedRole := in.Option(optionVettedRole)
	privateRole := in.Option(optionPrivateRole)
	if vettedRole == "" || privateRole == "" {
		return discord.EphemeralMessage("Both role options are required to run setup.")
	}

	if err := s.deps.Settings.Put(ctx, domain.SettingVettedRole, vettedRole); err != nil {
		slog.Error("failed to save vetted role binding", "err", err)
		return discord.EphemeralMessage("Could not save the role configuration. Please try again.")
	}
	if err := s.deps.Settings.Put(ctx, domain.SettingPrivateRole, privateRole); err != nil {
		slog.Error("failed to save private role binding", "err", err)
		return discord.EphemeralMessage("Could not save the role configuration. Please try again.")
	}

	return discord.Modal(customIDSetup, "Roster setup",
		discord.TextInput(inputSheetURL, "Spreadsheet URL", true))
}

// setupModal extracts and persists the sheet id, validates the sheet schema,
// and on success renders the two verification entry points.
func (s *Service) setupModal(ctx context.Context, in *domain.Interaction) *discord.Response {
	m := sheetURLPattern.FindStringSubmatch(in.Field(inputSheetURL))
	if m == nil {
		return discord.EphemeralMessage("That doesn't look like a spreadsheet URL. Paste the full link to the sheet.")
	}
	sheetID := m[1]

	if err := s.deps.Settings.Put(ctx, domain.SettingSheet, sheetID); err != nil {
		slog.Error("failed to save sheet id", "err", err)
		return discord.EphemeralMessage("Could not save the spreadsheet configuration. Please try again.")
	}

	if err := s.deps.Roster.ValidateHeaders(ctx, sheetID); err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return discord.EphemeralMessage("The sheet has the wrong headings — both member lists need an \"Email Address\" column.")
		default:
			slog.Warn("sheet schema validation failed", "sheet", sheetID, "err", err)
			return discord.EphemeralMessage("Error fetching sheet data. Check that the sheet is shared with the service account.")
		}
	}

	return discord.Message(
		"Setup complete! Members can verify below.",
		discord.ActionRow(
			discord.LinkButton(s.deps.AuthorizeURL, "Verify with Discord"),
			discord.Button(customIDManual, "Verify by email", discord.ButtonPrimary),
		),
	)
}

// emailModal starts the one-time-passcode branch: issue a code for the
// submitted address and hand back a button carrying the email forward.
func (s *Service) emailModal(ctx context.Context, in *domain.Interaction) *discord.Response {
	email := domain.NormalizeEmail(in.Field(inputEmail))
	if err := validate.Var(email, "required,email"); err != nil {
		return discord.EphemeralMessage("That doesn't look like an email address. Please try again.")
	}

	if _, err := s.deps.Passcodes.Start(ctx, email); err != nil {
		slog.Error("failed to start passcode verification", "err", err)
		return discord.EphemeralMessage("Something went wrong sending your code. Please try again later.")
	}

	return discord.EphemeralMessage(
		fmt.Sprintf("We sent a 6-digit code to %s. It expires in a few minutes.", email),
		discord.ActionRow(
			discord.Button(prefixVerifyEmail+email, "Enter code", discord.ButtonPrimary),
		),
	)
}

// confirmCodeModal finishes the passcode branch: check the code, look the
// email up on the roster, grant roles per matched tier, and update the
// message the button lives on.
func (s *Service) confirmCodeModal(ctx context.Context, in *domain.Interaction) *discord.Response {
	email := domain.NormalizeEmail(strings.TrimPrefix(in.CustomID, prefixConfirmCode))
	submitted := strings.TrimSpace(in.Field(inputCode))

	ok, err := s.deps.Passcodes.Check(ctx, email, submitted)
	if err != nil {
		slog.Error("passcode check failed", "err", err)
		return discord.UpdateMessage("Something went wrong. Please try again later.",
			discord.ActionRow(discord.Button(prefixVerifyEmail+email, "Try again", discord.ButtonPrimary)))
	}
	if !ok {
		// Keep the entry button so the user can retry before the code expires.
		return discord.UpdateMessage("That code didn't match. Check the email and try again.",
			discord.ActionRow(discord.Button(prefixVerifyEmail+email, "Try again", discord.ButtonPrimary)))
	}

	sheetID, err := s.deps.Settings.Get(ctx, domain.SettingSheet)
	if err != nil {
		slog.Error("sheet id missing during verification", "err", err)
		return discord.UpdateMessage("Verification isn't configured yet — the spreadsheet is missing. Ask an admin to run setup.")
	}

	membership, err := s.deps.Roster.Lookup(ctx, sheetID, email)
	if err != nil {
		slog.Warn("roster lookup failed", "err", err)
		return discord.UpdateMessage("Something went wrong checking the roster. Please try again later.",
			discord.ActionRow(discord.Button(prefixVerifyEmail+email, "Try again", discord.ButtonPrimary)))
	}
	if membership.None() {
		return discord.UpdateMessage(fmt.Sprintf(
			"Your email was confirmed, but it isn't on the roster. You can apply at %s", s.deps.ApplyURL))
	}

	s.grantRoles(ctx, in.UserID, membership)
	s.publishVerified(ctx, in.UserID, email, membership, "email")

	// Clearing the components ends the workflow for this message.
	return discord.UpdateMessage("You're verified! Your roles have been granted.")
}

// grantRoles performs zero, one, or two best-effort grant calls. A failed
// grant is logged and the rest proceed — the verification itself already
// succeeded, and the platform-side grant is idempotent to repeat.
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
		roleID, err := s.deps.Settings.Get(ctx, tr.settingKey)
		if err != nil {
			slog.Error("role binding missing", "tier", tr.settingKey, "err", err)
			continue
		}
		if err := s.deps.Granter.GrantRole(ctx, s.deps.GuildID, userID, roleID); err != nil {
			slog.Warn("role grant failed", "tier", tr.settingKey, "role", roleID, "user", userID, "err", err)
		}
	}
}

func (s *Service) publishVerified(ctx context.Context, userID, email string, m domain.Membership, method string) {
	if s.deps.Events == nil {
		return
	}
	ev := domain.VerifiedEvent{
		UserID:     userID,
		Email:      email,
		Vetted:     m.Vetted,
		Private:    m.Private,
		Method:     method,
		VerifiedAt: time.Now().UTC(),
	}
	if err := s.deps.Events.PublishVerified(ctx, ev); err != nil {
		slog.Warn("failed to publish verified event", "err", err)
	}
}
