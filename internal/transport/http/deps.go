package http

import (
	"crypto/ed25519"

	"github.com/vetgate/internal/application/roster"
	"github.com/vetgate/internal/infrastructure/discord"
	"github.com/vetgate/internal/infrastructure/dynamo"
	"github.com/vetgate/internal/infrastructure/smtp"
	"github.com/vetgate/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	SettingRepo  *dynamo.SettingRepo
	PasscodeRepo *dynamo.PasscodeRepo
	Discord      *discord.Client
	// Sheets is nil when no service-account credential is configured; the
	// roster service then reports the spreadsheet as unavailable.
	Sheets    roster.ColumnFetcher
	Mailer    smtp.Mailer
	Publisher sns.EventPublisher // nil disables event publishing
	PublicKey ed25519.PublicKey  // webhook signature verification key
}
