package passcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/vetgate/internal/domain"
)

// Store persists live passcodes keyed "email:{normalized}".
type Store interface {
	Put(ctx context.Context, p *domain.Passcode) error
	Get(ctx context.Context, key string) (*domain.Passcode, error)
	Delete(ctx context.Context, key string) error
}

// Mailer delivers the passcode email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Service issues and checks one-time passcodes. A new Start overwrites any
// prior live code for the same email; a matching Check consumes the code.
type Service struct {
	store    Store
	mailer   Mailer
	ttl      time.Duration
	deepLink string // link back into the chat client, included in the email

	now func() time.Time
}

func NewService(store Store, mailer Mailer, ttl time.Duration, deepLink string) *Service {
	return &Service{
		store:    store,
		mailer:   mailer,
		ttl:      ttl,
		deepLink: deepLink,
		now:      time.Now,
	}
}

// Start generates a 6-digit code, stores it under the normalized email with
// a TTL, and sends the delivery email. The send is fire-and-forget: a
// delivery failure is logged but never blocks the workflow, since the user's
// next step (entering a code) does not depend on delivery confirmation.
func (s *Service) Start(ctx context.Context, email string) (string, error) {
	norm := domain.NormalizeEmail(email)

	// rand.Int's bound is exclusive; 1000000 covers 000000 through 999999.
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	p := &domain.Passcode{
		Key:       domain.PasscodeKey(norm),
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl).Unix(),
	}
	if err := s.store.Put(ctx, p); err != nil {
		return "", fmt.Errorf("store passcode: %w", err)
	}

	body := fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.\n\nReturn to %s and enter it there.",
		code, int(s.ttl.Minutes()), s.deepLink,
	)
	if err := s.mailer.SendEmail(norm, "Your verification code", body); err != nil {
		slog.Warn("failed to send passcode email", "email", norm, "err", err)
	}
	return code, nil
}

// Check compares a submitted code against the stored one. An absent or
// expired record is a non-match, not an error. A mismatch leaves the record
// in place so the user can retry until the TTL runs out; a match deletes it.
func (s *Service) Check(ctx context.Context, email, submitted string) (bool, error) {
	norm := domain.NormalizeEmail(email)
	key := domain.PasscodeKey(norm)

	p, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read passcode: %w", err)
	}
	if p.Expired(s.now()) {
		return false, nil
	}
	if p.Code != submitted {
		return false, nil
	}

	if err := s.store.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete consumed passcode", "email", norm, "err", err)
	}
	return true, nil
}
