package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/vetgate/internal/domain"
	"github.com/vetgate/internal/pkg/retry"
)

// Range expressions for the two tier lists. Column D holds the email
// addresses; row 1 is the heading.
const (
	vettedHeaderRange  = "Vetted Members!D1:D1"
	privateHeaderRange = "Private Members!D1:D1"
	vettedEmailRange   = "Vetted Members!D2:D"
	privateEmailRange  = "Private Members!D2:D"

	expectedHeading = "Email Address"
)

// ColumnFetcher fetches a column range from a named spreadsheet.
type ColumnFetcher interface {
	FetchColumn(ctx context.Context, sheetID, rangeExpr string) ([]string, error)
}

// Service answers the two roster questions: does the sheet have the expected
// schema, and which tiers does an email belong to. Rows are never cached —
// every check fetches fresh.
type Service struct {
	fetcher ColumnFetcher
	policy  retry.Policy
}

func NewService(fetcher ColumnFetcher, policy retry.Policy) *Service {
	policy.Retryable = domain.Retryable
	return &Service{fetcher: fetcher, policy: policy}
}

// ValidateHeaders checks that both tier ranges carry the expected column
// heading. Run at admin setup time so a mis-shared or restructured sheet is
// caught before anyone tries to verify against it.
func (s *Service) ValidateHeaders(ctx context.Context, sheetID string) error {
	for _, rangeExpr := range []string{vettedHeaderRange, privateHeaderRange} {
		headings, err := s.fetch(ctx, sheetID, rangeExpr)
		if err != nil {
			return err
		}
		// An empty range yields an empty list; the heading is then simply
		// missing, which is a schema problem, not a fetch problem.
		if len(headings) != 1 || headings[0] != expectedHeading {
			return fmt.Errorf("wrong headings in range %q: %w", rangeExpr, domain.ErrValidation)
		}
	}
	return nil
}

// Lookup reports which tier lists contain the given email. Matching is a
// case-insensitive substring test of the normalized email against each
// fetched entry.
func (s *Service) Lookup(ctx context.Context, sheetID, email string) (domain.Membership, error) {
	norm := domain.NormalizeEmail(email)

	vetted, err := s.fetch(ctx, sheetID, vettedEmailRange)
	if err != nil {
		return domain.Membership{}, err
	}
	private, err := s.fetch(ctx, sheetID, privateEmailRange)
	if err != nil {
		return domain.Membership{}, err
	}

	return domain.Membership{
		Vetted:  containsEmail(vetted, norm),
		Private: containsEmail(private, norm),
	}, nil
}

func (s *Service) fetch(ctx context.Context, sheetID, rangeExpr string) ([]string, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("roster source not configured: %w", domain.ErrUnavailable)
	}
	vals, err := retry.Call(ctx, s.policy, func() ([]string, error) {
		return s.fetcher.FetchColumn(ctx, sheetID, rangeExpr)
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching sheet data: %v: %w", err, domain.ErrUnavailable)
	}
	return vals, nil
}

// containsEmail preserves the source behavior of substring containment
// rather than exact equality.
func containsEmail(entries []string, normalizedEmail string) bool {
	if normalizedEmail == "" {
		return false
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e), normalizedEmail) {
			return true
		}
	}
	return false
}
