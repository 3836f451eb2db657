package oauthflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vetgate/internal/domain"
	"github.com/vetgate/internal/pkg/retry"
)

type mockPlatform struct{ mock.Mock }

func (m *mockPlatform) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	args := m.Called(ctx, code, redirectURI)
	return args.String(0), args.Error(1)
}
func (m *mockPlatform) FetchIdentity(ctx context.Context, accessToken string) (*domain.Identity, error) {
	args := m.Called(ctx, accessToken)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPlatform) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

type mockRoster struct{ mock.Mock }

func (m *mockRoster) Lookup(ctx context.Context, sheetID, email string) (domain.Membership, error) {
	args := m.Called(ctx, sheetID, email)
	return args.Get(0).(domain.Membership), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishVerified(ctx context.Context, ev domain.VerifiedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (string, error) {
	if v, ok := f[key]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

func newService(p *mockPlatform, st fakeSettings, ro *mockRoster, ev EventPublisher) *Service {
	return NewService(p, st, ro, ev, retry.Policy{Retries: 1, ZeroDelay: true}, "guild1", "https://cb.example/oauth")
}

func TestComplete_VerifiedGrantsRoles(t *testing.T) {
	p := &mockPlatform{}
	ro := &mockRoster{}
	ev := &mockPublisher{}
	st := fakeSettings{
		domain.SettingSheet:       "S",
		domain.SettingVettedRole:  "R1",
		domain.SettingPrivateRole: "R2",
	}
	p.On("ExchangeCode", mock.Anything, "code-1", "https://cb.example/oauth").Return("tok", nil)
	p.On("FetchIdentity", mock.Anything, "tok").Return(&domain.Identity{ID: "u1", Email: "A@X.com", Verified: true}, nil)
	ro.On("Lookup", mock.Anything, "S", "a@x.com").Return(domain.Membership{Vetted: true}, nil)
	p.On("GrantRole", mock.Anything, "guild1", "u1", "R1").Return(nil)
	ev.On("PublishVerified", mock.Anything, mock.Anything).Return(nil)

	res := newService(p, st, ro, ev).Complete(context.Background(), "code-1")

	assert.Equal(t, StateVerified, res.State)
	assert.Equal(t, "a@x.com", res.Email)
	p.AssertNumberOfCalls(t, "GrantRole", 1)
	ev.AssertCalled(t, "PublishVerified", mock.Anything, mock.MatchedBy(func(e domain.VerifiedEvent) bool {
		return e.Method == "oauth" && e.UserID == "u1"
	}))
}

func TestComplete_BothTiersGrantVettedFirst(t *testing.T) {
	p := &mockPlatform{}
	ro := &mockRoster{}
	st := fakeSettings{
		domain.SettingSheet:       "S",
		domain.SettingVettedRole:  "R1",
		domain.SettingPrivateRole: "R2",
	}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	p.On("FetchIdentity", mock.Anything, "tok").Return(&domain.Identity{ID: "u1", Email: "a@x.com", Verified: true}, nil)
	ro.On("Lookup", mock.Anything, "S", "a@x.com").Return(domain.Membership{Vetted: true, Private: true}, nil)
	p.On("GrantRole", mock.Anything, "guild1", "u1", mock.Anything).Return(nil)

	res := newService(p, st, ro, nil).Complete(context.Background(), "code-1")
	assert.Equal(t, StateVerified, res.State)

	var granted []string
	for _, c := range p.Calls {
		if c.Method == "GrantRole" {
			granted = append(granted, c.Arguments.String(3))
		}
	}
	assert.Equal(t, []string{"R1", "R2"}, granted)
}

// end-to-end scenario D: identity resolves but the email is on neither list
func TestComplete_NotOnRoster_NoGrants(t *testing.T) {
	p := &mockPlatform{}
	ro := &mockRoster{}
	st := fakeSettings{domain.SettingSheet: "S"}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	p.On("FetchIdentity", mock.Anything, "tok").Return(&domain.Identity{ID: "u1", Email: "b@y.com", Verified: true}, nil)
	ro.On("Lookup", mock.Anything, "S", "b@y.com").Return(domain.Membership{}, nil)

	res := newService(p, st, ro, nil).Complete(context.Background(), "code-1")

	assert.Equal(t, StateNotFound, res.State)
	p.AssertNotCalled(t, "GrantRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_ExchangeFailureIsNeutral(t *testing.T) {
	p := &mockPlatform{}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("502"))

	res := newService(p, fakeSettings{}, &mockRoster{}, nil).Complete(context.Background(), "code-1")

	assert.Equal(t, StateNeutral, res.State)
	// retries=1 → two attempts before giving up
	p.AssertNumberOfCalls(t, "ExchangeCode", 2)
}

func TestComplete_BadRequestNotRetried(t *testing.T) {
	p := &mockPlatform{}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("", domain.ErrBadRequest)

	res := newService(p, fakeSettings{}, &mockRoster{}, nil).Complete(context.Background(), "bad-code")

	assert.Equal(t, StateNeutral, res.State)
	p.AssertNumberOfCalls(t, "ExchangeCode", 1)
}

func TestComplete_IdentityFailureIsNeutral(t *testing.T) {
	p := &mockPlatform{}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	p.On("FetchIdentity", mock.Anything, "tok").Return(nil, errors.New("timeout"))

	res := newService(p, fakeSettings{}, &mockRoster{}, nil).Complete(context.Background(), "code-1")
	assert.Equal(t, StateNeutral, res.State)
}

func TestComplete_UnverifiedEmailIsNotFound(t *testing.T) {
	p := &mockPlatform{}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	p.On("FetchIdentity", mock.Anything, "tok").Return(&domain.Identity{ID: "u1", Email: "a@x.com", Verified: false}, nil)

	res := newService(p, fakeSettings{}, &mockRoster{}, nil).Complete(context.Background(), "code-1")
	assert.Equal(t, StateNotFound, res.State)
	p.AssertNotCalled(t, "GrantRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_MissingSheetConfigIsNeutral(t *testing.T) {
	p := &mockPlatform{}
	p.On("ExchangeCode", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	p.On("FetchIdentity", mock.Anything, "tok").Return(&domain.Identity{ID: "u1", Email: "a@x.com", Verified: true}, nil)

	res := newService(p, fakeSettings{}, &mockRoster{}, nil).Complete(context.Background(), "code-1")
	assert.Equal(t, StateNeutral, res.State)
}
