package passcode

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vetgate/internal/domain"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, p *domain.Passcode) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockStore) Get(ctx context.Context, key string) (*domain.Passcode, error) {
	args := m.Called(ctx, key)
	if p, _ := args.Get(0).(*domain.Passcode); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

const deepLink = "https://discord.com/channels/g1"

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestStart_StoresNormalizedKeyAndEmailsCode(t *testing.T) {
	st := &mockStore{}
	ml := &mockMailer{}
	var stored *domain.Passcode
	st.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Passcode)
	}).Return(nil)
	ml.On("SendEmail", "test@example.com", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(st, ml, 5*time.Minute, deepLink)
	code, err := svc.Start(context.Background(), " Test@Example.com ")
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, code)

	require.NotNil(t, stored)
	assert.Equal(t, "email:test@example.com", stored.Key)
	assert.Equal(t, code, stored.Code)
	assert.InDelta(t, time.Now().Add(5*time.Minute).Unix(), stored.ExpiresAt, 2)

	ml.AssertCalled(t, "SendEmail", "test@example.com", "Your verification code", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, code) && strings.Contains(body, deepLink)
	}))
}

func TestStart_CodesStaySixDigitsAcrossDraws(t *testing.T) {
	st := &mockStore{}
	ml := &mockMailer{}
	st.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(st, ml, 5*time.Minute, deepLink)
	for i := 0; i < 200; i++ {
		code, err := svc.Start(context.Background(), "test@example.com")
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestStart_MailFailureDoesNotBlock(t *testing.T) {
	st := &mockStore{}
	ml := &mockMailer{}
	st.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	code, err := NewService(st, ml, 5*time.Minute, deepLink).Start(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, code)
}

func TestStart_StoreFailureIsFatal(t *testing.T) {
	st := &mockStore{}
	ml := &mockMailer{}
	st.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	_, err := NewService(st, ml, 5*time.Minute, deepLink).Start(context.Background(), "a@x.com")
	require.Error(t, err)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheck_MatchConsumesCode(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "email:a@x.com").Return(&domain.Passcode{
		Key: "email:a@x.com", Code: "123456", ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}, nil)
	st.On("Delete", mock.Anything, "email:a@x.com").Return(nil)

	ok, err := NewService(st, &mockMailer{}, 5*time.Minute, deepLink).Check(context.Background(), "A@X.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)
	st.AssertCalled(t, "Delete", mock.Anything, "email:a@x.com")
}

func TestCheck_MismatchKeepsCode(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "email:a@x.com").Return(&domain.Passcode{
		Key: "email:a@x.com", Code: "123456", ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}, nil)

	ok, err := NewService(st, &mockMailer{}, 5*time.Minute, deepLink).Check(context.Background(), "a@x.com", "654321")
	require.NoError(t, err)
	assert.False(t, ok)
	// the code survives a wrong guess, so a later correct submission still works
	st.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCheck_AbsentIsNonMatch(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "email:a@x.com").Return(nil, domain.ErrNotFound)

	ok, err := NewService(st, &mockMailer{}, 5*time.Minute, deepLink).Check(context.Background(), "a@x.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheck_ExpiredIsNonMatch(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "email:a@x.com").Return(&domain.Passcode{
		Key: "email:a@x.com", Code: "123456", ExpiresAt: time.Now().Add(-time.Second).Unix(),
	}, nil)

	ok, err := NewService(st, &mockMailer{}, 5*time.Minute, deepLink).Check(context.Background(), "a@x.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
	st.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCheck_StoreErrorSurfaces(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo down"))

	_, err := NewService(st, &mockMailer{}, 5*time.Minute, deepLink).Check(context.Background(), "a@x.com", "123456")
	assert.Error(t, err)
}
