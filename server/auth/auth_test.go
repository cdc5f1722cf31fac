package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/store"
)

type fakeUserStore struct {
	nextID   int32
	users    map[int32]*store.User
	settings map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		nextID:   1,
		users:    make(map[int32]*store.User),
		settings: make(map[string]string),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, create *store.User) (*store.User, error) {
	create.ID = f.nextID
	f.nextID++
	create.RowStatus = store.Normal
	clone := *create
	f.users[create.ID] = &clone
	return create, nil
}

func (f *fakeUserStore) GetUser(_ context.Context, find *store.FindUser) (*store.User, error) {
	for _, user := range f.users {
		if find.ID != nil && user.ID != *find.ID {
			continue
		}
		if find.Username != nil && user.Username != *find.Username {
			continue
		}
		clone := *user
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeUserStore) GetWorkspaceSetting(_ context.Context, key string) (*store.WorkspaceSetting, error) {
	value, ok := f.settings[key]
	if !ok {
		return nil, nil
	}
	return &store.WorkspaceSetting{Key: key, Value: value}, nil
}

func (f *fakeUserStore) UpsertWorkspaceSetting(_ context.Context, upsert *store.WorkspaceSetting) (*store.WorkspaceSetting, error) {
	f.settings[upsert.Key] = upsert.Value
	return upsert, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore) {
	t.Helper()
	f := newFakeUserStore()
	svc, err := NewService(context.Background(), f)
	require.NoError(t, err)
	return svc, f
}

func TestNewServiceGeneratesSecretOnce(t *testing.T) {
	f := newFakeUserStore()

	first, err := NewService(context.Background(), f)
	require.NoError(t, err)
	require.NotEmpty(t, f.settings[store.WorkspaceSettingKeySecret])

	second, err := NewService(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, first.secret, second.secret)
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.SignUp(context.Background(), "alice", "alice@example.com", "Alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NotEmpty(t, user.UID)

	signedIn, token, err := svc.SignIn(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	require.NotEmpty(t, token)

	authed, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "short username", username: "ab", password: "hunter22"},
		{name: "bad characters", username: "Al!ce", password: "hunter22"},
		{name: "short password", username: "alice", password: "12345"},
		{name: "bad email", username: "alice", email: "not-an-email", password: "hunter22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tt.username, tt.email, "", tt.password)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
		})
	}
}

func TestSignUpDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), "alice", "", "", "hunter22")
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "alice", "", "", "other-pass")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), "alice", "", "", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.SignIn(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))

	_, _, err = svc.SignIn(context.Background(), "nobody", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))

	_, err = svc.Authenticate(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestAuthenticateRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestService(t)
	other, _ := newTestService(t)

	user, err := svc.SignUp(context.Background(), "alice", "", "", "hunter22")
	require.NoError(t, err)

	token, err := GenerateAccessToken(user.Username, user.ID, time.Now().Add(time.Hour), other.secret)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestAuthenticateRejectsArchivedUser(t *testing.T) {
	svc, f := newTestService(t)

	user, err := svc.SignUp(context.Background(), "alice", "", "", "hunter22")
	require.NoError(t, err)

	_, token, err := svc.SignIn(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	f.users[user.ID].RowStatus = store.Archived

	_, err = svc.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestParseAccessTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateAccessToken("alice", 1, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, secret)
	require.Error(t, err)
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	for _, id := range []int32{1, 42, 9000} {
		token, err := GenerateAccessToken(fmt.Sprintf("user%d", id), id, time.Now().Add(time.Hour), secret)
		require.NoError(t, err)

		got, err := ParseAccessToken(token, secret)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}
