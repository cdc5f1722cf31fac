// Package auth implements account sign-up/sign-in and access-token
// verification for the API. The auth provider is deliberately thin so
// it stays replaceable by a hosted identity service.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/store"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]{1,30}[a-z0-9])$`)

// UserStore is the account surface the auth service needs. *store.Store
// satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, create *store.User) (*store.User, error)
	GetUser(ctx context.Context, find *store.FindUser) (*store.User, error)
	GetWorkspaceSetting(ctx context.Context, key string) (*store.WorkspaceSetting, error)
	UpsertWorkspaceSetting(ctx context.Context, upsert *store.WorkspaceSetting) (*store.WorkspaceSetting, error)
}

// Service issues and verifies credentials.
type Service struct {
	store  UserStore
	secret []byte
}

// NewService creates the auth service, loading or generating the
// instance signing secret.
func NewService(ctx context.Context, userStore UserStore) (*Service, error) {
	secret, err := ensureSecret(ctx, userStore)
	if err != nil {
		return nil, err
	}
	return &Service{store: userStore, secret: secret}, nil
}

// ensureSecret loads the JWT signing secret, generating and persisting
// one on first boot.
func ensureSecret(ctx context.Context, userStore UserStore) ([]byte, error) {
	setting, err := userStore.GetWorkspaceSetting(ctx, store.WorkspaceSettingKeySecret)
	if err != nil {
		return nil, apperrors.StoreError("failed to load instance secret", err)
	}
	if setting != nil && setting.Value != "" {
		return []byte(setting.Value), nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperrors.StoreError("failed to generate instance secret", err)
	}
	secret := hex.EncodeToString(raw)
	if _, err := userStore.UpsertWorkspaceSetting(ctx, &store.WorkspaceSetting{
		Key:   store.WorkspaceSettingKeySecret,
		Value: secret,
	}); err != nil {
		return nil, apperrors.StoreError("failed to persist instance secret", err)
	}
	return []byte(secret), nil
}

// SignUp registers a new account with a bcrypt-hashed password.
func (s *Service) SignUp(ctx context.Context, username, email, nickname, password string) (*store.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.InvalidArgument("username must be 3-32 lowercase letters, digits, '.', '-' or '_'")
	}
	if len(password) < 6 {
		return nil, apperrors.InvalidArgument("password must be at least 6 characters")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.InvalidArgument("invalid email address")
		}
	}

	existing, err := s.store.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return nil, apperrors.StoreError("failed to check username", err)
	}
	if existing != nil {
		return nil, apperrors.InvalidArgument("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.StoreError("failed to hash password", err)
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		UID:          shortuuid.New(),
		Username:     username,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, apperrors.StoreError("failed to create user", err)
	}
	return user, nil
}

// SignIn verifies the password and issues an access token.
func (s *Service) SignIn(ctx context.Context, username, password string) (*store.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.store.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return nil, "", apperrors.StoreError("failed to load user", err)
	}
	if user == nil {
		return nil, "", apperrors.Unauthorized("incorrect username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.Unauthorized("incorrect username or password")
	}

	token, err := GenerateAccessToken(user.Username, user.ID, time.Now().Add(AccessTokenDuration), s.secret)
	if err != nil {
		return nil, "", apperrors.StoreError("failed to issue token", err)
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("missing access token")
	}
	userID, err := ParseAccessToken(token, s.secret)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}

	user, err := s.store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return nil, apperrors.StoreError("failed to load user", err)
	}
	if user == nil || user.RowStatus == store.Archived {
		return nil, apperrors.Unauthorized("user not found")
	}
	return user, nil
}
