package credentials

import (
	"context"
	"errors"
	"strings"

	"item-service/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
)

type Service struct {
	users store.UserStore
	creds store.CredentialStore
}

func NewService(users store.UserStore, creds store.CredentialStore) *Service {
	return &Service{users: users, creds: creds}
}

func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
) (*store.User, error) {

	username := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		username = email[:i]
	}

	// 1. Find or create user by email
	user, err := s.users.UpsertUser(ctx, email, username)
	if err != nil {
		return nil, err
	}

	// 2. Check if credentials already exist
	exists, err := s.creds.HasCredential(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	// 3. Hash password
	hash, version, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 4. Insert credentials
	if err := s.creds.CreateCredential(ctx, user.ID, hash, version); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*store.User, error) {

	user, cred, err := s.creds.GetCredentialByEmail(ctx, email)
	if err != nil {
		// hide whether user exists or not
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
