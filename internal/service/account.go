package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/inkpost/inkpost/internal/metrics"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/repository"
)

// dummyPassword is verified against when an email is unknown so that
// Authenticate takes roughly the same time either way.
const dummyPassword = "inkpost-dummy-password"

// AccountService handles registration and authentication.
type AccountService struct {
	store   AccountStore
	hasher  PasswordHasher
	metrics metrics.Recorder

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAccountService creates a new AccountService.
func NewAccountService(store AccountStore, hasher PasswordHasher, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		store:   store,
		hasher:  hasher,
		metrics: recorder,
	}
}

// Register validates the credentials, hashes the password and persists a new
// account.
func (s *AccountService) Register(ctx context.Context, email, rawPassword string) (*model.Account, error) {
	if err := ValidateCredentials(email, rawPassword); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		Email:        model.NormalizeEmail(email),
		PasswordHash: digest,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.metrics.IncAccountRegistered()

	return account, nil
}

// FindByID retrieves an account by ID.
func (s *AccountService) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("not found:%d: %w", id, ErrAccountNotFound)
		}
		return nil, err
	}
	return account, nil
}

// Authenticate returns the account for email if rawPassword matches.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, rawPassword string) (*model.Account, error) {
	account, err := s.store.GetAccountByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.verifyDummy(rawPassword)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	ok, err := s.hasher.Matches(rawPassword, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

func (s *AccountService) verifyDummy(rawPassword string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyDigest = digest
		}
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Matches(rawPassword, s.dummyDigest)
	}
}
