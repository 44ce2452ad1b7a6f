package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cacheaside"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
	apperrors "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
)

// CreateUserInput describes the fields accepted when creating a user.
type CreateUserInput struct {
	Username string
}

// UserService manages user accounts.
type UserService struct {
	store        store.Store
	reader       *cacheaside.Reader
	storeTimeout time.Duration
}

// NewUserService constructs a UserService instance.
func NewUserService(st store.Store, reader *cacheaside.Reader) (*UserService, error) {
	if st == nil {
		return nil, errors.New("user service: store is required")
	}
	if reader == nil {
		return nil, errors.New("user service: reader is required")
	}
	return &UserService{store: st, reader: reader, storeTimeout: cacheaside.DefaultStoreTimeout}, nil
}

// WithStoreTimeout bounds direct primary store calls made by the service.
func (s *UserService) WithStoreTimeout(timeout time.Duration) *UserService {
	if timeout > 0 {
		s.storeTimeout = timeout
	}
	return s
}

// Create provisions a new user.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.ErrMissingParameters
	}

	user := &models.User{
		ID:        models.NewID(),
		Username:  username,
		CreatedAt: models.Now(),
	}

	ctx, cancel := context.WithTimeout(ensureContext(ctx), s.storeTimeout)
	defer cancel()

	if err := s.store.Insert(ctx, models.UserKind, user); err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, apperrors.Unavailable(fmt.Errorf("user service: create user: %w", err))
	}
	return user, nil
}

// Get returns the public view of a user.
func (s *UserService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	payload, found, err := s.reader.Fetch(ensureContext(ctx), models.UserKind.Name, id, "")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return payload, nil
}
