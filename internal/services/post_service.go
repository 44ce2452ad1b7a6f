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

// Reaction actions accepted by React.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
)

// CreatePostInput describes the fields accepted when creating a post.
type CreatePostInput struct {
	UserID  string
	Title   string
	Content string
}

// PostService exposes post reads through the cache and post writes against the primary store.
type PostService struct {
	store        store.Store
	reader       *cacheaside.Reader
	mutator      *cacheaside.Mutator
	storeTimeout time.Duration
}

// NewPostService constructs a PostService instance.
func NewPostService(st store.Store, reader *cacheaside.Reader, mutator *cacheaside.Mutator) (*PostService, error) {
	if st == nil {
		return nil, errors.New("post service: store is required")
	}
	if reader == nil || mutator == nil {
		return nil, errors.New("post service: reader and mutator are required")
	}
	return &PostService{
		store:        st,
		reader:       reader,
		mutator:      mutator,
		storeTimeout: cacheaside.DefaultStoreTimeout,
	}, nil
}

// WithStoreTimeout bounds direct primary store calls made by the service.
func (s *PostService) WithStoreTimeout(timeout time.Duration) *PostService {
	if timeout > 0 {
		s.storeTimeout = timeout
	}
	return s
}

// Create stores a new post with zeroed counters.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	ctx = ensureContext(ctx)

	post := &models.Post{
		ID:        models.NewID(),
		UserID:    strings.TrimSpace(input.UserID),
		Title:     strings.TrimSpace(input.Title),
		Content:   strings.TrimSpace(input.Content),
		CreatedAt: models.Now(),
	}
	if post.UserID == "" || post.Title == "" || post.Content == "" {
		return nil, apperrors.ErrMissingParameters
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.Insert(ctx, models.PostKind, post); err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("post service: create post: %w", err))
	}
	return post, nil
}

// Get returns the public view of a post.
func (s *PostService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.fetch(ctx, id, "")
}

// Likes returns the reaction counters of a post.
func (s *PostService) Likes(ctx context.Context, id string) (json.RawMessage, error) {
	return s.fetch(ctx, id, models.ViewLikes)
}

func (s *PostService) fetch(ctx context.Context, id, view string) (json.RawMessage, error) {
	payload, found, err := s.reader.Fetch(ensureContext(ctx), models.PostKind.Name, id, view)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPostNotFound
	}
	return payload, nil
}

// React records a like or dislike and returns the refreshed counters. The
// payload is nil when the counters could not be re-read after the update.
func (s *PostService) React(ctx context.Context, id, action string) (json.RawMessage, error) {
	field, err := reactionField(action)
	if err != nil {
		return nil, err
	}
	return s.mutator.Increment(ensureContext(ctx), models.PostKind.Name, id, field, 1)
}

// ListByUser returns the public view of every post authored by userID,
// oldest first. Listings are read straight from the primary store.
func (s *PostService) ListByUser(ctx context.Context, userID string) ([]json.RawMessage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrMissingParameters
	}

	ctx, cancel := context.WithTimeout(ensureContext(ctx), s.storeTimeout)
	defer cancel()

	docs, err := s.store.FindByField(ctx, models.PostKind, models.FieldUserID, userID)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("post service: list posts: %w", err))
	}

	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		payload, err := cacheaside.Encode(models.PostKind, "", doc)
		if err != nil {
			return nil, fmt.Errorf("post service: encode post: %w", err)
		}
		out = append(out, payload)
	}
	return out, nil
}

func reactionField(action string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionLike:
		return models.FieldLikeCount, nil
	case ActionDislike:
		return models.FieldDislikeCount, nil
	default:
		return "", ErrInvalidAction
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
