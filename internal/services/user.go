package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/internal/store"
	"github.com/acquisitions/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error)
	Delete(ctx context.Context, id int) (types.User, error)
}

// EventPublisher announces account changes to downstream consumers.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, eventType types.UserEventType, user types.User) error
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo     UserRepository
	events   EventPublisher
	hashCost int
	now      func() time.Time
}

type UserServiceOption func(*UserService)

// WithEventPublisher publishes an event after every successful mutation.
func WithEventPublisher(events EventPublisher) UserServiceOption {
	return func(s *UserService) {
		s.events = events
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.hashCost = cost
	}
}

func WithClock(now func() time.Time) UserServiceOption {
	return func(s *UserService) {
		s.now = now
	}
}

func NewUserService(repo UserRepository, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new account. The role defaults to user.
func (s *UserService) Create(ctx context.Context, input types.NewUser) (types.User, error) {
	const op = "users.create"

	email := normalizeEmail(input.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, newError(op, KindConflict, store.ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, wrapStore(op, err)
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return types.User{}, newError(op, KindInternal, err)
	}

	role := input.Role
	if role == "" {
		role = types.RoleUser
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return types.User{}, wrapStore(op, err)
	}

	s.publish(ctx, types.UserCreated, user)
	return user, nil
}

// Authenticate returns the account matching the credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	const op = "users.authenticate"

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(op, KindInvalidCredentials, nil)
		}
		return types.User{}, wrapStore(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, newError(op, KindInvalidCredentials, nil)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrapStore("users.list", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, wrapStore("users.get", err)
	}
	return user, nil
}

// Update applies a partial change, rehashing the password when present and
// always advancing updated_at.
func (s *UserService) Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error) {
	const op = "users.update"

	patch := types.UserPatch{
		Name:      update.Name,
		Role:      update.Role,
		UpdatedAt: s.now(),
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		patch.Email = &email
	}
	if update.Password != nil {
		hash, err := s.hashPassword(*update.Password)
		if err != nil {
			return types.User{}, newError(op, KindInternal, err)
		}
		patch.PasswordHash = &hash
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.User{}, wrapStore(op, err)
	}

	s.publish(ctx, types.UserUpdated, user)
	return user, nil
}

// Delete removes the account and returns its last state.
func (s *UserService) Delete(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.Delete(ctx, id)
	if err != nil {
		return types.User{}, wrapStore("users.delete", err)
	}

	s.publish(ctx, types.UserDeleted, user)
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// publish is best effort: the mutation has already been committed.
func (s *UserService) publish(ctx context.Context, eventType types.UserEventType, user types.User) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUserEvent(ctx, eventType, user); err != nil {
		logging.FromContext(ctx).Error("publish user event failed",
			"type", eventType,
			"user_id", user.ID,
			"err", err,
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
