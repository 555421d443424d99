package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/acquisitions/apiserver/internal/storage"
)

// ObjectStore is the subset of object storage used for avatars.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// AvatarService stores one profile image per account.
type AvatarService struct {
	objects ObjectStore
	users   UserRepository
}

func NewAvatarService(objects ObjectStore, users UserRepository) *AvatarService {
	return &AvatarService{objects: objects, users: users}
}

func avatarKey(userID int) string {
	return fmt.Sprintf("avatars/%d", userID)
}

// Put replaces the avatar of an existing account.
func (s *AvatarService) Put(ctx context.Context, userID int, r io.Reader, size int64, contentType string) error {
	const op = "avatars.put"

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return wrapStore(op, err)
	}
	if err := s.objects.Put(ctx, avatarKey(userID), r, size, contentType); err != nil {
		return newError(op, KindInternal, err)
	}
	return nil
}

// Get opens the avatar. Callers must close the returned body.
func (s *AvatarService) Get(ctx context.Context, userID int) (storage.Object, error) {
	obj, err := s.objects.Get(ctx, avatarKey(userID))
	if err != nil {
		return storage.Object{}, wrapObject("avatars.get", err)
	}
	return obj, nil
}

func (s *AvatarService) Delete(ctx context.Context, userID int) error {
	if err := s.objects.Delete(ctx, avatarKey(userID)); err != nil {
		return wrapObject("avatars.delete", err)
	}
	return nil
}

func wrapObject(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newError(op, KindNotFound, err)
	}
	return newError(op, KindInternal, err)
}
