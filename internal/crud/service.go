package crud

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"judolog/internal/cache"
)

const defaultTTL = 5 * time.Minute

// CacheKey is the list cache entry for one entity type and user.
func CacheKey(entity string, userID int) string {
	return fmt.Sprintf("%s:user:%d", entity, userID)
}

type options struct {
	ttl        time.Duration
	dependents []string
}

type Option func(*options)

func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithDependents names entities whose lists change when this one is written,
// e.g. exercises removed by a cascading session delete.
func WithDependents(entities ...string) Option {
	return func(o *options) { o.dependents = append(o.dependents, entities...) }
}

// Service validates input, delegates to the store and keeps the per-user list cache coherent.
type Service[T any, P Record[T]] struct {
	entity string
	store  Store[T]
	cache  cache.Cache
	opts   options
	log    *zap.Logger
}

func NewService[T any, P Record[T]](entity string, store Store[T], c cache.Cache, log *zap.Logger, opts ...Option) *Service[T, P] {
	o := options{ttl: defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service[T, P]{entity: entity, store: store, cache: c, opts: o, log: log.With(zap.String("entity", entity))}
}

func (s *Service[T, P]) Entity() string { return s.entity }

// List serves the user's rows from the list cache when possible. Stores that
// implement SealedLister have their rows cached as stored and opened on each read.
func (s *Service[T, P]) List(ctx context.Context, userID int) ([]T, error) {
	sealed, _ := s.store.(SealedLister[T])
	key := CacheKey(s.entity, userID)
	if s.cache != nil {
		var cached []T
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return s.open(sealed, cached)
		}
	}
	if sealed == nil {
		items, err := s.store.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, key, items)
		return items, nil
	}
	items, err := sealed.ListSealed(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, items)
	return s.open(sealed, items)
}

func (s *Service[T, P]) fill(ctx context.Context, key string, items []T) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, items, s.opts.ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service[T, P]) open(sealed SealedLister[T], items []T) ([]T, error) {
	if sealed == nil {
		return items, nil
	}
	for i := range items {
		if err := sealed.Open(&items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Service[T, P]) Get(ctx context.Context, userID, id int) (T, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *Service[T, P]) Create(ctx context.Context, userID int, v *T) error {
	if err := P(v).Validate(); err != nil {
		return err
	}
	if err := s.store.Create(ctx, userID, v); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service[T, P]) Update(ctx context.Context, userID, id int, v *T) error {
	if err := P(v).Validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, userID, id, v); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service[T, P]) Delete(ctx context.Context, userID, id int) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached lists of this entity and its dependents for userID.
// Writes that bypass the service (bulk import) call it directly.
func (s *Service[T, P]) Invalidate(ctx context.Context, userID int) {
	s.invalidate(ctx, userID)
}

func (s *Service[T, P]) invalidate(ctx context.Context, userID int) {
	if s.cache == nil {
		return
	}
	keys := []string{CacheKey(s.entity, userID)}
	for _, dep := range s.opts.dependents {
		keys = append(keys, CacheKey(dep, userID))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Error("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
