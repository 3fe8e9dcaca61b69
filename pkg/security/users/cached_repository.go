package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CachedRepository decorates another Repository with a read-through cache on user lookups.
// Writes always go to the underlying repository and invalidate the related cache entries.
type CachedRepository struct {
	next  Repository
	cache connector.Cache
	ttl   time.Duration
}

// NewCachedRepository returns a new instance of CachedRepository wrapping the given repository
func NewCachedRepository(next Repository, cache connector.Cache, ttl time.Duration) Repository {
	r := CachedRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
	var ifm Repository = &r
	return ifm
}

// Authenticate always hits the underlying repository, credentials are never cached
func (r *CachedRepository) Authenticate(login string, password string) (User, bool, error) {
	return r.next.Authenticate(login, password)
}

// Get search and returns an User by its id, from the cache when possible
func (r *CachedRepository) Get(userUUID uuid.UUID) (User, bool, error) {
	key := cacheKeyID(userUUID)
	if user, found := r.lookup(key); found {
		return user, true, nil
	}
	user, found, err := r.next.Get(userUUID)
	if err != nil || !found {
		return user, found, err
	}
	r.store(key, user)
	return user, true, nil
}

// GetByLogin search and returns an User by its login, from the cache when possible
func (r *CachedRepository) GetByLogin(login string) (User, bool, error) {
	key := cacheKeyLogin(login)
	if user, found := r.lookup(key); found {
		return user, true, nil
	}
	user, found, err := r.next.GetByLogin(login)
	if err != nil || !found {
		return user, found, err
	}
	r.store(key, user)
	return user, true, nil
}

// Create creates a new User in the underlying repository
func (r *CachedRepository) Create(user UserWithPassword) (uuid.UUID, error) {
	return r.next.Create(user)
}

// Update updates an User in the underlying repository and invalidates its cache entries
func (r *CachedRepository) Update(user User) error {
	if err := r.next.Update(user); err != nil {
		return err
	}
	r.invalidate(user.ID, user.Login)
	return nil
}

// UpdatePassword replaces the password of an User in the underlying repository
func (r *CachedRepository) UpdatePassword(userUUID uuid.UUID, password string) error {
	return r.next.UpdatePassword(userUUID, password)
}

// Delete deletes an User in the underlying repository and invalidates its cache entries
func (r *CachedRepository) Delete(userUUID uuid.UUID) error {
	user, found, err := r.next.Get(userUUID)
	if err != nil {
		return err
	}
	if err := r.next.Delete(userUUID); err != nil {
		return err
	}
	if found {
		r.invalidate(user.ID, user.Login)
	}
	return nil
}

// List always hits the underlying repository, pages are not cached
func (r *CachedRepository) List(options dbutils.DBQueryOptionnal) ([]User, error) {
	return r.next.List(options)
}

func (r *CachedRepository) lookup(key string) (User, bool) {
	raw, err := r.cache.Get(context.Background(), key)
	if err != nil {
		if err != connector.ErrKeyNotFound {
			zap.L().Warn("Cache lookup", zap.String("key", key), zap.Error(err))
		}
		return User{}, false
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		zap.L().Warn("Cache entry unmarshal", zap.String("key", key), zap.Error(err))
		return User{}, false
	}
	return user, true
}

func (r *CachedRepository) store(key string, user User) {
	raw, err := json.Marshal(user)
	if err != nil {
		zap.L().Warn("Cache entry marshal", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.cache.Set(context.Background(), key, string(raw), r.ttl); err != nil {
		zap.L().Warn("Cache store", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedRepository) invalidate(userUUID uuid.UUID, login string) {
	for _, key := range []string{cacheKeyID(userUUID), cacheKeyLogin(login)} {
		if err := r.cache.Delete(context.Background(), key); err != nil && err != connector.ErrKeyNotFound {
			zap.L().Warn("Cache invalidation", zap.String("key", key), zap.Error(err))
		}
	}
}

func cacheKeyID(userUUID uuid.UUID) string {
	return "users:id:" + userUUID.String()
}

func cacheKeyLogin(login string) string {
	return "users:login:" + login
}
