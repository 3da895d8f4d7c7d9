package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"recipe-api/domain"
)

type backend interface {
	ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error)
	SaveFavorite(ctx context.Context, userID string, fav domain.Favorite) error
	DeleteFavorite(ctx context.Context, userID string, recipeID int) error

	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	GetCollection(ctx context.Context, userID, id string) (domain.Collection, error)
	CreateCollection(ctx context.Context, userID string, col domain.Collection) error
	UpdateCollection(ctx context.Context, userID string, col domain.Collection) error
	DeleteCollection(ctx context.Context, userID, id string) error

	ListNotes(ctx context.Context, userID string, recipeID int) ([]domain.Note, error)
	GetNote(ctx context.Context, userID, id string) (domain.Note, error)
	CreateNote(ctx context.Context, userID string, note domain.Note) error
	UpdateNote(ctx context.Context, userID string, note domain.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
}

// Cache wraps a Storage instance with Redis-backed caching for user-scoped
// reads. Every mutation evicts exactly the keys it can have affected.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	var favorites []domain.Favorite
	if c.load(ctx, favoritesKey(userID), &favorites) {
		return favorites, nil
	}
	favorites, err := c.base.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, favoritesKey(userID), favorites)
	return favorites, nil
}

func (c *Cache) SaveFavorite(ctx context.Context, userID string, fav domain.Favorite) error {
	if err := c.base.SaveFavorite(ctx, userID, fav); err != nil {
		return err
	}
	c.evict(ctx, favoritesKey(userID))
	return nil
}

func (c *Cache) DeleteFavorite(ctx context.Context, userID string, recipeID int) error {
	if err := c.base.DeleteFavorite(ctx, userID, recipeID); err != nil {
		return err
	}
	c.evict(ctx, favoritesKey(userID))
	return nil
}

func (c *Cache) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	var collections []domain.Collection
	if c.load(ctx, collectionsKey(userID), &collections) {
		return collections, nil
	}
	collections, err := c.base.ListCollections(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, collectionsKey(userID), collections)
	return collections, nil
}

func (c *Cache) GetCollection(ctx context.Context, userID, id string) (domain.Collection, error) {
	var col domain.Collection
	if c.load(ctx, collectionKey(userID, id), &col) {
		return col, nil
	}
	col, err := c.base.GetCollection(ctx, userID, id)
	if err != nil {
		return domain.Collection{}, err
	}
	c.store(ctx, collectionKey(userID, id), col)
	return col, nil
}

func (c *Cache) CreateCollection(ctx context.Context, userID string, col domain.Collection) error {
	if err := c.base.CreateCollection(ctx, userID, col); err != nil {
		return err
	}
	c.evict(ctx, collectionsKey(userID))
	return nil
}

func (c *Cache) UpdateCollection(ctx context.Context, userID string, col domain.Collection) error {
	if err := c.base.UpdateCollection(ctx, userID, col); err != nil {
		return err
	}
	c.evict(ctx, collectionsKey(userID), collectionKey(userID, col.ID))
	return nil
}

func (c *Cache) DeleteCollection(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteCollection(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, collectionsKey(userID), collectionKey(userID, id))
	return nil
}

// ListNotes caches only the unfiltered list; per-recipe queries hit the
// backing store directly.
func (c *Cache) ListNotes(ctx context.Context, userID string, recipeID int) ([]domain.Note, error) {
	if recipeID > 0 {
		return c.base.ListNotes(ctx, userID, recipeID)
	}
	var notes []domain.Note
	if c.load(ctx, notesKey(userID), &notes) {
		return notes, nil
	}
	notes, err := c.base.ListNotes(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	c.store(ctx, notesKey(userID), notes)
	return notes, nil
}

func (c *Cache) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	return c.base.GetNote(ctx, userID, id)
}

func (c *Cache) CreateNote(ctx context.Context, userID string, note domain.Note) error {
	if err := c.base.CreateNote(ctx, userID, note); err != nil {
		return err
	}
	c.evict(ctx, notesKey(userID))
	return nil
}

func (c *Cache) UpdateNote(ctx context.Context, userID string, note domain.Note) error {
	if err := c.base.UpdateNote(ctx, userID, note); err != nil {
		return err
	}
	c.evict(ctx, notesKey(userID))
	return nil
}

func (c *Cache) DeleteNote(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteNote(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, notesKey(userID))
	return nil
}

// load reads a cached value. Redis errors and undecodable payloads drop the
// key and report a miss so callers fall back to the backing store.
func (c *Cache) load(ctx context.Context, key string, v any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func favoritesKey(userID string) string   { return "favorites:" + userID }
func collectionsKey(userID string) string { return "collections:" + userID }
func notesKey(userID string) string       { return "notes:" + userID }

func collectionKey(userID, id string) string {
	return "collection:" + userID + ":" + id
}
