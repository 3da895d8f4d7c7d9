package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"recipe-api/domain"
)

type stubBackend struct {
	listFavoritesFn    func(ctx context.Context, userID string) ([]domain.Favorite, error)
	saveFavoriteFn     func(ctx context.Context, userID string, fav domain.Favorite) error
	deleteFavoriteFn   func(ctx context.Context, userID string, recipeID int) error
	listCollectionsFn  func(ctx context.Context, userID string) ([]domain.Collection, error)
	getCollectionFn    func(ctx context.Context, userID, id string) (domain.Collection, error)
	createCollectionFn func(ctx context.Context, userID string, col domain.Collection) error
	updateCollectionFn func(ctx context.Context, userID string, col domain.Collection) error
	deleteCollectionFn func(ctx context.Context, userID, id string) error
	listNotesFn        func(ctx context.Context, userID string, recipeID int) ([]domain.Note, error)
	getNoteFn          func(ctx context.Context, userID, id string) (domain.Note, error)
	createNoteFn       func(ctx context.Context, userID string, note domain.Note) error
	updateNoteFn       func(ctx context.Context, userID string, note domain.Note) error
	deleteNoteFn       func(ctx context.Context, userID, id string) error
}

func (s *stubBackend) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	if s.listFavoritesFn == nil {
		return nil, errors.New("unexpected ListFavorites call")
	}
	return s.listFavoritesFn(ctx, userID)
}

func (s *stubBackend) SaveFavorite(ctx context.Context, userID string, fav domain.Favorite) error {
	if s.saveFavoriteFn == nil {
		return errors.New("unexpected SaveFavorite call")
	}
	return s.saveFavoriteFn(ctx, userID, fav)
}

func (s *stubBackend) DeleteFavorite(ctx context.Context, userID string, recipeID int) error {
	if s.deleteFavoriteFn == nil {
		return errors.New("unexpected DeleteFavorite call")
	}
	return s.deleteFavoriteFn(ctx, userID, recipeID)
}

func (s *stubBackend) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	if s.listCollectionsFn == nil {
		return nil, errors.New("unexpected ListCollections call")
	}
	return s.listCollectionsFn(ctx, userID)
}

func (s *stubBackend) GetCollection(ctx context.Context, userID, id string) (domain.Collection, error) {
	if s.getCollectionFn == nil {
		return domain.Collection{}, errors.New("unexpected GetCollection call")
	}
	return s.getCollectionFn(ctx, userID, id)
}

func (s *stubBackend) CreateCollection(ctx context.Context, userID string, col domain.Collection) error {
	if s.createCollectionFn == nil {
		return errors.New("unexpected CreateCollection call")
	}
	return s.createCollectionFn(ctx, userID, col)
}

func (s *stubBackend) UpdateCollection(ctx context.Context, userID string, col domain.Collection) error {
	if s.updateCollectionFn == nil {
		return errors.New("unexpected UpdateCollection call")
	}
	return s.updateCollectionFn(ctx, userID, col)
}

func (s *stubBackend) DeleteCollection(ctx context.Context, userID, id string) error {
	if s.deleteCollectionFn == nil {
		return errors.New("unexpected DeleteCollection call")
	}
	return s.deleteCollectionFn(ctx, userID, id)
}

func (s *stubBackend) ListNotes(ctx context.Context, userID string, recipeID int) ([]domain.Note, error) {
	if s.listNotesFn == nil {
		return nil, errors.New("unexpected ListNotes call")
	}
	return s.listNotesFn(ctx, userID, recipeID)
}

func (s *stubBackend) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	if s.getNoteFn == nil {
		return domain.Note{}, errors.New("unexpected GetNote call")
	}
	return s.getNoteFn(ctx, userID, id)
}

func (s *stubBackend) CreateNote(ctx context.Context, userID string, note domain.Note) error {
	if s.createNoteFn == nil {
		return errors.New("unexpected CreateNote call")
	}
	return s.createNoteFn(ctx, userID, note)
}

func (s *stubBackend) UpdateNote(ctx context.Context, userID string, note domain.Note) error {
	if s.updateNoteFn == nil {
		return errors.New("unexpected UpdateNote call")
	}
	return s.updateNoteFn(ctx, userID, note)
}

func (s *stubBackend) DeleteNote(ctx context.Context, userID, id string) error {
	if s.deleteNoteFn == nil {
		return errors.New("unexpected DeleteNote call")
	}
	return s.deleteNoteFn(ctx, userID, id)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheListFavoritesMissThenHit(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	userID := "user-1"
	expected := []domain.Favorite{{RecipeID: 42, Title: "Shakshuka", SavedAt: 100}}

	var calls int
	cache := NewCache(&stubBackend{
		listFavoritesFn: func(ctx context.Context, uid string) ([]domain.Favorite, error) {
			calls++
			return expected, nil
		},
	}, client, time.Minute)

	got, err := cache.ListFavorites(ctx, userID)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected favorites: %#v", got)
	}

	got, err = cache.ListFavorites(ctx, userID)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected cached favorites: %#v", got)
	}
	if calls != 1 {
		t.Fatalf("expected one backend call, got %d", calls)
	}
}

func TestCacheSaveFavoriteEvicts(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	userID := "user-1"

	cache := NewCache(&stubBackend{
		listFavoritesFn: func(ctx context.Context, uid string) ([]domain.Favorite, error) {
			return []domain.Favorite{}, nil
		},
		saveFavoriteFn: func(ctx context.Context, uid string, fav domain.Favorite) error {
			return nil
		},
	}, client, time.Minute)

	if _, err := cache.ListFavorites(ctx, userID); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !mr.Exists(favoritesKey(userID)) {
		t.Fatalf("expected favorites key to be cached")
	}
	if err := cache.SaveFavorite(ctx, userID, domain.Favorite{RecipeID: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists(favoritesKey(userID)) {
		t.Fatalf("expected favorites key to be evicted on save")
	}
}

func TestCacheMutationErrorKeepsCache(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	userID := "user-1"

	cache := NewCache(&stubBackend{
		listFavoritesFn: func(ctx context.Context, uid string) ([]domain.Favorite, error) {
			return []domain.Favorite{}, nil
		},
		deleteFavoriteFn: func(ctx context.Context, uid string, recipeID int) error {
			return ErrNotFound
		},
	}, client, time.Minute)

	if _, err := cache.ListFavorites(ctx, userID); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := cache.DeleteFavorite(ctx, userID, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !mr.Exists(favoritesKey(userID)) {
		t.Fatalf("failed mutation must not evict the cache")
	}
}

func TestCachePoisonedEntryDropped(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	userID := "user-1"
	expected := []domain.Collection{{ID: "c1", Name: "Weeknight"}}

	var calls int
	cache := NewCache(&stubBackend{
		listCollectionsFn: func(ctx context.Context, uid string) ([]domain.Collection, error) {
			calls++
			return expected, nil
		},
	}, client, time.Minute)

	mr.Set(collectionsKey(userID), "{not json")

	got, err := cache.ListCollections(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected fallback to backend, got %d calls", calls)
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected collections: %#v", got)
	}
}

func TestCacheRedisDownFallsThrough(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	var calls int
	cache := NewCache(&stubBackend{
		listNotesFn: func(ctx context.Context, uid string, recipeID int) ([]domain.Note, error) {
			calls++
			return []domain.Note{{ID: "n1", RecipeID: 5, Text: "less salt"}}, nil
		},
	}, client, time.Minute)

	mr.Close()

	notes, err := cache.ListNotes(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list notes with redis down: %v", err)
	}
	if calls != 1 || len(notes) != 1 {
		t.Fatalf("expected backend fallback, calls=%d notes=%d", calls, len(notes))
	}
}

func TestCacheFilteredNotesBypass(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	var calls int
	cache := NewCache(&stubBackend{
		listNotesFn: func(ctx context.Context, uid string, recipeID int) ([]domain.Note, error) {
			calls++
			if recipeID != 5 {
				t.Errorf("expected recipe filter 5, got %d", recipeID)
			}
			return []domain.Note{}, nil
		},
	}, client, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.ListNotes(ctx, "user-1", 5); err != nil {
			t.Fatalf("list notes: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("filtered note queries must bypass the cache, got %d calls", calls)
	}
}

func TestCacheUpdateCollectionEvictsBothKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	userID := "user-1"
	col := domain.Collection{ID: "c1", Name: "Soups"}

	cache := NewCache(&stubBackend{
		listCollectionsFn: func(ctx context.Context, uid string) ([]domain.Collection, error) {
			return []domain.Collection{col}, nil
		},
		getCollectionFn: func(ctx context.Context, uid, id string) (domain.Collection, error) {
			return col, nil
		},
		updateCollectionFn: func(ctx context.Context, uid string, c domain.Collection) error {
			return nil
		},
	}, client, time.Minute)

	if _, err := cache.ListCollections(ctx, userID); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := cache.GetCollection(ctx, userID, "c1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !mr.Exists(collectionsKey(userID)) || !mr.Exists(collectionKey(userID, "c1")) {
		t.Fatalf("expected both keys cached")
	}

	col.Name = "Winter Soups"
	if err := cache.UpdateCollection(ctx, userID, col); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(collectionsKey(userID)) || mr.Exists(collectionKey(userID, "c1")) {
		t.Fatalf("expected both keys evicted on update")
	}
}

func TestCacheZeroTTLSkipsWrites(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache := NewCache(&stubBackend{
		listFavoritesFn: func(ctx context.Context, uid string) ([]domain.Favorite, error) {
			return []domain.Favorite{}, nil
		},
	}, client, 0)

	if _, err := cache.ListFavorites(ctx, "user-1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if mr.Exists(favoritesKey("user-1")) {
		t.Fatalf("zero TTL must not write cache entries")
	}
}
