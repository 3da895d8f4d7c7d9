package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"recipe-api/domain"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "entity not found" }
func (notFoundError) NotFound()     {}

const analysisPartition = "recipe"

// Storage provides access to the underlying persistence mechanisms.
type Storage struct {
	favoritesTable   *aztables.Client
	collectionsTable *aztables.Client
	notesTable       *aztables.Client
	analysesTable    *aztables.Client
	analysisQueue    *azqueue.QueueClient
}

// Tables names the table and queue resources backing a Storage.
type Tables struct {
	Favorites     string
	Collections   string
	Notes         string
	Analyses      string
	AnalysisQueue string
}

// New creates a Storage instance from the given connection string.
func New(connStr string, tables Tables) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, tables.AnalysisQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		favoritesTable:   svc.NewClient(tables.Favorites),
		collectionsTable: svc.NewClient(tables.Collections),
		notesTable:       svc.NewClient(tables.Notes),
		analysesTable:    svc.NewClient(tables.Analyses),
		analysisQueue:    q,
	}, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// quoteFilterValue escapes a value for use inside an OData filter literal.
func quoteFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

type favoriteEntity struct {
	aztables.Entity
	Title   string `json:"Title"`
	Image   string `json:"Image"`
	SavedAt int64  `json:"SavedAt"`
}

// ListFavorites retrieves all favourites for the provided user.
func (s *Storage) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	filter := "PartitionKey eq '" + quoteFilterValue(userID) + "'"
	pager := s.favoritesTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	favorites := []domain.Favorite{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent favoriteEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			recipeID, err := strconv.Atoi(ent.RowKey)
			if err != nil {
				return nil, fmt.Errorf("favorite row key %q: %w", ent.RowKey, err)
			}
			favorites = append(favorites, domain.Favorite{
				RecipeID: recipeID,
				Title:    ent.Title,
				Image:    ent.Image,
				SavedAt:  ent.SavedAt,
			})
		}
	}
	return favorites, nil
}

// SaveFavorite upserts a favourite for the user.
func (s *Storage) SaveFavorite(ctx context.Context, userID string, fav domain.Favorite) error {
	ent := favoriteEntity{
		Entity:  aztables.Entity{PartitionKey: userID, RowKey: strconv.Itoa(fav.RecipeID)},
		Title:   fav.Title,
		Image:   fav.Image,
		SavedAt: fav.SavedAt,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.favoritesTable.UpsertEntity(ctx, payload, nil)
	return err
}

// DeleteFavorite removes a favourite; ErrNotFound when it does not exist.
func (s *Storage) DeleteFavorite(ctx context.Context, userID string, recipeID int) error {
	_, err := s.favoritesTable.DeleteEntity(ctx, userID, strconv.Itoa(recipeID), nil)
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

type collectionEntity struct {
	aztables.Entity
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Recipes     string `json:"Recipes"`
	CreatedAt   int64  `json:"CreatedAt"`
	UpdatedAt   int64  `json:"UpdatedAt"`
}

func (e collectionEntity) collection() (domain.Collection, error) {
	recipes := []domain.SavedRecipe{}
	if e.Recipes != "" {
		if err := json.Unmarshal([]byte(e.Recipes), &recipes); err != nil {
			return domain.Collection{}, fmt.Errorf("collection %s recipes: %w", e.RowKey, err)
		}
	}
	return domain.Collection{
		ID:          e.RowKey,
		Name:        e.Name,
		Description: e.Description,
		Recipes:     recipes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func collectionToEntity(userID string, col domain.Collection) (collectionEntity, error) {
	recipes := col.Recipes
	if recipes == nil {
		recipes = []domain.SavedRecipe{}
	}
	data, err := json.Marshal(recipes)
	if err != nil {
		return collectionEntity{}, err
	}
	return collectionEntity{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: col.ID},
		Name:        col.Name,
		Description: col.Description,
		Recipes:     string(data),
		CreatedAt:   col.CreatedAt,
		UpdatedAt:   col.UpdatedAt,
	}, nil
}

// ListCollections retrieves all collections for the provided user.
func (s *Storage) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	filter := "PartitionKey eq '" + quoteFilterValue(userID) + "'"
	pager := s.collectionsTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	collections := []domain.Collection{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent collectionEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			col, err := ent.collection()
			if err != nil {
				return nil, err
			}
			collections = append(collections, col)
		}
	}
	return collections, nil
}

// GetCollection retrieves one collection; ErrNotFound for unknown ids.
func (s *Storage) GetCollection(ctx context.Context, userID, id string) (domain.Collection, error) {
	resp, err := s.collectionsTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Collection{}, ErrNotFound
		}
		return domain.Collection{}, err
	}
	var ent collectionEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Collection{}, err
	}
	return ent.collection()
}

// CreateCollection stores a new collection.
func (s *Storage) CreateCollection(ctx context.Context, userID string, col domain.Collection) error {
	ent, err := collectionToEntity(userID, col)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.collectionsTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdateCollection replaces an existing collection; ErrNotFound when absent.
func (s *Storage) UpdateCollection(ctx context.Context, userID string, col domain.Collection) error {
	ent, err := collectionToEntity(userID, col)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.collectionsTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
		IfMatch:    &et,
		UpdateMode: aztables.UpdateModeReplace,
	})
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

// DeleteCollection removes a collection; ErrNotFound when absent.
func (s *Storage) DeleteCollection(ctx context.Context, userID, id string) error {
	_, err := s.collectionsTable.DeleteEntity(ctx, userID, id, nil)
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

type noteEntity struct {
	aztables.Entity
	RecipeID  int    `json:"RecipeID"`
	Text      string `json:"Text"`
	CreatedAt int64  `json:"CreatedAt"`
	UpdatedAt int64  `json:"UpdatedAt"`
}

func (e noteEntity) note() domain.Note {
	return domain.Note{
		ID:        e.RowKey,
		RecipeID:  e.RecipeID,
		Text:      e.Text,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ListNotes retrieves the user's notes, optionally filtered by recipe.
func (s *Storage) ListNotes(ctx context.Context, userID string, recipeID int) ([]domain.Note, error) {
	filter := "PartitionKey eq '" + quoteFilterValue(userID) + "'"
	if recipeID > 0 {
		filter += " and RecipeID eq " + strconv.Itoa(recipeID)
	}
	pager := s.notesTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	notes := []domain.Note{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent noteEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			notes = append(notes, ent.note())
		}
	}
	return notes, nil
}

// GetNote retrieves one note; ErrNotFound for unknown ids.
func (s *Storage) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	resp, err := s.notesTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Note{}, ErrNotFound
		}
		return domain.Note{}, err
	}
	var ent noteEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Note{}, err
	}
	return ent.note(), nil
}

// CreateNote stores a new note.
func (s *Storage) CreateNote(ctx context.Context, userID string, note domain.Note) error {
	return s.putNote(ctx, userID, note, false)
}

// UpdateNote replaces an existing note; ErrNotFound when absent.
func (s *Storage) UpdateNote(ctx context.Context, userID string, note domain.Note) error {
	return s.putNote(ctx, userID, note, true)
}

func (s *Storage) putNote(ctx context.Context, userID string, note domain.Note, replace bool) error {
	ent := noteEntity{
		Entity:    aztables.Entity{PartitionKey: userID, RowKey: note.ID},
		RecipeID:  note.RecipeID,
		Text:      note.Text,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	if !replace {
		_, err = s.notesTable.AddEntity(ctx, payload, nil)
		return err
	}
	et := azcore.ETagAny
	_, err = s.notesTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
		IfMatch:    &et,
		UpdateMode: aztables.UpdateModeReplace,
	})
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

// DeleteNote removes a note; ErrNotFound when absent.
func (s *Storage) DeleteNote(ctx context.Context, userID, id string) error {
	_, err := s.notesTable.DeleteEntity(ctx, userID, id, nil)
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

type analysisEntity struct {
	aztables.Entity
	Payload string `json:"Payload"`
}

// GetAnalysis retrieves the stored analysis for a recipe.
func (s *Storage) GetAnalysis(ctx context.Context, recipeID int) (domain.RecipeAnalysis, error) {
	resp, err := s.analysesTable.GetEntity(ctx, analysisPartition, strconv.Itoa(recipeID), nil)
	if err != nil {
		if isNotFound(err) {
			return domain.RecipeAnalysis{}, ErrNotFound
		}
		return domain.RecipeAnalysis{}, err
	}
	var ent analysisEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.RecipeAnalysis{}, err
	}
	var analysis domain.RecipeAnalysis
	if err := json.Unmarshal([]byte(ent.Payload), &analysis); err != nil {
		return domain.RecipeAnalysis{}, fmt.Errorf("analysis %d payload: %w", recipeID, err)
	}
	return analysis, nil
}

// PutAnalysis stores (or replaces) the analysis for a recipe.
func (s *Storage) PutAnalysis(ctx context.Context, analysis domain.RecipeAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	ent := analysisEntity{
		Entity:  aztables.Entity{PartitionKey: analysisPartition, RowKey: strconv.Itoa(analysis.RecipeID)},
		Payload: string(data),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.analysesTable.UpsertEntity(ctx, payload, nil)
	return err
}

// EnqueueAnalysis sends an analysis request to the work queue.
func (s *Storage) EnqueueAnalysis(ctx context.Context, req domain.AnalysisRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = s.analysisQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}

// QueuedAnalysis is a dequeued analysis request plus the receipt needed to
// delete it once processed.
type QueuedAnalysis struct {
	Request    domain.AnalysisRequest
	messageID  string
	popReceipt string
}

// DequeueAnalysis retrieves a single queued request, or nil when the queue
// is empty. Messages with unreadable payloads are deleted and skipped.
func (s *Storage) DequeueAnalysis(ctx context.Context) (*QueuedAnalysis, error) {
	resp, err := s.analysisQueue.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	msg := resp.Messages[0]
	q := &QueuedAnalysis{messageID: *msg.MessageID, popReceipt: *msg.PopReceipt}
	if err := json.Unmarshal([]byte(*msg.MessageText), &q.Request); err != nil {
		_ = s.DeleteAnalysisMessage(ctx, q)
		return nil, nil
	}
	return q, nil
}

// DeleteAnalysisMessage removes a processed message from the queue.
func (s *Storage) DeleteAnalysisMessage(ctx context.Context, q *QueuedAnalysis) error {
	_, err := s.analysisQueue.DeleteMessage(ctx, q.messageID, q.popReceipt, nil)
	return err
}
