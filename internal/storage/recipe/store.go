package recipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mealplan-generator/internal/infrastructure/config"
)

// ErrNotFound is returned when a recipe does not exist or belongs to
// another owner.
var ErrNotFound = errors.New("recipe not found")

// Store is the persistence interface for recipes. Inserts are independent,
// concurrent inserts never block each other beyond driver-level locking.
type Store interface {
	Insert(ctx context.Context, rec *Recipe, retention time.Duration) (*Recipe, error)
	UpdateDurableImage(ctx context.Context, id uuid.UUID, durableURL string) error
	SetFavorite(ctx context.Context, ownerID string, id uuid.UUID, favorite bool, extend time.Duration) (*Recipe, error)
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*Recipe, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Recipe, error)
}

type gormStore struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Recipe{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// NewStore creates a gorm-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Insert saves a new recipe, setting identity, timestamps and the expiry
// boundary. Favorite state starts cleared.
func (s *gormStore) Insert(ctx context.Context, rec *Recipe, retention time.Duration) (*Recipe, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.ExpiresAt = now.Add(retention)
	rec.Favorite = false
	rec.UsageCount = 0

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return rec, nil
}

// UpdateDurableImage patches the durable image reference in place. The row
// may be long past its request lifecycle by the time this runs.
func (s *gormStore) UpdateDurableImage(ctx context.Context, id uuid.UUID, durableURL string) error {
	result := s.db.WithContext(ctx).
		Model(&Recipe{}).
		Where("id = ?", id).
		Update("durable_image_url", durableURL)
	if result.Error != nil {
		return fmt.Errorf("failed to update durable image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFavorite flips the favorite flag. Favoriting extends the expiry
// boundary by the retention window so the row outlives the normal sweep.
func (s *gormStore) SetFavorite(ctx context.Context, ownerID string, id uuid.UUID, favorite bool, extend time.Duration) (*Recipe, error) {
	rec, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"favorite": favorite}
	if favorite {
		updates["expires_at"] = time.Now().Add(extend)
	}

	if err := s.db.WithContext(ctx).Model(rec).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update favorite: %w", err)
	}
	return rec, nil
}

func (s *gormStore) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*Recipe, error) {
	var rec Recipe
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}
	return &rec, nil
}

// ListByOwner returns the owner's live recipes, favorites included even when
// expired. Ordered newest first.
func (s *gormStore) ListByOwner(ctx context.Context, ownerID string) ([]*Recipe, error) {
	var recs []*Recipe
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND (expires_at > ? OR favorite = ?)", ownerID, time.Now(), true).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recs, nil
}

// UsedNames extracts the distinct recipe names from a history snapshot.
func UsedNames(history []*Recipe) []string {
	seen := make(map[string]struct{}, len(history))
	names := make([]string, 0, len(history))
	for _, rec := range history {
		if _, ok := seen[rec.Name]; ok {
			continue
		}
		seen[rec.Name] = struct{}{}
		names = append(names, rec.Name)
	}
	return names
}

// CuisineCounts tallies cuisine usage from a history snapshot.
func CuisineCounts(history []*Recipe) map[string]int {
	counts := make(map[string]int)
	for _, rec := range history {
		if rec.Cuisine == "" {
			continue
		}
		counts[rec.Cuisine]++
	}
	return counts
}
