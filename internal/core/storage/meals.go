package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"meal-cost-analyzer/internal/infrastructure/config"
	"meal-cost-analyzer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Repository persists finalized analyses in redis. The analysis core does
// not know about it beyond handing over a MealAnalysis plus metadata; when
// storage is disabled every method reports ErrStorageDisabled and the rest
// of the service keeps working.
type Repository struct {
	client *redis.Client
	config *config.StorageConfig
}

// NewRepository creates the saved-meal repository. Disabled config yields a
// repository whose methods fail fast without touching the network.
func NewRepository(cfg *config.StorageConfig) (*Repository, error) {
	if !cfg.Enabled {
		common.LogInfo("meal storage disabled")
		return &Repository{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	common.LogInfo("meal storage initialized",
		zap.String("redis_addr", cfg.RedisAddr),
		zap.Int("redis_db", cfg.RedisDB),
	)

	return &Repository{
		client: client,
		config: cfg,
	}, nil
}

// Enabled reports whether the repository is backed by redis
func (r *Repository) Enabled() bool {
	return r.config.Enabled && r.client != nil
}

// Save stores a finalized analysis with its metadata and returns the record
func (r *Repository) Save(ctx context.Context, analysis *common.MealAnalysis, imageURL string, homeCooked bool) (*common.SavedMeal, error) {
	if !r.Enabled() {
		return nil, common.ErrStorageDisabled
	}

	meal := &common.SavedMeal{
		ID:                       common.GenerateUUID(),
		Meal:                     analysis.Meal,
		ImageURL:                 imageURL,
		Recipe:                   analysis.Recipe,
		EstimatedHomeCookedPrice: analysis.EstimatedHomeCookedPrice,
		RestaurantPrice:          analysis.RestaurantPrice,
		Saving:                   analysis.Saving,
		HomeCooked:               homeCooked,
		CreatedAt:                time.Now().UTC(),
	}

	data, err := json.Marshal(meal)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meal: %w", err)
	}

	if err := r.client.HSet(ctx, r.key(), meal.ID, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}

	common.LogInfo("meal saved",
		zap.String("id", meal.ID),
		zap.String("meal", meal.Meal),
		zap.Float64("saving", meal.Saving),
	)

	return meal, nil
}

// List returns all saved meals, newest first
func (r *Repository) List(ctx context.Context) ([]common.SavedMeal, error) {
	if !r.Enabled() {
		return nil, common.ErrStorageDisabled
	}

	entries, err := r.client.HGetAll(ctx, r.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	meals := make([]common.SavedMeal, 0, len(entries))
	for id, raw := range entries {
		var meal common.SavedMeal
		if err := json.Unmarshal([]byte(raw), &meal); err != nil {
			common.LogWarn("skipping corrupt saved meal",
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		meals = append(meals, meal)
	}

	sort.Slice(meals, func(i, j int) bool {
		return meals[i].CreatedAt.After(meals[j].CreatedAt)
	})

	return meals, nil
}

// History aggregates saved meals into a per-day savings series, oldest day
// first
func (r *Repository) History(ctx context.Context) ([]common.SavingsPoint, error) {
	meals, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*common.SavingsPoint)
	for _, meal := range meals {
		day := meal.CreatedAt.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &common.SavingsPoint{Date: day}
			byDay[day] = point
		}
		point.TotalSavings += meal.Saving
		point.MealCount++
	}

	history := make([]common.SavingsPoint, 0, len(byDay))
	for _, point := range byDay {
		point.TotalSavings = roundCents(point.TotalSavings)
		history = append(history, *point)
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})

	return history, nil
}

// Delete removes a saved meal by ID
func (r *Repository) Delete(ctx context.Context, id string) error {
	if !r.Enabled() {
		return common.ErrStorageDisabled
	}

	removed, err := r.client.HDel(ctx, r.key(), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if removed == 0 {
		return common.ErrMealNotFound
	}

	common.LogInfo("meal deleted", zap.String("id", id))
	return nil
}

// Close closes the redis connection
func (r *Repository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Repository) key() string {
	return r.config.KeyPrefix + ":meals"
}

// roundCents keeps aggregated totals at display precision
func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
