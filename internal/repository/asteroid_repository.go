package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neowatch/internal/models"
)

//go:generate mockgen -source=asteroid_repository.go -destination=mocks/asteroid_repository_mock.go -package=mocks

type AsteroidRepository interface {
	PersistBatch(ctx context.Context, batch *models.Batch) (*models.PersistStats, error)
	CountAsteroids(ctx context.Context) (int64, error)
	CountApproaches(ctx context.Context) (int64, error)
}

type asteroidRepository struct {
	db *gorm.DB
}

func NewAsteroidRepository(db *gorm.DB) AsteroidRepository {
	return &asteroidRepository{db: db}
}

var (
	asteroidConflict = clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}
	approachConflict = clause.OnConflict{
		Columns:   []clause.Column{{Name: "asteroid_id"}, {Name: "epoch_date_close_approach"}},
		DoNothing: true,
	}
)

// PersistBatch записывает батч в одной транзакции: сначала астероид, затем его сближение.
// Существующие строки не изменяются.
func (r *asteroidRepository) PersistBatch(ctx context.Context, batch *models.Batch) (*models.PersistStats, error) {
	if batch == nil || len(batch.Items) == 0 {
		return &models.PersistStats{}, nil
	}

	var stats models.PersistStats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats = models.PersistStats{}

		for _, item := range batch.Items {
			asteroid := item.Asteroid
			asteroid.Approaches = nil

			res := tx.Omit(clause.Associations).Clauses(asteroidConflict).Create(&asteroid)
			if res.Error != nil {
				return fmt.Errorf("insert asteroid %s: %w", asteroid.ID, res.Error)
			}
			if res.RowsAffected > 0 {
				stats.AsteroidsInserted++
			} else {
				stats.AsteroidsExisting++
			}

			if item.Approach == nil {
				continue
			}

			approach := *item.Approach
			approach.ID = 0
			approach.AsteroidID = asteroid.ID

			res = tx.Clauses(approachConflict).Create(&approach)
			if res.Error != nil {
				return fmt.Errorf("insert close approach %s@%d: %w", approach.AsteroidID, approach.EpochDateCloseApproach, res.Error)
			}
			if res.RowsAffected > 0 {
				stats.ApproachesInserted++
			} else {
				stats.ApproachesExisting++
			}
		}
		return nil
	})
	if err != nil {
		return nil, classifyPersistError(batch.Window, err)
	}

	return &stats, nil
}

func (r *asteroidRepository) CountAsteroids(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Asteroid{}).
		Count(&count).
		Error
	return count, err
}

func (r *asteroidRepository) CountApproaches(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CloseApproach{}).
		Count(&count).
		Error
	return count, err
}
