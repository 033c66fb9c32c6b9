package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

var ErrResumeNotFound = errors.New("resume not found")

const MaxHistoryLimit = 100

type ResumeRepository interface {
	Create(ctx context.Context, record *models.ResumeRecord) error
	FindByID(ctx context.Context, id string) (*models.ResumeRecord, error)
	FindRecent(ctx context.Context, userID string, limit int) ([]models.ResumeRecord, error)
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) Create(ctx context.Context, record *models.ResumeRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create resume record: %w", err)
	}
	return nil
}

func (r *resumeRepository) FindByID(ctx context.Context, id string) (*models.ResumeRecord, error) {
	var record models.ResumeRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("failed to find resume record: %w", err)
	}
	return &record, nil
}

// FindRecent lists the newest records first. An empty userID lists
// anonymous and identified uploads alike.
func (r *resumeRepository) FindRecent(ctx context.Context, userID string, limit int) ([]models.ResumeRecord, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = 20
	}

	query := r.db.WithContext(ctx)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var records []models.ResumeRecord
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list resume records: %w", err)
	}

	return records, nil
}
