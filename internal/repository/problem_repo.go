package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/models"
)

// ProblemRepository exposes persistence helpers for debugging problems.
type ProblemRepository interface {
	List(ctx context.Context) ([]models.Problem, error)
	GetByID(ctx context.Context, id uint) (models.Problem, error)
}

// NewProblemRepository constructs a problem repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

type problemRepository struct {
	db *gorm.DB
}

func (r *problemRepository) List(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	err := r.db.WithContext(ctx).Order("id asc").Find(&problems).Error
	return problems, err
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	err := r.db.WithContext(ctx).First(&problem, id).Error
	if err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}
