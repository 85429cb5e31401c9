package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/models"
)

// PracticeRepository exposes persistence helpers for practice questions and
// recorded answers.
type PracticeRepository interface {
	CreateQuestions(ctx context.Context, questions []models.PracticeQuestion) error
	ListForProblem(ctx context.Context, studentID, problemID uint) ([]models.PracticeQuestion, error)
	GetQuestion(ctx context.Context, id uint) (models.PracticeQuestion, error)
	SaveAnswer(ctx context.Context, answer *models.PracticeAnswer) error
}

// NewPracticeRepository constructs a practice repository.
func NewPracticeRepository(db *gorm.DB) PracticeRepository {
	return &practiceRepository{db: db}
}

type practiceRepository struct {
	db *gorm.DB
}

func (r *practiceRepository) CreateQuestions(ctx context.Context, questions []models.PracticeQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *practiceRepository) ListForProblem(ctx context.Context, studentID, problemID uint) ([]models.PracticeQuestion, error) {
	var questions []models.PracticeQuestion
	err := r.db.WithContext(ctx).
		Preload("Answers", "student_id = ?", studentID).
		Where("student_id = ? AND problem_id = ?", studentID, problemID).
		Order("id asc").
		Find(&questions).Error
	return questions, err
}

func (r *practiceRepository) GetQuestion(ctx context.Context, id uint) (models.PracticeQuestion, error) {
	var question models.PracticeQuestion
	err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&question, id).Error
	if err != nil {
		return models.PracticeQuestion{}, err
	}
	return question, nil
}

func (r *practiceRepository) SaveAnswer(ctx context.Context, answer *models.PracticeAnswer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}
