package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/models"
)

// SubmissionRepository exposes persistence helpers for judged submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	Latest(ctx context.Context, studentID, problemID uint) (models.Submission, error)
	GetBySnapshot(ctx context.Context, studentID, problemID uint, submissionNum int) (models.Submission, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Latest(ctx context.Context, studentID, problemID uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND problem_id = ?", studentID, problemID).
		Order("submission_num desc").
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetBySnapshot(ctx context.Context, studentID, problemID uint, submissionNum int) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND problem_id = ? AND submission_num = ?", studentID, problemID, submissionNum).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}
