package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/models"
)

// HelpRepository exposes persistence helpers for AI help reports and their
// chat transcripts.
type HelpRepository interface {
	CreateReport(ctx context.Context, report *models.HelpReport) error
	GetReport(ctx context.Context, studentID, problemID uint, submissionNum int) (models.HelpReport, error)
	LatestReport(ctx context.Context, studentID, problemID uint) (models.HelpReport, error)
	UpdateReportStatus(ctx context.Context, reportID uint, status, summary string) error
	DeleteReport(ctx context.Context, reportID uint) error
	AppendMessage(ctx context.Context, message *models.ChatMessage) error
}

// NewHelpRepository constructs a help repository.
func NewHelpRepository(db *gorm.DB) HelpRepository {
	return &helpRepository{db: db}
}

type helpRepository struct {
	db *gorm.DB
}

func (r *helpRepository) CreateReport(ctx context.Context, report *models.HelpReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *helpRepository) GetReport(ctx context.Context, studentID, problemID uint, submissionNum int) (models.HelpReport, error) {
	var report models.HelpReport
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.id asc")
		}).
		Where("student_id = ? AND problem_id = ? AND submission_num = ?", studentID, problemID, submissionNum).
		First(&report).Error
	if err != nil {
		return models.HelpReport{}, err
	}
	return report, nil
}

func (r *helpRepository) LatestReport(ctx context.Context, studentID, problemID uint) (models.HelpReport, error) {
	var report models.HelpReport
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.id asc")
		}).
		Where("student_id = ? AND problem_id = ?", studentID, problemID).
		Order("submission_num desc").
		First(&report).Error
	if err != nil {
		return models.HelpReport{}, err
	}
	return report, nil
}

func (r *helpRepository) UpdateReportStatus(ctx context.Context, reportID uint, status, summary string) error {
	updates := map[string]interface{}{"status": status}
	if summary != "" {
		updates["summary"] = summary
	}
	return r.db.WithContext(ctx).Model(&models.HelpReport{}).Where("id = ?", reportID).Updates(updates).Error
}

func (r *helpRepository) DeleteReport(ctx context.Context, reportID uint) error {
	return r.db.WithContext(ctx).Select("Messages").Delete(&models.HelpReport{ID: reportID}).Error
}

func (r *helpRepository) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}
