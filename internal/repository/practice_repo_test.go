package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/codacad/debug-coach-api/internal/models"
)

func TestPracticeRepositoryScopesAnswersToStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPracticeRepository(db)
	ctx := context.Background()

	questions := []models.PracticeQuestion{
		{StudentID: 1, ProblemID: 9, Prompt: "Why did the loop overrun?", Options: datatypes.JSON([]byte(`["a","b","c"]`)), CorrectIndex: 1},
		{StudentID: 1, ProblemID: 9, Prompt: "Which guard fixes it?", Options: datatypes.JSON([]byte(`["a","b"]`)), CorrectIndex: 0},
	}
	require.NoError(t, repo.CreateQuestions(ctx, questions))

	require.NoError(t, repo.SaveAnswer(ctx, &models.PracticeAnswer{QuestionID: questions[0].ID, StudentID: 1, ChoiceIndex: 1, Correct: true}))
	require.NoError(t, repo.SaveAnswer(ctx, &models.PracticeAnswer{QuestionID: questions[0].ID, StudentID: 2, ChoiceIndex: 0, Correct: false}))

	listed, err := repo.ListForProblem(ctx, 1, 9)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Len(t, listed[0].Answers, 1, "only the owning student's answers are loaded")
	require.True(t, listed[0].Answers[0].Correct)
	require.Empty(t, listed[1].Answers)

	question, err := repo.GetQuestion(ctx, questions[0].ID)
	require.NoError(t, err)
	require.Equal(t, 1, question.CorrectIndex)
}
