package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/kmf-ai/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *MemoryQuestionRepository {
	t.Helper()
	repo, err := LoadMemoryQuestionRepository("testdata/questions.json", 0)
	require.NoError(t, err)
	return repo
}

func ids(questions []model.Question) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestMemory_Subjects(t *testing.T) {
	repo := loadFixture(t)

	subjects, err := repo.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"chemistry", "english", "mathematics"}, subjects)
}

func TestMemory_BySubjectOrdering(t *testing.T) {
	repo := loadFixture(t)

	questions, err := repo.BySubject(context.Background(), "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"math-2023-p1-q1",
		"math-2023-p1-q2",
		"math-2023-p2-q1",
		"math-2022-p1-q1",
		"math-2022-p1-q5",
	}, ids(questions))
}

func TestMemory_Filters(t *testing.T) {
	repo := loadFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		get  func() ([]model.Question, error)
		want []string
	}{
		{
			name: "year",
			get:  func() ([]model.Question, error) { return repo.BySubjectAndYear(ctx, "mathematics", 2022) },
			want: []string{"math-2022-p1-q1", "math-2022-p1-q5"},
		},
		{
			name: "paper",
			get:  func() ([]model.Question, error) { return repo.BySubjectYearPaper(ctx, "mathematics", 2023, "Paper 1") },
			want: []string{"math-2023-p1-q1", "math-2023-p1-q2"},
		},
		{
			name: "topic substring ignores case",
			get:  func() ([]model.Question, error) { return repo.ByTopic(ctx, "mathematics", "ALGEBRA") },
			want: []string{"math-2023-p1-q1", "math-2022-p1-q5"},
		},
		{
			name: "topic is literal",
			get:  func() ([]model.Question, error) { return repo.ByTopic(ctx, "mathematics", "Alg.*") },
			want: []string{},
		},
		{
			name: "difficulty",
			get:  func() ([]model.Question, error) { return repo.ByDifficulty(ctx, "mathematics", model.DifficultyMedium) },
			want: []string{"math-2023-p1-q2", "math-2022-p1-q5"},
		},
		{
			name: "form",
			get:  func() ([]model.Question, error) { return repo.ByForm(ctx, "chemistry", 4) },
			want: []string{"chem-2021-p2-q3"},
		},
		{
			name: "unknown subject",
			get:  func() ([]model.Question, error) { return repo.BySubject(ctx, "physics") },
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := tt.get()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(questions))
		})
	}
}

func TestMemory_SearchWithinSubject(t *testing.T) {
	repo := loadFixture(t)

	questions, err := repo.Search(context.Background(), "factorise", "mathematics")
	require.NoError(t, err)
	assert.Equal(t, []string{"math-2023-p1-q2"}, ids(questions))
}

func TestMemory_SearchAllSubjectsSortedByYear(t *testing.T) {
	repo := loadFixture(t)

	questions, err := repo.Search(context.Background(), "equation", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"math-2023-p1-q2", "eng-2022-p3-q1"}, ids(questions))
}

func TestMemory_SearchAllSubjectsCapsEachSubject(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQuestionRepository(20)

	for i := 0; i < 25; i++ {
		require.NoError(t, repo.Insert(ctx, "physics", model.Question{
			ID:             fmt.Sprintf("phy-%d", i),
			Year:           2000 + i,
			Paper:          "Paper 1",
			QuestionNumber: 1,
			Question:       model.QuestionBody{Text: "Define velocity."},
		}))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, "biology", model.Question{
			ID:             fmt.Sprintf("bio-%d", i),
			Year:           2030,
			Paper:          "Paper 1",
			QuestionNumber: i + 1,
			Question:       model.QuestionBody{Text: "Explain why velocity of blood drops in capillaries."},
		}))
	}

	questions, err := repo.Search(ctx, "velocity", "")
	require.NoError(t, err)
	require.Len(t, questions, 23)

	// biology's 2030 questions lead, in their per-subject order.
	assert.Equal(t, []string{"bio-0", "bio-1", "bio-2"}, ids(questions[:3]))
	// physics keeps only its 20 newest.
	assert.Equal(t, "phy-24", questions[3].ID)
	assert.Equal(t, "phy-5", questions[22].ID)

	for i := 1; i < len(questions); i++ {
		assert.GreaterOrEqual(t, questions[i-1].Year, questions[i].Year)
	}
}

func TestMemory_ByID(t *testing.T) {
	repo := loadFixture(t)
	ctx := context.Background()

	q, err := repo.ByID(ctx, "chem-2021-p2-q3")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "Organic Chemistry", q.Topic)

	missing, err := repo.ByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_CatalogueLookups(t *testing.T) {
	repo := loadFixture(t)
	ctx := context.Background()

	years, err := repo.Years(ctx, "mathematics")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2022}, years)

	papers, err := repo.Papers(ctx, "mathematics", 2023)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paper 1", "Paper 2"}, papers)

	topics, err := repo.Topics(ctx, "mathematics")
	require.NoError(t, err)
	assert.Equal(t, []string{"Algebra", "Algebraic Fractions", "Calculus", "Number Theory", "Quadratic Equations"}, topics)
}

func TestMemory_Stats(t *testing.T) {
	repo := loadFixture(t)

	stats, err := repo.Stats(context.Background(), "mathematics")
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalQuestions)
	assert.Equal(t, []int{2023, 2022}, stats.Years)
	assert.Equal(t, []string{"Paper 1", "Paper 2"}, stats.Papers)
	assert.Equal(t, model.DifficultyBreakdown{Easy: 2, Medium: 2, Hard: 1}, stats.Difficulties)
}

func TestMemory_InsertRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQuestionRepository(0)

	n, err := repo.InsertMany(ctx, "Physics", []model.Question{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	assert.Error(t, err)
	assert.Equal(t, 2, n)

	q, err := repo.ByID(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "physics", q.Subject)
	assert.NotNil(t, q.CreatedAt)
}

func TestLoadMemoryQuestionRepository_MissingFile(t *testing.T) {
	_, err := LoadMemoryQuestionRepository("testdata/absent.json", 0)
	assert.Error(t, err)
}
