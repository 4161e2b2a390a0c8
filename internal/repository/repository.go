package repository

import (
	"context"

	"github.com/kmf-ai/server/internal/model"
)

// QuestionRepository is the read side of the exam question bank. Questions
// live in one collection per subject, named by the lowercased subject.
type QuestionRepository interface {
	// Subjects lists the subject collections, sorted by name.
	Subjects(ctx context.Context) ([]string, error)

	// BySubject returns every question of a subject, newest year first.
	BySubject(ctx context.Context, subject string) ([]model.Question, error)

	// BySubjectAndYear returns one year's questions ordered by paper and number.
	BySubjectAndYear(ctx context.Context, subject string, year int) ([]model.Question, error)

	// BySubjectYearPaper returns a single paper ordered by question number.
	BySubjectYearPaper(ctx context.Context, subject string, year int, paper string) ([]model.Question, error)

	// ByTopic matches topic as a case-insensitive substring.
	ByTopic(ctx context.Context, subject, topic string) ([]model.Question, error)

	ByDifficulty(ctx context.Context, subject string, difficulty model.Difficulty) ([]model.Question, error)

	ByForm(ctx context.Context, subject string, form int) ([]model.Question, error)

	// Search matches query as a case-insensitive substring of the question
	// text, topic, answer text or answer steps. An empty subject searches
	// every subject, each capped, merged by year descending.
	Search(ctx context.Context, query, subject string) ([]model.Question, error)

	// ByID scans every subject. Returns nil, nil if no question has the id.
	ByID(ctx context.Context, id string) (*model.Question, error)

	// Years lists distinct years, newest first.
	Years(ctx context.Context, subject string) ([]int, error)

	// Papers lists the distinct papers sat in a year, sorted.
	Papers(ctx context.Context, subject string, year int) ([]string, error)

	// Topics lists distinct topics, sorted.
	Topics(ctx context.Context, subject string) ([]string, error)

	Stats(ctx context.Context, subject string) (model.SubjectStats, error)
}

// QuestionWriter holds the administrative writes used for seeding.
type QuestionWriter interface {
	Insert(ctx context.Context, subject string, question model.Question) error
	InsertMany(ctx context.Context, subject string, questions []model.Question) (int, error)
	CreateIndexes(ctx context.Context, subject string) error
}
