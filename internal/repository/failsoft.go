package repository

import (
	"context"

	"github.com/kmf-ai/server/internal/model"
	"github.com/rs/zerolog"
)

type failSoft struct {
	next   QuestionRepository
	logger zerolog.Logger
}

// FailSoft wraps next so that every failure is logged and answered with an
// empty result. ByID reports absence on failure.
func FailSoft(next QuestionRepository, logger zerolog.Logger) QuestionRepository {
	return &failSoft{next: next, logger: logger}
}

func (f *failSoft) warn(err error, op, subject string) {
	f.logger.Warn().Err(err).Str("op", op).Str("subject", subject).Msg("question store failure, returning empty result")
}

func (f *failSoft) questions(qs []model.Question, err error, op, subject string) ([]model.Question, error) {
	if err != nil {
		f.warn(err, op, subject)
		return []model.Question{}, nil
	}
	return qs, nil
}

func (f *failSoft) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := f.next.Subjects(ctx)
	if err != nil {
		f.warn(err, "subjects", "")
		return []string{}, nil
	}
	return subjects, nil
}

func (f *failSoft) BySubject(ctx context.Context, subject string) ([]model.Question, error) {
	qs, err := f.next.BySubject(ctx, subject)
	return f.questions(qs, err, "by_subject", subject)
}

func (f *failSoft) BySubjectAndYear(ctx context.Context, subject string, year int) ([]model.Question, error) {
	qs, err := f.next.BySubjectAndYear(ctx, subject, year)
	return f.questions(qs, err, "by_year", subject)
}

func (f *failSoft) BySubjectYearPaper(ctx context.Context, subject string, year int, paper string) ([]model.Question, error) {
	qs, err := f.next.BySubjectYearPaper(ctx, subject, year, paper)
	return f.questions(qs, err, "by_paper", subject)
}

func (f *failSoft) ByTopic(ctx context.Context, subject, topic string) ([]model.Question, error) {
	qs, err := f.next.ByTopic(ctx, subject, topic)
	return f.questions(qs, err, "by_topic", subject)
}

func (f *failSoft) ByDifficulty(ctx context.Context, subject string, difficulty model.Difficulty) ([]model.Question, error) {
	qs, err := f.next.ByDifficulty(ctx, subject, difficulty)
	return f.questions(qs, err, "by_difficulty", subject)
}

func (f *failSoft) ByForm(ctx context.Context, subject string, form int) ([]model.Question, error) {
	qs, err := f.next.ByForm(ctx, subject, form)
	return f.questions(qs, err, "by_form", subject)
}

func (f *failSoft) Search(ctx context.Context, query, subject string) ([]model.Question, error) {
	qs, err := f.next.Search(ctx, query, subject)
	return f.questions(qs, err, "search", subject)
}

func (f *failSoft) ByID(ctx context.Context, id string) (*model.Question, error) {
	q, err := f.next.ByID(ctx, id)
	if err != nil {
		f.logger.Warn().Err(err).Str("op", "by_id").Str("id", id).Msg("question store failure, reporting not found")
		return nil, nil
	}
	return q, nil
}

func (f *failSoft) Years(ctx context.Context, subject string) ([]int, error) {
	years, err := f.next.Years(ctx, subject)
	if err != nil {
		f.warn(err, "years", subject)
		return []int{}, nil
	}
	return years, nil
}

func (f *failSoft) Papers(ctx context.Context, subject string, year int) ([]string, error) {
	papers, err := f.next.Papers(ctx, subject, year)
	if err != nil {
		f.warn(err, "papers", subject)
		return []string{}, nil
	}
	return papers, nil
}

func (f *failSoft) Topics(ctx context.Context, subject string) ([]string, error) {
	topics, err := f.next.Topics(ctx, subject)
	if err != nil {
		f.warn(err, "topics", subject)
		return []string{}, nil
	}
	return topics, nil
}

func (f *failSoft) Stats(ctx context.Context, subject string) (model.SubjectStats, error) {
	stats, err := f.next.Stats(ctx, subject)
	if err != nil {
		f.warn(err, "stats", subject)
		return model.SubjectStats{Years: []int{}, Papers: []string{}, Topics: []string{}}, nil
	}
	return stats, nil
}
