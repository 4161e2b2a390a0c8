package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/kmf-ai/server/internal/model"
)

// MemoryQuestionRepository keeps the question bank in process. It mirrors
// the Mongo implementation's ordering and matching rules and is used for
// local runs against a JSON fixture and in tests.
type MemoryQuestionRepository struct {
	mu               sync.RWMutex
	subjects         map[string][]model.Question
	searchPerSubject int
}

func NewMemoryQuestionRepository(searchPerSubject int) *MemoryQuestionRepository {
	if searchPerSubject <= 0 {
		searchPerSubject = DefaultSearchPerSubject
	}
	return &MemoryQuestionRepository{
		subjects:         make(map[string][]model.Question),
		searchPerSubject: searchPerSubject,
	}
}

// LoadMemoryQuestionRepository reads a JSON array of questions from path and
// groups them by subject.
func LoadMemoryQuestionRepository(path string, searchPerSubject int) (*MemoryQuestionRepository, error) {
	questions, err := ReadQuestions(path)
	if err != nil {
		return nil, err
	}

	r := NewMemoryQuestionRepository(searchPerSubject)
	for _, q := range questions {
		if q.Subject == "" {
			return nil, fmt.Errorf("repository: fixture question %q has no subject", q.ID)
		}
		r.add(q.Subject, q)
	}

	return r, nil
}

// ReadQuestions decodes a JSON array of questions from path.
func ReadQuestions(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository: read %q: %w", path, err)
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("repository: decode %q: %w", path, err)
	}
	return questions, nil
}

func (r *MemoryQuestionRepository) add(subject string, q model.Question) {
	name := model.CollectionName(subject)
	r.subjects[name] = append(r.subjects[name], prepare(name, q))
}

func (r *MemoryQuestionRepository) filter(subject string, keep func(model.Question) bool, less func(a, b model.Question) bool) []model.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Question{}
	for _, q := range r.subjects[model.CollectionName(subject)] {
		if keep(q) {
			out = append(out, q)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *MemoryQuestionRepository) Subjects(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.subjects))
	for name := range r.subjects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryQuestionRepository) BySubject(_ context.Context, subject string) ([]model.Question, error) {
	return r.filter(subject, all, lessNewestFirst), nil
}

func (r *MemoryQuestionRepository) BySubjectAndYear(_ context.Context, subject string, year int) ([]model.Question, error) {
	return r.filter(subject, func(q model.Question) bool { return q.Year == year }, lessByPaper), nil
}

func (r *MemoryQuestionRepository) BySubjectYearPaper(_ context.Context, subject string, year int, paper string) ([]model.Question, error) {
	keep := func(q model.Question) bool { return q.Year == year && q.Paper == paper }
	return r.filter(subject, keep, lessByQuestionNo), nil
}

func (r *MemoryQuestionRepository) ByTopic(_ context.Context, subject, topic string) ([]model.Question, error) {
	keep := func(q model.Question) bool { return containsFold(q.Topic, topic) }
	return r.filter(subject, keep, lessNewestFirst), nil
}

func (r *MemoryQuestionRepository) ByDifficulty(_ context.Context, subject string, difficulty model.Difficulty) ([]model.Question, error) {
	keep := func(q model.Question) bool { return q.Difficulty == difficulty }
	return r.filter(subject, keep, lessNewestFirst), nil
}

func (r *MemoryQuestionRepository) ByForm(_ context.Context, subject string, form int) ([]model.Question, error) {
	keep := func(q model.Question) bool { return q.Form == form }
	return r.filter(subject, keep, lessNewestFirst), nil
}

func (r *MemoryQuestionRepository) Search(ctx context.Context, query, subject string) ([]model.Question, error) {
	keep := func(q model.Question) bool { return matchesQuery(q, query) }

	if subject != "" {
		return r.filter(subject, keep, lessNewestFirst), nil
	}

	subjects, _ := r.Subjects(ctx)
	results := []model.Question{}
	for _, s := range subjects {
		questions := r.filter(s, keep, lessNewestFirst)
		if len(questions) > r.searchPerSubject {
			questions = questions[:r.searchPerSubject]
		}
		results = append(results, questions...)
	}

	sortByYearDesc(results)
	return results, nil
}

func (r *MemoryQuestionRepository) ByID(ctx context.Context, id string) (*model.Question, error) {
	subjects, _ := r.Subjects(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range subjects {
		for _, q := range r.subjects[s] {
			if q.ID == id {
				found := q
				return &found, nil
			}
		}
	}

	return nil, nil
}

func (r *MemoryQuestionRepository) Years(_ context.Context, subject string) ([]int, error) {
	seen := map[int]struct{}{}
	years := []int{}
	for _, q := range r.filter(subject, all, lessNewestFirst) {
		if _, ok := seen[q.Year]; !ok {
			seen[q.Year] = struct{}{}
			years = append(years, q.Year)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (r *MemoryQuestionRepository) Papers(_ context.Context, subject string, year int) ([]string, error) {
	questions := r.filter(subject, func(q model.Question) bool { return q.Year == year }, lessByPaper)
	return distinctSorted(questions, func(q model.Question) string { return q.Paper }), nil
}

func (r *MemoryQuestionRepository) Topics(_ context.Context, subject string) ([]string, error) {
	questions := r.filter(subject, all, lessNewestFirst)
	return distinctSorted(questions, func(q model.Question) string { return q.Topic }), nil
}

func (r *MemoryQuestionRepository) Stats(ctx context.Context, subject string) (model.SubjectStats, error) {
	questions := r.filter(subject, all, lessNewestFirst)
	years, _ := r.Years(ctx, subject)
	topics, _ := r.Topics(ctx, subject)

	var counts []difficultyCount
	tally := map[string]int{}
	for _, q := range questions {
		tally[string(q.Difficulty)]++
	}
	for d, n := range tally {
		counts = append(counts, difficultyCount{Difficulty: d, Count: n})
	}

	return model.SubjectStats{
		TotalQuestions: len(questions),
		Years:          years,
		Papers:         distinctSorted(questions, func(q model.Question) string { return q.Paper }),
		Topics:         topics,
		Difficulties:   tallyDifficulties(counts),
	}, nil
}

func (r *MemoryQuestionRepository) Insert(_ context.Context, subject string, question model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := model.CollectionName(subject)
	for _, q := range r.subjects[name] {
		if q.ID == question.ID {
			return fmt.Errorf("repository: duplicate question id %q in %q", question.ID, name)
		}
	}

	r.add(subject, question)
	return nil
}

func (r *MemoryQuestionRepository) InsertMany(ctx context.Context, subject string, questions []model.Question) (int, error) {
	inserted := 0
	for _, q := range questions {
		if err := r.Insert(ctx, subject, q); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// CreateIndexes is a no-op for the in-memory store.
func (r *MemoryQuestionRepository) CreateIndexes(context.Context, string) error {
	return nil
}

func all(model.Question) bool { return true }

func lessNewestFirst(a, b model.Question) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return lessByPaper(a, b)
}

func lessByPaper(a, b model.Question) bool {
	if a.Paper != b.Paper {
		return a.Paper < b.Paper
	}
	return lessByQuestionNo(a, b)
}

func lessByQuestionNo(a, b model.Question) bool {
	return a.QuestionNumber < b.QuestionNumber
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matchesQuery(q model.Question, query string) bool {
	if containsFold(q.Question.Text, query) || containsFold(q.Topic, query) {
		return true
	}
	if q.Answer != nil {
		return containsFold(q.Answer.Text, query) || containsFold(q.Answer.Steps, query)
	}
	return false
}

func distinctSorted(questions []model.Question, field func(model.Question) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, q := range questions {
		v := field(q)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
