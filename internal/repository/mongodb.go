package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// DefaultSearchPerSubject caps each subject's share of an all-subject search.
const DefaultSearchPerSubject = 20

var (
	newestFirst  = bson.D{{Key: "year", Value: -1}, {Key: "paper", Value: 1}, {Key: "question_number", Value: 1}}
	byPaper      = bson.D{{Key: "paper", Value: 1}, {Key: "question_number", Value: 1}}
	byQuestionNo = bson.D{{Key: "question_number", Value: 1}}
)

// MongoQuestionRepository implements QuestionRepository and QuestionWriter
// over a MongoDB database holding one collection per subject.
type MongoQuestionRepository struct {
	db               *mongo.Database
	searchPerSubject int
}

// NewMongoQuestionRepository creates a repository over db. The database
// handle is shared and must outlive the repository.
// searchPerSubject defaults to DefaultSearchPerSubject if not positive.
func NewMongoQuestionRepository(db *mongo.Database, searchPerSubject int) *MongoQuestionRepository {
	if searchPerSubject <= 0 {
		searchPerSubject = DefaultSearchPerSubject
	}
	return &MongoQuestionRepository{
		db:               db,
		searchPerSubject: searchPerSubject,
	}
}

func (r *MongoQuestionRepository) collection(subject string) *mongo.Collection {
	return r.db.Collection(model.CollectionName(subject))
}

func (r *MongoQuestionRepository) find(ctx context.Context, subject string, filter any, opts *options.FindOptions) ([]model.Question, error) {
	cursor, err := r.collection(subject).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find in %q: %w", subject, errx.WrapMongo(err))
	}

	questions := []model.Question{}
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("repository: decode %q: %w", subject, errx.WrapMongo(err))
	}

	return questions, nil
}

func (r *MongoQuestionRepository) Subjects(ctx context.Context) ([]string, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("repository: list subjects: %w", errx.WrapMongo(err))
	}

	sort.Strings(names)
	return names, nil
}

func (r *MongoQuestionRepository) BySubject(ctx context.Context, subject string) ([]model.Question, error) {
	return r.find(ctx, subject, bson.D{}, options.Find().SetSort(newestFirst))
}

func (r *MongoQuestionRepository) BySubjectAndYear(ctx context.Context, subject string, year int) ([]model.Question, error) {
	return r.find(ctx, subject, bson.D{{Key: "year", Value: year}}, options.Find().SetSort(byPaper))
}

func (r *MongoQuestionRepository) BySubjectYearPaper(ctx context.Context, subject string, year int, paper string) ([]model.Question, error) {
	filter := bson.D{{Key: "year", Value: year}, {Key: "paper", Value: paper}}
	return r.find(ctx, subject, filter, options.Find().SetSort(byQuestionNo))
}

func (r *MongoQuestionRepository) ByTopic(ctx context.Context, subject, topic string) ([]model.Question, error) {
	filter := bson.D{{Key: "topic", Value: containsPattern(topic)}}
	return r.find(ctx, subject, filter, options.Find().SetSort(newestFirst))
}

func (r *MongoQuestionRepository) ByDifficulty(ctx context.Context, subject string, difficulty model.Difficulty) ([]model.Question, error) {
	filter := bson.D{{Key: "difficulty", Value: string(difficulty)}}
	return r.find(ctx, subject, filter, options.Find().SetSort(newestFirst))
}

func (r *MongoQuestionRepository) ByForm(ctx context.Context, subject string, form int) ([]model.Question, error) {
	filter := bson.D{{Key: "form", Value: form}}
	return r.find(ctx, subject, filter, options.Find().SetSort(newestFirst))
}

func (r *MongoQuestionRepository) Search(ctx context.Context, query, subject string) ([]model.Question, error) {
	pattern := containsPattern(query)
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "question.text", Value: pattern}},
		bson.D{{Key: "topic", Value: pattern}},
		bson.D{{Key: "answer.text", Value: pattern}},
		bson.D{{Key: "answer.steps", Value: pattern}},
	}}}

	if subject != "" {
		return r.find(ctx, subject, filter, options.Find().SetSort(newestFirst))
	}

	subjects, err := r.Subjects(ctx)
	if err != nil {
		return nil, err
	}

	results := []model.Question{}
	for _, s := range subjects {
		opts := options.Find().SetSort(newestFirst).SetLimit(int64(r.searchPerSubject))
		questions, err := r.find(ctx, s, filter, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, questions...)
	}

	sortByYearDesc(results)
	return results, nil
}

func (r *MongoQuestionRepository) ByID(ctx context.Context, id string) (*model.Question, error) {
	subjects, err := r.Subjects(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range subjects {
		var question model.Question
		err := r.collection(s).FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&question)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("repository: find question %q in %q: %w", id, s, errx.WrapMongo(err))
		}
		return &question, nil
	}

	return nil, nil
}

func (r *MongoQuestionRepository) Years(ctx context.Context, subject string) ([]int, error) {
	values, err := r.collection(subject).Distinct(ctx, "year", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("repository: distinct years of %q: %w", subject, errx.WrapMongo(err))
	}

	years := toInts(values)
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (r *MongoQuestionRepository) Papers(ctx context.Context, subject string, year int) ([]string, error) {
	values, err := r.collection(subject).Distinct(ctx, "paper", bson.D{{Key: "year", Value: year}})
	if err != nil {
		return nil, fmt.Errorf("repository: distinct papers of %q %d: %w", subject, year, errx.WrapMongo(err))
	}

	papers := toStrings(values)
	sort.Strings(papers)
	return papers, nil
}

func (r *MongoQuestionRepository) Topics(ctx context.Context, subject string) ([]string, error) {
	values, err := r.collection(subject).Distinct(ctx, "topic", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("repository: distinct topics of %q: %w", subject, errx.WrapMongo(err))
	}

	topics := toStrings(values)
	sort.Strings(topics)
	return topics, nil
}

type difficultyCount struct {
	Difficulty string `bson:"_id"`
	Count      int    `bson:"count"`
}

// Stats runs its five queries concurrently against the same collection.
func (r *MongoQuestionRepository) Stats(ctx context.Context, subject string) (model.SubjectStats, error) {
	stats := model.SubjectStats{Years: []int{}, Papers: []string{}, Topics: []string{}}
	coll := r.collection(subject)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := coll.CountDocuments(gctx, bson.D{})
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		stats.TotalQuestions = int(total)
		return nil
	})

	g.Go(func() error {
		years, err := r.Years(gctx, subject)
		if err != nil {
			return err
		}
		stats.Years = years
		return nil
	})

	g.Go(func() error {
		values, err := coll.Distinct(gctx, "paper", bson.D{})
		if err != nil {
			return fmt.Errorf("distinct papers: %w", err)
		}
		papers := toStrings(values)
		sort.Strings(papers)
		stats.Papers = papers
		return nil
	})

	g.Go(func() error {
		topics, err := r.Topics(gctx, subject)
		if err != nil {
			return err
		}
		stats.Topics = topics
		return nil
	})

	g.Go(func() error {
		pipeline := mongo.Pipeline{
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$difficulty"},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}},
		}
		cursor, err := coll.Aggregate(gctx, pipeline)
		if err != nil {
			return fmt.Errorf("aggregate difficulties: %w", err)
		}

		var counts []difficultyCount
		if err := cursor.All(gctx, &counts); err != nil {
			return fmt.Errorf("decode difficulties: %w", err)
		}
		stats.Difficulties = tallyDifficulties(counts)
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.SubjectStats{}, fmt.Errorf("repository: stats of %q: %w", subject, errx.WrapMongo(err))
	}

	return stats, nil
}

func (r *MongoQuestionRepository) Insert(ctx context.Context, subject string, question model.Question) error {
	_, err := r.collection(subject).InsertOne(ctx, prepare(subject, question))
	if err != nil {
		return fmt.Errorf("repository: insert question %q: %w", question.ID, errx.WrapMongo(err))
	}

	return nil
}

func (r *MongoQuestionRepository) InsertMany(ctx context.Context, subject string, questions []model.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	docs := make([]any, 0, len(questions))
	for _, q := range questions {
		docs = append(docs, prepare(subject, q))
	}

	res, err := r.collection(subject).InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("repository: insert %d questions into %q: %w", len(docs), subject, errx.WrapMongo(err))
	}

	return len(res.InsertedIDs), nil
}

// CreateIndexes creates the query indexes of one subject collection.
func (r *MongoQuestionRepository) CreateIndexes(ctx context.Context, subject string) error {
	indexes := []mongo.IndexModel{
		{Keys: newestFirst},
		{Keys: bson.D{{Key: "topic", Value: 1}, {Key: "difficulty", Value: 1}}},
		{Keys: bson.D{{Key: "form", Value: 1}}},
		{Keys: bson.D{
			{Key: "question.text", Value: "text"},
			{Key: "answer.text", Value: "text"},
			{Key: "answer.steps", Value: "text"},
		}},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	if _, err := r.collection(subject).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("repository: create indexes on %q: %w", subject, errx.WrapMongo(err))
	}

	return nil
}

// containsPattern matches s literally anywhere in the field, ignoring case.
func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func prepare(subject string, q model.Question) model.Question {
	if q.Subject == "" {
		q.Subject = model.CollectionName(subject)
	}
	if q.CreatedAt == nil {
		now := time.Now().UTC()
		q.CreatedAt = &now
	}
	return q
}

func tallyDifficulties(counts []difficultyCount) model.DifficultyBreakdown {
	var out model.DifficultyBreakdown
	for _, c := range counts {
		switch model.Difficulty(c.Difficulty) {
		case model.DifficultyEasy:
			out.Easy = c.Count
		case model.DifficultyMedium:
			out.Medium = c.Count
		case model.DifficultyHard:
			out.Hard = c.Count
		}
	}
	return out
}

func toInts(values []any) []int {
	out := make([]int, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int32:
			out = append(out, int(n))
		case int64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		case float64:
			out = append(out, int(n))
		}
	}
	return out
}

func toStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// sortByYearDesc keeps the per-subject order within a year.
func sortByYearDesc(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Year > questions[j].Year
	})
}
