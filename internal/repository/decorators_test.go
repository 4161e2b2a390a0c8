package repository

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("server selection timeout")

// brokenRepository fails every call.
type brokenRepository struct{}

func (brokenRepository) Subjects(context.Context) ([]string, error) { return nil, errDown }
func (brokenRepository) BySubject(context.Context, string) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) BySubjectAndYear(context.Context, string, int) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) BySubjectYearPaper(context.Context, string, int, string) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) ByTopic(context.Context, string, string) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) ByDifficulty(context.Context, string, model.Difficulty) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) ByForm(context.Context, string, int) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) Search(context.Context, string, string) ([]model.Question, error) {
	return nil, errDown
}
func (brokenRepository) ByID(context.Context, string) (*model.Question, error) { return nil, errDown }
func (brokenRepository) Years(context.Context, string) ([]int, error) { return nil, errDown }
func (brokenRepository) Papers(context.Context, string, int) ([]string, error) {
	return nil, errDown
}
func (brokenRepository) Topics(context.Context, string) ([]string, error) { return nil, errDown }
func (brokenRepository) Stats(context.Context, string) (model.SubjectStats, error) {
	return model.SubjectStats{}, errDown
}

func TestFailSoft_ReturnsEmptyResults(t *testing.T) {
	var logs bytes.Buffer
	repo := FailSoft(brokenRepository{}, zerolog.New(&logs))
	ctx := context.Background()

	subjects, err := repo.Subjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
	assert.NotNil(t, subjects)

	questions, err := repo.Search(ctx, "anything", "")
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.NotNil(t, questions)

	q, err := repo.ByID(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, q)

	years, err := repo.Years(ctx, "mathematics")
	require.NoError(t, err)
	assert.Equal(t, []int{}, years)

	stats, err := repo.Stats(ctx, "mathematics")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQuestions)
	assert.Equal(t, []string{}, stats.Topics)

	assert.Contains(t, logs.String(), "server selection timeout")
}

func TestFailSoft_PassesThroughSuccess(t *testing.T) {
	repo := FailSoft(loadFixture(t), zerolog.Nop())

	questions, err := repo.BySubjectAndYear(context.Background(), "chemistry", 2023)
	require.NoError(t, err)
	assert.Equal(t, []string{"chem-2023-p1-q1"}, ids(questions))
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	data, ok := c.entries[key]
	if !ok {
		return nil, errx.ErrCacheMiss
	}
	return data, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

// countingRepository counts catalogue lookups reaching the store.
type countingRepository struct {
	QuestionRepository
	years int
	stats int
}

func (r *countingRepository) Years(ctx context.Context, subject string) ([]int, error) {
	r.years++
	return r.QuestionRepository.Years(ctx, subject)
}

func (r *countingRepository) Stats(ctx context.Context, subject string) (model.SubjectStats, error) {
	r.stats++
	return r.QuestionRepository.Stats(ctx, subject)
}

func TestCached_ReadThrough(t *testing.T) {
	store := &countingRepository{QuestionRepository: loadFixture(t)}
	cache := newMapCache()
	repo := Cached(store, cache, time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		years, err := repo.Years(ctx, "Mathematics")
		require.NoError(t, err)
		assert.Equal(t, []int{2023, 2022}, years)
	}
	assert.Equal(t, 1, store.years)
	assert.Equal(t, time.Minute, cache.ttls["kmf:years:mathematics"])

	first, err := repo.Stats(ctx, "mathematics")
	require.NoError(t, err)
	second, err := repo.Stats(ctx, "mathematics")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.stats)
}

func TestCached_FallsThroughOnCacheFailure(t *testing.T) {
	store := &countingRepository{QuestionRepository: loadFixture(t)}
	cache := newMapCache()
	cache.getErr = errx.WrapRedis(errors.New("connection reset"))
	repo := Cached(store, cache, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		years, err := repo.Years(context.Background(), "mathematics")
		require.NoError(t, err)
		assert.Equal(t, []int{2023, 2022}, years)
	}
	assert.Equal(t, 2, store.years)
}

func TestCached_IgnoresCorruptEntries(t *testing.T) {
	store := &countingRepository{QuestionRepository: loadFixture(t)}
	cache := newMapCache()
	cache.entries["kmf:years:mathematics"] = []byte("not json")
	repo := Cached(store, cache, time.Minute, zerolog.Nop())

	years, err := repo.Years(context.Background(), "mathematics")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2022}, years)
	assert.Equal(t, 1, store.years)
	assert.JSONEq(t, "[2023,2022]", string(cache.entries["kmf:years:mathematics"]))
}

func TestCached_ForwardsUncachedLookups(t *testing.T) {
	repo := Cached(loadFixture(t), newMapCache(), time.Minute, zerolog.Nop())

	q, err := repo.ByID(context.Background(), "eng-2022-p3-q1")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "Composition", q.Topic)
}
