package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestAppError_UnwrapAndStatus(t *testing.T) {
	err := fmt.Errorf("chat: %w", BadRequest("messages must not be empty"))

	assert.ErrorIs(t, err, ErrRequestMalformed)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "messages must not be empty", MessageOf(err))
}

func TestStatusOf_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, SystemErrorMessage, MessageOf(err))
}

func TestWrapModel(t *testing.T) {
	assert.NoError(t, WrapModel(nil))

	cause := errors.New("429 too many requests")
	err := WrapModel(cause)
	assert.ErrorIs(t, err, ErrModelGateway)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestWrapMongo(t *testing.T) {
	assert.NoError(t, WrapMongo(nil))
	assert.Equal(t, mongo.ErrNoDocuments, WrapMongo(mongo.ErrNoDocuments))

	err := WrapMongo(errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrStore)
	assert.Equal(t, StoreErrorMessage, MessageOf(err))
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	miss := WrapRedis(redis.Nil)
	assert.ErrorIs(t, miss, ErrCacheMiss)
	assert.Equal(t, http.StatusNotFound, StatusOf(miss))

	other := WrapRedis(errors.New("i/o timeout"))
	assert.NotErrorIs(t, other, ErrCacheMiss)
	assert.Equal(t, http.StatusBadGateway, StatusOf(other))
}
