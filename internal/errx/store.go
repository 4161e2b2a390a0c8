package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// WrapMongo maps driver errors to AppError. ErrNoDocuments is not wrapped
// so callers can keep treating it as absence.
func WrapMongo(err error) error {
	if err == nil || errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return New(errors.Join(ErrStore, err), http.StatusBadGateway, StoreErrorMessage)
}

// WrapRedis maps Redis errors to AppError, redis.Nil becoming ErrCacheMiss.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(errors.Join(ErrCacheMiss, err), http.StatusNotFound, CacheMissMessage)
	}

	return New(err, http.StatusBadGateway, CacheErrorMessage)
}
