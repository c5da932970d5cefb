package adal

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidIDToken  = errors.New("invalid id token")
)

var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrMultipleTokens = errors.New("multiple tokens matched")
)

func errorWrap(err error) error {
	switch {
	case errors.Is(err, redis.Nil):
		return ErrTokenNotFound
	default:
		return err
	}
}
