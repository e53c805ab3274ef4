package mongodb

import (
	"errors"

	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicate
	default:
		return err
	}
}

func pageOptions(page, limit int) (skip, lim int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return int64((page - 1) * limit), int64(limit)
}
