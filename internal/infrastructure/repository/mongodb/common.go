// Package mongodb implements the status repositories on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
)

// Лимиты выборки истории опроса.
const (
	DefaultHistoryLimit = 200
	MaxHistoryLimit     = 1000
)

// mapMongoError переводит ошибки драйвера в доменные: no documents становится
// errs.ErrNotFound, нарушение уникального индекса errs.ErrAlreadyExists.
func mapMongoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", resource, errs.ErrAlreadyExists)
	default:
		return fmt.Errorf("failed to operate on %s: %w", resource, err)
	}
}

// timestamps встраивается в документы с created_at/updated_at.
type timestamps struct {
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// fill проставляет текущее время в незаполненные поля
func (t *timestamps) fill() {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}

// clampLimit: limit <= 0 дает def, больше max обрезается до max.
func clampLimit(limit, def, maxLimit int) int {
	switch {
	case limit <= 0:
		return def
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// findAll декодирует все документы курсора в D и конвертирует их в R.
// Битые документы пропускаются, результат никогда не nil.
func findAll[D any, R any](
	ctx context.Context,
	collection *mongo.Collection,
	filter any,
	opts *options.FindOptionsBuilder,
	convert func(*D) (R, error),
	resource string,
) ([]R, error) {
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapMongoError(err, resource)
	}
	defer cursor.Close(ctx)

	results := make([]R, 0)
	for cursor.Next(ctx) {
		var doc D
		if err = cursor.Decode(&doc); err != nil {
			continue
		}
		if item, convErr := convert(&doc); convErr == nil {
			results = append(results, item)
		}
	}
	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", resource, err)
	}
	return results, nil
}
