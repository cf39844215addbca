package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// MongoHistoryRepository реализует status.HistoryStore (append-only)
type MongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository создает новый MongoDB репозиторий истории опроса
func NewMongoHistoryRepository(collection *mongo.Collection) *MongoHistoryRepository {
	return &MongoHistoryRepository{
		collection: collection,
	}
}

// Append добавляет запись
func (r *MongoHistoryRepository) Append(ctx context.Context, entry status.EndpointStatusEntry) error {
	if entry.ApplicationID.IsZero() || entry.URL == "" {
		return errs.ErrInvalidInput
	}

	doc := entryDocument{
		ID:             bson.NewObjectID(),
		ApplicationID:  entry.ApplicationID.String(),
		URL:            entry.URL,
		Timestamp:      entry.Timestamp.UTC(),
		OK:             entry.OK,
		ResponseTimeMs: entry.ResponseTimeMs,
		StatusCode:     entry.StatusCode,
		Error:          entry.Error,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err, "endpoint status entry")
	}
	return nil
}

// FindRecentByURLAndApplicationID возвращает последние записи, новые первыми
func (r *MongoHistoryRepository) FindRecentByURLAndApplicationID(
	ctx context.Context,
	url string,
	applicationID uuid.UUID,
	limit int,
) ([]status.EndpointStatusEntry, error) {
	if applicationID.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	limit = clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)
	filter := bson.M{"application_id": applicationID.String(), "url": url}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	return findAll(ctx, r.collection, filter, opts, documentToEntry, "endpoint status entries")
}

// entryDocument представляет результат опроса в MongoDB
type entryDocument struct {
	ID             bson.ObjectID `bson:"_id"`
	ApplicationID  string        `bson:"application_id"`
	URL            string        `bson:"url"`
	Timestamp      time.Time     `bson:"timestamp"`
	OK             bool          `bson:"ok"`
	ResponseTimeMs *int64        `bson:"response_time_ms,omitempty"`
	StatusCode     int           `bson:"status_code,omitempty"`
	Error          string        `bson:"error,omitempty"`
}

func documentToEntry(doc *entryDocument) (status.EndpointStatusEntry, error) {
	id, err := uuid.ParseUUID(doc.ApplicationID)
	if err != nil {
		return status.EndpointStatusEntry{}, err
	}
	return status.EndpointStatusEntry{
		ApplicationID:  id,
		URL:            doc.URL,
		Timestamp:      doc.Timestamp,
		OK:             doc.OK,
		ResponseTimeMs: doc.ResponseTimeMs,
		StatusCode:     doc.StatusCode,
		Error:          doc.Error,
	}, nil
}

var _ status.HistoryStore = (*MongoHistoryRepository)(nil)
