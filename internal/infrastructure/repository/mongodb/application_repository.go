package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

const applicationResource = "status application"

// MongoApplicationRepository реализует status.Repository
type MongoApplicationRepository struct {
	collection *mongo.Collection
}

// NewMongoApplicationRepository создает новый MongoDB репозиторий статусов
func NewMongoApplicationRepository(collection *mongo.Collection) *MongoApplicationRepository {
	return &MongoApplicationRepository{
		collection: collection,
	}
}

// Find находит записи по фильтру
func (r *MongoApplicationRepository) Find(
	ctx context.Context,
	filter status.Filter,
) ([]*status.Application, error) {
	query := bson.M{}
	if filter.TenantID != "" {
		query["tenant_id"] = filter.TenantID
	}
	if filter.AppKey != "" {
		query["app_key"] = filter.AppKey
	}
	if filter.Enabled != nil {
		query["enabled"] = *filter.Enabled
	}

	opts := options.Find().SetSort(bson.D{{Key: "tenant_id", Value: 1}, {Key: "app_key", Value: 1}})
	return findAll(ctx, r.collection, query, opts, r.documentToApplication, "status applications")
}

// FindEnabled находит все включенные записи всех тенантов
func (r *MongoApplicationRepository) FindEnabled(ctx context.Context) ([]*status.Application, error) {
	enabled := true
	return r.Find(ctx, status.Filter{Enabled: &enabled})
}

// Get находит запись по ID
func (r *MongoApplicationRepository) Get(ctx context.Context, id uuid.UUID) (*status.Application, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	var doc applicationDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err, applicationResource)
	}
	return r.documentToApplication(&doc)
}

// FindByAppKey находит запись тенанта по appKey
func (r *MongoApplicationRepository) FindByAppKey(
	ctx context.Context,
	tenantID, appKey string,
) (*status.Application, error) {
	if tenantID == "" || appKey == "" {
		return nil, errs.ErrInvalidInput
	}

	var doc applicationDocument
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "app_key": appKey}).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err, applicationResource)
	}
	return r.documentToApplication(&doc)
}

// Create вставляет новую запись. Уникальный индекс (tenant_id, app_key)
// превращает дубликат в errs.ErrAlreadyExists.
func (r *MongoApplicationRepository) Create(ctx context.Context, app *status.Application) error {
	if app == nil {
		return errs.ErrInvalidInput
	}

	doc := r.applicationToDocument(app)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err, applicationResource)
	}
	return nil
}

// Save сохраняет запись (создание или обновление)
func (r *MongoApplicationRepository) Save(ctx context.Context, app *status.Application) error {
	if app == nil {
		return errs.ErrInvalidInput
	}

	doc := r.applicationToDocument(app)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return mapMongoError(err, applicationResource)
	}
	return nil
}

// SaveTransition пишет результат опроса, только если запись все еще включена,
// того же поколения и в ожидаемом статусе. Без upsert: удаленная запись
// не воскрешается.
func (r *MongoApplicationRepository) SaveTransition(
	ctx context.Context,
	app *status.Application,
	expected status.Status,
) (bool, error) {
	if app == nil {
		return false, errs.ErrInvalidInput
	}

	s := app.State()
	filter := bson.M{
		"_id":        s.ID.String(),
		"enabled":    true,
		"generation": s.Generation,
		"status":     string(expected),
	}
	update := bson.M{"$set": bson.M{
		"status":           string(s.Status),
		"internal_status":  s.InternalStatus,
		"status_timestamp": s.StatusTimestamp,
		"endpoint.status":  string(s.Endpoint.Status),
		"updated_at":       s.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, mapMongoError(err, applicationResource)
	}
	return res.MatchedCount > 0, nil
}

// SaveURL обновляет только URL существующей записи
func (r *MongoApplicationRepository) SaveURL(ctx context.Context, app *status.Application) (bool, error) {
	if app == nil {
		return false, errs.ErrInvalidInput
	}

	update := bson.M{"$set": bson.M{
		"endpoint.url": app.Endpoint().URL,
		"updated_at":   app.UpdatedAt(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": app.ID().String()}, update)
	if err != nil {
		return false, mapMongoError(err, applicationResource)
	}
	return res.MatchedCount > 0, nil
}

// Delete удаляет запись, возвращает false если ее не было
func (r *MongoApplicationRepository) Delete(ctx context.Context, app *status.Application) (bool, error) {
	if app == nil {
		return false, errs.ErrInvalidInput
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": app.ID().String()})
	if err != nil {
		return false, mapMongoError(err, applicationResource)
	}
	return res.DeletedCount > 0, nil
}

// applicationDocument представляет запись статуса в MongoDB
type applicationDocument struct {
	ID              string           `bson:"_id"`
	AppKey          string           `bson:"app_key"`
	TenantID        string           `bson:"tenant_id"`
	TenantName      string           `bson:"tenant_name"`
	Enabled         bool             `bson:"enabled"`
	Status          string           `bson:"status"`
	InternalStatus  string           `bson:"internal_status,omitempty"`
	StatusTimestamp time.Time        `bson:"status_timestamp"`
	Endpoint        endpointDocument `bson:"endpoint"`
	Metadata        string           `bson:"metadata,omitempty"`
	Generation      int              `bson:"generation"`
	timestamps      `bson:",inline"`
}

type endpointDocument struct {
	URL    string `bson:"url"`
	Status string `bson:"status"`
}

func (r *MongoApplicationRepository) applicationToDocument(app *status.Application) applicationDocument {
	s := app.State()
	doc := applicationDocument{
		ID:              s.ID.String(),
		AppKey:          s.AppKey,
		TenantID:        s.TenantID,
		TenantName:      s.TenantName,
		Enabled:         s.Enabled,
		Status:          string(s.Status),
		InternalStatus:  s.InternalStatus,
		StatusTimestamp: s.StatusTimestamp,
		Endpoint: endpointDocument{
			URL:    s.Endpoint.URL,
			Status: string(s.Endpoint.Status),
		},
		Metadata:   s.Metadata,
		Generation: s.Generation,
		timestamps: timestamps{
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		},
	}
	doc.fill()
	return doc
}

func (r *MongoApplicationRepository) documentToApplication(doc *applicationDocument) (*status.Application, error) {
	id, err := uuid.ParseUUID(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid application id %q: %w", doc.ID, err)
	}

	st, err := status.ParseStatus(doc.Status)
	if err != nil {
		return nil, err
	}

	return status.Reconstruct(status.State{
		ID:              id,
		AppKey:          doc.AppKey,
		TenantID:        doc.TenantID,
		TenantName:      doc.TenantName,
		Enabled:         doc.Enabled,
		Status:          st,
		InternalStatus:  doc.InternalStatus,
		StatusTimestamp: doc.StatusTimestamp,
		Endpoint: status.Endpoint{
			URL:    doc.Endpoint.URL,
			Status: status.EndpointState(doc.Endpoint.Status),
		},
		Metadata:   doc.Metadata,
		Generation: doc.Generation,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}), nil
}

var _ status.Repository = (*MongoApplicationRepository)(nil)
