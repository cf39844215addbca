// Package mongodb provides MongoDB infrastructure components including index management.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names as constants for consistency.
const (
	CollectionApplications    = "status_applications"
	CollectionEndpointEntries = "endpoint_status_entries"
)

// IndexDefinition describes a MongoDB index to be created.
type IndexDefinition struct {
	Collection string
	Name       string
	Keys       bson.D
	Unique     bool
}

func (d IndexDefinition) model() mongo.IndexModel {
	opts := options.Index().SetName(d.Name)
	if d.Unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: d.Keys, Options: opts}
}

// CreateAllIndexes creates all necessary indexes for the application.
// This function is idempotent - calling it multiple times is safe.
func CreateAllIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, GetAllIndexDefinitions())
}

// CreateCollectionIndexes creates indexes for a specific collection only.
func CreateCollectionIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	var indexes []IndexDefinition

	switch collectionName {
	case CollectionApplications:
		indexes = GetApplicationIndexes()
	case CollectionEndpointEntries:
		indexes = GetEndpointEntryIndexes()
	default:
		return fmt.Errorf("unknown collection: %s", collectionName)
	}

	return createIndexes(ctx, db, indexes)
}

func createIndexes(ctx context.Context, db *mongo.Database, indexes []IndexDefinition) error {
	for _, idx := range indexes {
		coll := db.Collection(idx.Collection)
		if _, err := coll.Indexes().CreateOne(ctx, idx.model()); err != nil {
			return fmt.Errorf("failed to create index %s on collection %s: %w", idx.Name, idx.Collection, err)
		}
	}
	return nil
}

// GetAllIndexDefinitions returns all index definitions for all collections.
func GetAllIndexDefinitions() []IndexDefinition {
	var indexes []IndexDefinition

	indexes = append(indexes, GetApplicationIndexes()...)
	indexes = append(indexes, GetEndpointEntryIndexes()...)

	return indexes
}

// GetApplicationIndexes returns index definitions for the status records.
func GetApplicationIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			// appKey is unique per tenant
			Collection: CollectionApplications,
			Name:       "idx_applications_tenant_app_key_unique",
			Keys:       bson.D{{Key: "tenant_id", Value: 1}, {Key: "app_key", Value: 1}},
			Unique:     true,
		},
		{
			// Scheduler scan
			Collection: CollectionApplications,
			Name:       "idx_applications_enabled",
			Keys:       bson.D{{Key: "enabled", Value: 1}, {Key: "tenant_id", Value: 1}},
		},
		{
			// cross-tenant appKey lookup
			Collection: CollectionApplications,
			Name:       "idx_applications_app_key",
			Keys:       bson.D{{Key: "app_key", Value: 1}},
		},
	}
}

// GetEndpointEntryIndexes returns index definitions for the poll history.
func GetEndpointEntryIndexes() []IndexDefinition {
	return []IndexDefinition{
		{
			Collection: CollectionEndpointEntries,
			Name:       "idx_entries_app_url_time",
			Keys: bson.D{
				{Key: "application_id", Value: 1},
				{Key: "url", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
}
