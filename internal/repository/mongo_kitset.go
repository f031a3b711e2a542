package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

type mongoKitSetRepository struct {
	collection *mongo.Collection
}

func NewMongoKitSetRepository(db *mongo.Database) KitSetRepository {
	return &mongoKitSetRepository{collection: db.Collection("kit_sets")}
}

// kitSetDoc stores the whole tier set as one JSON blob under the product's
// key, matching the host metadata contract (get/set/remove of one attached
// value per product).
type kitSetDoc struct {
	ProductID int64     `bson:"product_id"`
	Blob      []byte    `bson:"blob"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *mongoKitSetRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (r *mongoKitSetRepository) Get(ctx context.Context, productID int64) (domain.KitSet, error) {
	var doc kitSetDoc

	filter := bson.M{"product_id": productID}
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.KitSet{}, ErrKitSetNotFound
		}
		return domain.KitSet{}, fmt.Errorf("failed to get kit set: %w", err)
	}

	var set domain.KitSet
	if err := json.Unmarshal(doc.Blob, &set); err != nil {
		return domain.KitSet{}, fmt.Errorf("failed to decode kit set blob for product %d: %w", productID, err)
	}

	return set, nil
}

func (r *mongoKitSetRepository) Put(ctx context.Context, productID int64, set domain.KitSet) error {
	blob, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode kit set: %w", err)
	}

	filter := bson.M{"product_id": productID}
	update := bson.M{"$set": kitSetDoc{
		ProductID: productID,
		Blob:      blob,
		UpdatedAt: time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to put kit set: %w", err)
	}

	return nil
}

func (r *mongoKitSetRepository) Remove(ctx context.Context, productID int64) error {
	filter := bson.M{"product_id": productID}
	if _, err := r.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to remove kit set: %w", err)
	}
	return nil
}
