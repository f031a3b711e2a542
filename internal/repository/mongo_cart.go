package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{collection: db.Collection("carts")}
}

// Persistence documents keep prices as strings; decimals are validated at
// the boundary where stored data re-enters the core.
type cartDoc struct {
	SessionID string        `bson:"session_id"`
	Lines     []cartLineDoc `bson:"lines"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type cartLineDoc struct {
	Key         string            `bson:"key"`
	ProductID   int64             `bson:"product_id"`
	VariationID int64             `bson:"variation_id,omitempty"`
	Attributes  map[string]string `bson:"attributes,omitempty"`
	Quantity    int               `bson:"quantity"`
	UnitPrice   string            `bson:"unit_price"`
	GroupToken  string            `bson:"group_token,omitempty"`
	Kit         *tierSnapshotDoc  `bson:"kit,omitempty"`
	AddedAt     time.Time         `bson:"added_at"`
}

type tierSnapshotDoc struct {
	Quantity  int    `bson:"quantity"`
	Price     string `bson:"price"`
	BadgeText string `bson:"badge_text,omitempty"`
}

func (m *mongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (m *mongoCartRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var doc cartDoc

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return docToCart(doc)
}

func (m *mongoCartRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	filter := bson.M{"session_id": cart.SessionID}
	update := bson.M{"$set": cartToDoc(cart)}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m *mongoCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func cartToDoc(cart *domain.Cart) cartDoc {
	doc := cartDoc{
		SessionID: cart.SessionID,
		Lines:     make([]cartLineDoc, 0, len(cart.Lines)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, l := range cart.Lines {
		lineDoc := cartLineDoc{
			Key:         l.Key,
			ProductID:   l.ProductID,
			VariationID: l.VariationID,
			Attributes:  l.Attributes,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.String(),
			GroupToken:  l.GroupToken,
			AddedAt:     l.AddedAt,
		}
		if l.Kit != nil {
			lineDoc.Kit = &tierSnapshotDoc{
				Quantity:  l.Kit.Quantity,
				Price:     l.Kit.Price.String(),
				BadgeText: l.Kit.BadgeText,
			}
		}
		doc.Lines = append(doc.Lines, lineDoc)
	}
	return doc
}

func docToCart(doc cartDoc) (*domain.Cart, error) {
	cart := &domain.Cart{
		SessionID: doc.SessionID,
		Lines:     make([]domain.CartLine, 0, len(doc.Lines)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, lineDoc := range doc.Lines {
		unitPrice, err := decimal.NewFromString(lineDoc.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid stored unit price %q: %w", lineDoc.UnitPrice, err)
		}
		line := domain.CartLine{
			Key:         lineDoc.Key,
			ProductID:   lineDoc.ProductID,
			VariationID: lineDoc.VariationID,
			Attributes:  lineDoc.Attributes,
			Quantity:    lineDoc.Quantity,
			UnitPrice:   unitPrice,
			GroupToken:  lineDoc.GroupToken,
			AddedAt:     lineDoc.AddedAt,
		}
		if lineDoc.Kit != nil {
			price, err := decimal.NewFromString(lineDoc.Kit.Price)
			if err != nil {
				return nil, fmt.Errorf("invalid stored kit price %q: %w", lineDoc.Kit.Price, err)
			}
			line.Kit = &domain.TierSnapshot{
				Quantity:  lineDoc.Kit.Quantity,
				Price:     price,
				BadgeText: lineDoc.Kit.BadgeText,
			}
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}
