package repo

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/usecase"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// productDoc is read leniently: the catalog is written by another service, so
// _id may be an ObjectID or a string and price any numeric BSON type.
type productDoc struct {
	ID    bson.RawValue `bson:"_id"`
	Name  string        `bson:"name"`
	Price bson.RawValue `bson:"price"`
	Image string        `bson:"image"`
}

type MongoProductRepo struct {
	collection *mongo.Collection
}

func NewMongoProductRepo(db *mongo.Database) *MongoProductRepo {
	return &MongoProductRepo{collection: db.Collection("products")}
}

func (m *MongoProductRepo) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	filter := bson.M{"_id": id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}

	var doc productDoc
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	price, err := rawDecimal(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	return &domain.Product{
		ID:    rawID(doc.ID),
		Name:  doc.Name,
		Price: price,
		Image: doc.Image,
	}, nil
}

func rawID(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return v.String()
}

func rawDecimal(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case bsontype.Decimal128:
		return fromDecimal128(v.Decimal128())
	case bsontype.Double:
		return decimal.NewFromFloat(v.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(v.Int64()), nil
	case bsontype.String:
		return decimal.NewFromString(v.StringValue())
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported price type %s", v.Type)
	}
}

var _ usecase.ProductLookup = (*MongoProductRepo)(nil)
