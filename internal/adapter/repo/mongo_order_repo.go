package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/usecase"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type lineItemDoc struct {
	ProductID string               `bson:"product"`
	Quantity  int                  `bson:"amount"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user"`
	Items           []lineItemDoc        `bson:"orderItems"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	Tax             primitive.Decimal128 `bson:"tax"`
	ShippingFee     primitive.Decimal128 `bson:"shippingFee"`
	Total           primitive.Decimal128 `bson:"total"`
	Currency        string               `bson:"currency"`
	ClientSecret    string               `bson:"clientSecret"`
	PaymentIntentID string               `bson:"paymentIntentId,omitempty"`
	Status          string               `bson:"status"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type MongoOrderRepo struct {
	collection *mongo.Collection
}

func NewMongoOrderRepo(db *mongo.Database) *MongoOrderRepo {
	return &MongoOrderRepo{collection: db.Collection("orders")}
}

func (m *MongoOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	doc, err := toOrderDoc(o)
	if err != nil {
		return err
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return fromOrderDoc(doc)
}

func (m *MongoOrderRepo) List(ctx context.Context, f usecase.OrderFilter) ([]domain.Order, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user"] = f.UserID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cur.Close(ctx)

	orders := []domain.Order{}
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		o, err := fromOrderDoc(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

func (m *MongoOrderRepo) Save(ctx context.Context, o *domain.Order) error {
	doc, err := toOrderDoc(o)
	if err != nil {
		return err
	}
	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": o.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepo) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func toOrderDoc(o *domain.Order) (orderDoc, error) {
	var err error
	amount := func(d decimal.Decimal) primitive.Decimal128 {
		if err != nil {
			return primitive.Decimal128{}
		}
		var v primitive.Decimal128
		v, err = toDecimal128(d)
		return v
	}

	doc := orderDoc{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           make([]lineItemDoc, 0, len(o.Items)),
		Subtotal:        amount(o.Subtotal),
		Tax:             amount(o.Tax),
		ShippingFee:     amount(o.ShippingFee),
		Total:           amount(o.Total),
		Currency:        o.Currency,
		ClientSecret:    o.ClientSecret,
		PaymentIntentID: o.PaymentIntentID,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, li := range o.Items {
		doc.Items = append(doc.Items, lineItemDoc{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Name:      li.Name,
			Price:     amount(li.Price),
			Image:     li.Image,
		})
	}
	if err != nil {
		return orderDoc{}, fmt.Errorf("encode order %s: %w", o.ID, err)
	}
	return doc, nil
}

func fromOrderDoc(doc orderDoc) (*domain.Order, error) {
	var err error
	amount := func(v primitive.Decimal128) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var d decimal.Decimal
		d, err = fromDecimal128(v)
		return d
	}

	o := &domain.Order{
		ID:              doc.ID,
		UserID:          doc.UserID,
		Items:           make([]domain.LineItem, 0, len(doc.Items)),
		Subtotal:        amount(doc.Subtotal),
		Tax:             amount(doc.Tax),
		ShippingFee:     amount(doc.ShippingFee),
		Total:           amount(doc.Total),
		Currency:        doc.Currency,
		ClientSecret:    doc.ClientSecret,
		PaymentIntentID: doc.PaymentIntentID,
		Status:          domain.Status(doc.Status),
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	for _, li := range doc.Items {
		o.Items = append(o.Items, domain.LineItem{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Name:      li.Name,
			Price:     amount(li.Price),
			Image:     li.Image,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("decode order %s: %w", doc.ID, err)
	}
	return o, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

var _ usecase.OrderRepo = (*MongoOrderRepo)(nil)
