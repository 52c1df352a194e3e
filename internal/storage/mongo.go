package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const driverMongo = "mongo"

// Collection names. They match the documents the app side writes.
const (
	CollectionBindings        = "bindings"
	CollectionUsers           = "users"
	CollectionReminders       = "reminders"
	CollectionMedicineRecords = "medicine_records"
)

// MongoStore is the MongoDB backend.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	metrics  MetricsRecorder
}

// NewMongo connects to MongoDB, verifies the connection and ensures indexes.
func NewMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, config.MongoConnect)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(config.MongoConnect)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client:   client,
		database: client.Database(dbName),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionBindings: {
			{Keys: bson.D{{Key: "lineUserId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionUsers: {
			{Keys: bson.D{{Key: "lineUserId", Value: 1}}},
		},
		CollectionReminders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "hour", Value: 1}, {Key: "minute", Value: 1}}},
		},
		CollectionMedicineRecords: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), config.MongoConnect)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Driver implements Store.
func (s *MongoStore) Driver() string {
	return driverMongo
}

// SetMetrics sets the metrics recorder for store operations.
func (s *MongoStore) SetMetrics(recorder MetricsRecorder) {
	s.metrics = recorder
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.client.Ping(ctx, readpref.Primary())
	return s.observe(ctx, "Ping", start, err)
}

// GetBinding retrieves the binding for a LINE user.
func (s *MongoStore) GetBinding(ctx context.Context, lineUserID string) (*Binding, error) {
	start := time.Now()
	var b Binding
	err := s.database.Collection(CollectionBindings).
		FindOne(ctx, bson.M{"lineUserId": lineUserID}).
		Decode(&b)
	if err = s.observe(ctx, "GetBinding", start, notFound(err)); err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBinding upserts on lineUserId. Fields other than lastActiveAt are
// only written when the document is created. b is overwritten with the
// stored document.
func (s *MongoStore) InsertBinding(ctx context.Context, b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	var appUserID any
	if b.AccountID != "" {
		appUserID = b.AccountID
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":       b.ID,
			"appUserId": appUserID,
			"boundAt":   b.BoundAt,
			"source":    b.Source,
		},
		"$max": bson.M{"lastActiveAt": b.LastActiveAt},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	start := time.Now()
	var stored Binding
	err := s.database.Collection(CollectionBindings).
		FindOneAndUpdate(ctx, bson.M{"lineUserId": b.LineUserID}, update, opts).
		Decode(&stored)
	if err = s.observe(ctx, "InsertBinding", start, err); err != nil {
		return err
	}
	*b = stored
	return nil
}

// TouchBinding advances lastActiveAt, never moving it backwards.
func (s *MongoStore) TouchBinding(ctx context.Context, lineUserID string, at time.Time) error {
	start := time.Now()
	_, err := s.database.Collection(CollectionBindings).
		UpdateOne(ctx, bson.M{"lineUserId": lineUserID}, bson.M{"$max": bson.M{"lastActiveAt": at}})
	return s.observe(ctx, "TouchBinding", start, err)
}

// CountBindings returns the total number of bindings.
func (s *MongoStore) CountBindings(ctx context.Context) (int, error) {
	return s.count(ctx, "CountBindings", CollectionBindings, bson.M{})
}

// FindAccountByLineUserID returns the first user document referencing the LINE user.
func (s *MongoStore) FindAccountByLineUserID(ctx context.Context, lineUserID string) (*Account, error) {
	start := time.Now()
	var a Account
	err := s.database.Collection(CollectionUsers).
		FindOne(ctx, bson.M{"lineUserId": lineUserID}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).
		Decode(&a)
	if err = s.observe(ctx, "FindAccountByLineUserID", start, notFound(err)); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAccount inserts or replaces a user document.
func (s *MongoStore) SaveAccount(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	start := time.Now()
	_, err := s.database.Collection(CollectionUsers).
		ReplaceOne(ctx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	return s.observe(ctx, "SaveAccount", start, err)
}

// ListReminders returns an account's reminders ordered by time of day.
func (s *MongoStore) ListReminders(ctx context.Context, accountID string) ([]Reminder, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "hour", Value: 1},
		{Key: "minute", Value: 1},
		{Key: "_id", Value: 1},
	})

	start := time.Now()
	var reminders []Reminder
	err := s.findAll(ctx, CollectionReminders, bson.M{"userId": accountID}, opts, &reminders)
	if err = s.observe(ctx, "ListReminders", start, err); err != nil {
		return nil, err
	}
	return reminders, nil
}

// GetReminder retrieves one reminder of an account.
func (s *MongoStore) GetReminder(ctx context.Context, accountID, reminderID string) (*Reminder, error) {
	start := time.Now()
	var r Reminder
	err := s.database.Collection(CollectionReminders).
		FindOne(ctx, bson.M{"_id": reminderID, "userId": accountID}).
		Decode(&r)
	if err = s.observe(ctx, "GetReminder", start, notFound(err)); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveReminder inserts or replaces a reminder document.
func (s *MongoStore) SaveReminder(ctx context.Context, r *Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	start := time.Now()
	_, err := s.database.Collection(CollectionReminders).
		ReplaceOne(ctx, bson.M{"_id": r.ID, "userId": r.AccountID}, r, options.Replace().SetUpsert(true))
	return s.observe(ctx, "SaveReminder", start, err)
}

// CountReminders returns how many reminders an account has.
func (s *MongoStore) CountReminders(ctx context.Context, accountID string) (int, error) {
	return s.count(ctx, "CountReminders", CollectionReminders, bson.M{"userId": accountID})
}

// AppendRecord inserts a medicine record.
func (s *MongoStore) AppendRecord(ctx context.Context, rec *MedicineRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	start := time.Now()
	_, err := s.database.Collection(CollectionMedicineRecords).InsertOne(ctx, rec)
	return s.observe(ctx, "AppendRecord", start, err)
}

// RecentRecords returns the newest records of an account.
func (s *MongoStore) RecentRecords(ctx context.Context, accountID string, limit int) ([]MedicineRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	start := time.Now()
	var records []MedicineRecord
	err := s.findAll(ctx, CollectionMedicineRecords, bson.M{"userId": accountID}, opts, &records)
	if err = s.observe(ctx, "RecentRecords", start, err); err != nil {
		return nil, err
	}
	return records, nil
}

// CountRecords returns how many medicine records an account has.
func (s *MongoStore) CountRecords(ctx context.Context, accountID string) (int, error) {
	return s.count(ctx, "CountRecords", CollectionMedicineRecords, bson.M{"userId": accountID})
}

func (s *MongoStore) findAll(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions, out any) error {
	cursor, err := s.database.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (s *MongoStore) count(ctx context.Context, op, collection string, filter bson.M) (int, error) {
	start := time.Now()
	n, err := s.database.Collection(collection).CountDocuments(ctx, filter)
	if err = s.observe(ctx, op, start, err); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *MongoStore) observe(ctx context.Context, op string, start time.Time, err error) error {
	return observe(ctx, s.metrics, driverMongo, op, start, err)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
