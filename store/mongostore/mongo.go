// Package mongostore persists users, budgets and expenses in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	budgets  *mongo.Collection
	expenses *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect opens the client, checks the connection and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		users:    db.Collection("users"),
		budgets:  db.Collection("budgets"),
		expenses: db.Collection("expenses"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	if _, err := s.budgets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create budgets index: %w", err)
	}

	if _, err := s.expenses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create expenses index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// ============================================================================
// USERS
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) UpdateTOTP(ctx context.Context, id, secret string, enabled bool) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"totpSecret":  secret,
		"totpEnabled": enabled,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.users.CountDocuments(ctx, bson.D{})
}

// ============================================================================
// BUDGETS
// ============================================================================

func (s *Store) GetBudget(ctx context.Context, userID string) (*models.Budget, error) {
	var b models.Budget
	if err := s.budgets.FindOne(ctx, bson.M{"userId": userID}).Decode(&b); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Store) UpsertBudget(ctx context.Context, userID string, amount float64, period string, now time.Time) (*models.Budget, error) {
	set := bson.M{"amount": amount, "updatedAt": now}
	setOnInsert := bson.M{"_id": uuid.NewString(), "createdAt": now}
	if period != "" {
		set["period"] = period
	} else {
		setOnInsert["period"] = models.PeriodMonthly
	}

	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var b models.Budget
	err := s.budgets.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&b)
	if mongo.IsDuplicateKeyError(err) {
		// Two first-time upserts raced on the unique userId index; the loser
		// now matches the winner's document.
		log.Printf("[Mongo] budget upsert raced for user %s, retrying", userID)
		err = s.budgets.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&b)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CountBudgets(ctx context.Context) (int64, error) {
	return s.budgets.CountDocuments(ctx, bson.D{})
}

// ============================================================================
// EXPENSES
// ============================================================================

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	if _, err := s.expenses.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) CreateExpenses(ctx context.Context, es []*models.Expense) error {
	if len(es) == 0 {
		return nil
	}
	_, err := s.expenses.InsertMany(ctx, es)
	return err
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var e models.Expense
	if err := s.expenses.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func dateRange(from, to time.Time) bson.M {
	r := bson.M{}
	if !from.IsZero() {
		r["$gte"] = from
	}
	if !to.IsZero() {
		r["$lt"] = to
	}
	return r
}

func (s *Store) ListExpenses(ctx context.Context, userID string, f models.ExpenseFilter) ([]models.Expense, error) {
	filter := bson.M{"userId": userID}
	if r := dateRange(f.From, f.To); len(r) > 0 {
		filter["date"] = r
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := s.expenses.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	expenses := []models.Expense{}
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id, userID string) error {
	res, err := s.expenses.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

type categoryTotal struct {
	Category string  `bson:"_id"`
	Total    float64 `bson:"total"`
}

func (s *Store) SumByCategory(ctx context.Context, userID string, from, to time.Time) (map[string]float64, error) {
	match := bson.M{"userId": userID}
	if r := dateRange(from, to); len(r) > 0 {
		match["date"] = r
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}

	cursor, err := s.expenses.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []categoryTotal
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(rows))
	for _, r := range rows {
		totals[r.Category] = r.Total
	}
	return totals, nil
}

func (s *Store) TotalExpenses(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}

	cursor, err := s.expenses.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *Store) ForEachExpense(ctx context.Context, fn func(models.Expense) error) error {
	cursor, err := s.expenses.Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var e models.Expense
		if err := cursor.Decode(&e); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *Store) UpdateClassification(ctx context.Context, id, category, typ string) error {
	res, err := s.expenses.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"category": category,
		"type":     typ,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
