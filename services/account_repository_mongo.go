package services

import (
	"context"
	"errors"
	"fmt"

	"driveuploader/models"
	"driveuploader/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	accountsCollection = "accounts"
	countersCollection = "counters"
	accountsCounterID  = "accounts"
)

// MongoAccountRepository stores accounts in MongoDB. Integer ids come from a
// counters collection so accounts keep the same shape as in SQL.
type MongoAccountRepository struct {
	client   *mongo.Client
	accounts *mongo.Collection
	counters *mongo.Collection
}

func NewMongoAccountRepository(ctx context.Context, uri, databaseName string) (*MongoAccountRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(databaseName)
	repo := &MongoAccountRepository{
		client:   client,
		accounts: db.Collection(accountsCollection),
		counters: db.Collection(countersCollection),
	}
	repo.createIndexes(ctx)

	utils.LogInfo("[AccountRepository] Connected to MongoDB database " + databaseName)
	return repo, nil
}

func (r *MongoAccountRepository) createIndexes(ctx context.Context) {
	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	googleIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "google_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}

	if _, err := r.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{emailIndex, googleIDIndex}); err != nil {
		// Indexes may already exist with other options.
		utils.LogWarning("[AccountRepository] Failed to create indexes: " + err.Error())
	}
}

func (r *MongoAccountRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": accountsCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocating account id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoAccountRepository) UpsertGoogleAccount(ctx context.Context, profile models.GoogleProfile, tokens models.OAuthTokens) (*models.Account, error) {
	var existing models.Account
	err := r.accounts.FindOne(ctx, bson.M{"email": profile.Email}).Decode(&existing)

	if errors.Is(err, mongo.ErrNoDocuments) {
		account := newGoogleAccount(profile, tokens)
		if account.ID, err = r.nextID(ctx); err != nil {
			return nil, err
		}

		_, err = r.accounts.InsertOne(ctx, account)
		if err == nil {
			utils.LogInfo(fmt.Sprintf("[AccountRepository] Created account %d (%s)", account.ID, account.Email))
			return &account, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		// A concurrent login created the account first; refresh it instead.
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var account models.Account
	err = r.accounts.FindOneAndUpdate(ctx,
		bson.M{"email": profile.Email},
		bson.M{"$set": bson.M(accountTokenUpdates(profile, tokens))},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&account)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	utils.LogInfo(fmt.Sprintf("[AccountRepository] Updated account %d (%s)", account.ID, account.Email))
	return &account, nil
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := r.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

func (r *MongoAccountRepository) UpdateTokens(ctx context.Context, id int64, tokens models.OAuthTokens) error {
	result, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M(accountTokenUpdates(models.GoogleProfile{}, tokens))},
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *MongoAccountRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
