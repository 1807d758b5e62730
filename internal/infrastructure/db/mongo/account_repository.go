package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sentinela/identity-service/internal/core/domain"
)

const accountCollection = "accounts"

type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type accountDoc struct {
	ID             string `bson:"_id"`
	Email          string `bson:"email"`
	CredentialHash string `bson:"credential_hash"`
	FullName       string `bson:"full_name"`
	Phone          string `bson:"phone,omitempty"`
	Role           string `bson:"role"`
	ApprovalStatus string `bson:"approval_status"`
	ApprovedBy     string `bson:"approved_by,omitempty"`
	ApprovedAt     int64  `bson:"approved_at,omitempty"`
	CreatedAt      int64  `bson:"created_at"`
	UpdatedAt      int64  `bson:"updated_at"`
}

// EnsureIndexes creates the unique index on email. Emails are stored
// normalized, so uniqueness here is case-insensitive by construction.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return docToAccount(doc), nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if _, err := r.coll.InsertOne(ctx, accountToDoc(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) UpdateApprovalStatus(ctx context.Context, email string, status domain.ApprovalStatus, approvedBy string) (*domain.Account, error) {
	now := time.Now().UTC().Unix()
	update := bson.M{"$set": bson.M{
		"approval_status": string(status),
		"approved_by":     approvedBy,
		"approved_at":     now,
		"updated_at":      now,
	}}

	var doc accountDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("update approval: %w", err)
	}
	return docToAccount(doc), nil
}

func (r *AccountRepository) UpdateCredential(ctx context.Context, email, newHash string) error {
	update := bson.M{"$set": bson.M{
		"credential_hash": newHash,
		"updated_at":      time.Now().UTC().Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ListPending(ctx context.Context) ([]*domain.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"approval_status": string(domain.ApprovalPending)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []*domain.Account
	for cur.Next(ctx) {
		var doc accountDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, docToAccount(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return accounts, nil
}

// SeedIfEmpty inserts the bootstrap accounts only when the collection holds
// no documents at all, making repeated startup calls idempotent.
func (r *AccountRepository) SeedIfEmpty(ctx context.Context, seed []*domain.Account) error {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(seed))
	for _, a := range seed {
		docs = append(docs, accountToDoc(a))
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	return nil
}

func accountToDoc(a *domain.Account) accountDoc {
	doc := accountDoc{
		ID:             a.ID,
		Email:          a.Email,
		CredentialHash: a.CredentialHash,
		FullName:       a.FullName,
		Phone:          a.Phone,
		Role:           string(a.Role),
		ApprovalStatus: string(a.ApprovalStatus),
		ApprovedBy:     a.ApprovedBy,
		CreatedAt:      a.CreatedAt.Unix(),
		UpdatedAt:      a.UpdatedAt.Unix(),
	}
	if a.ApprovedAt != nil {
		doc.ApprovedAt = a.ApprovedAt.Unix()
	}
	return doc
}

func docToAccount(doc accountDoc) *domain.Account {
	a := &domain.Account{
		ID:             doc.ID,
		Email:          doc.Email,
		CredentialHash: doc.CredentialHash,
		FullName:       doc.FullName,
		Phone:          doc.Phone,
		Role:           domain.Role(doc.Role),
		ApprovalStatus: domain.ApprovalStatus(doc.ApprovalStatus),
		ApprovedBy:     doc.ApprovedBy,
		CreatedAt:      unixToTime(doc.CreatedAt),
		UpdatedAt:      unixToTime(doc.UpdatedAt),
	}
	if doc.ApprovedAt != 0 {
		t := unixToTime(doc.ApprovedAt)
		a.ApprovedAt = &t
	}
	return a
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
