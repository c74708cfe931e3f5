package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civicreport/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	issuesCollection = "issues"
	usersCollection  = "users"
)

// Mongo stores issues and users in a MongoDB database.
type Mongo struct {
	issues *mongo.Collection
	users  *mongo.Collection
	now    func() time.Time
}

func NewMongo(db *mongo.Database, now func() time.Time) *Mongo {
	if now == nil {
		now = time.Now
	}
	return &Mongo{
		issues: db.Collection(issuesCollection),
		users:  db.Collection(usersCollection),
		now:    now,
	}
}

// EnsureIndexes creates the unique email index and the issue lookup indexes.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = m.issues.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create issue indexes: %w", err)
	}
	return nil
}

func (m *Mongo) CreateIssue(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	created := *issue
	created.ID = primitive.NewObjectID()
	created.Status = models.Pending
	created.CreatedAt = m.now().UTC().Truncate(time.Millisecond)
	created.UpdatedAt = created.CreatedAt

	if _, err := m.issues.InsertOne(ctx, created); err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	return &created, nil
}

func (m *Mongo) ListIssues(ctx context.Context) ([]models.Issue, error) {
	return m.findIssues(ctx, bson.M{})
}

func (m *Mongo) ListIssuesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	return m.findIssues(ctx, bson.M{"user_id": userID})
}

func (m *Mongo) findIssues(ctx context.Context, filter bson.M) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := m.issues.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

func (m *Mongo) GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := m.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find issue %s: %w", id.Hex(), err)
	}
	return &issue, nil
}

func (m *Mongo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, allowedFrom []models.IssueStatus, at time.Time) (*models.Issue, error) {
	statusFilter := bson.M{"$ne": status}
	if allowedFrom != nil {
		statusFilter["$in"] = allowedFrom
	}
	filter := bson.M{"_id": id, "status": statusFilter}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": at.UTC().Truncate(time.Millisecond)}}

	var issue models.Issue
	err := m.issues.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&issue)
	if err == nil {
		return &issue, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update issue %s status: %w", id.Hex(), err)
	}

	// Nothing matched: the issue is missing, already has this status, or holds
	// a status the move is not allowed from.
	current, err := m.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, ErrStatusUnchanged
	}
	return current, ErrStatusNotAllowed
}

func (m *Mongo) UpdateAdminNotes(ctx context.Context, id primitive.ObjectID, notes string, at time.Time) (*models.Issue, error) {
	update := bson.M{"$set": bson.M{"admin_notes": notes, "updated_at": at.UTC().Truncate(time.Millisecond)}}

	var issue models.Issue
	err := m.issues.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update issue %s notes: %w", id.Hex(), err)
	}
	return &issue, nil
}

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	created.ID = primitive.NewObjectID()
	created.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if !created.Role.Valid() {
		created.Role = models.RoleCitizen
	}
	created.CreatedAt = m.now().UTC().Truncate(time.Millisecond)
	created.UpdatedAt = created.CreatedAt

	if _, err := m.users.InsertOne(ctx, created); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := m.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (m *Mongo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName string, at time.Time) (*models.User, error) {
	update := bson.M{"$set": bson.M{"full_name": fullName, "updated_at": at.UTC().Truncate(time.Millisecond)}}

	var user models.User
	err := m.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update user %s profile: %w", id.Hex(), err)
	}
	return &user, nil
}

func (m *Mongo) CountUsers(ctx context.Context) (int64, error) {
	count, err := m.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
