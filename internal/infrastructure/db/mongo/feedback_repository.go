package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ratewise/feedback-system/internal/core/domain"
	"github.com/ratewise/feedback-system/internal/core/ports"
)

const feedbackCollection = "feedback"

type FeedbackRepository struct {
	coll *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{coll: db.Collection(feedbackCollection)}
}

type mongoFeedback struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	IdentityID string             `bson:"identity_id"`
	ResourceID string             `bson:"resource_id"`
	Rating     int                `bson:"rating"`
	Comment    string             `bson:"comment,omitempty"`
	AuthorName string             `bson:"author_name"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (mf *mongoFeedback) toDomain() *domain.Feedback {
	return &domain.Feedback{
		ID:         mf.ID.Hex(),
		IdentityID: mf.IdentityID,
		ResourceID: mf.ResourceID,
		Rating:     mf.Rating,
		Comment:    mf.Comment,
		AuthorName: mf.AuthorName,
		CreatedAt:  mf.CreatedAt.UTC(),
	}
}

func (r *FeedbackRepository) FindByIdentityAndResource(ctx context.Context, identityID, resourceID string) (*domain.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mf mongoFeedback
	err := r.coll.FindOne(ctx, bson.M{"identity_id": identityID, "resource_id": resourceID}).Decode(&mf)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFeedbackNotFound
		}
		return nil, storeErr("find feedback", err)
	}
	return mf.toDomain(), nil
}

func (r *FeedbackRepository) Insert(ctx context.Context, fb *domain.Feedback) (*domain.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoFeedback{
		IdentityID: fb.IdentityID,
		ResourceID: fb.ResourceID,
		Rating:     fb.Rating,
		Comment:    fb.Comment,
		AuthorName: fb.AuthorName,
		CreatedAt:  fb.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The unique (identity_id, resource_id) index caught a concurrent
			// submission from the same identity.
			return nil, &domain.DuplicateFeedbackError{ResourceID: fb.ResourceID, Author: fb.AuthorName}
		}
		return nil, storeErr("insert feedback", err)
	}

	created := *fb
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *FeedbackRepository) List(ctx context.Context, q ports.FeedbackListQuery) ([]domain.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if q.ResourceID != "" {
		filter["resource_id"] = q.ResourceID
	}
	if q.CommentedOnly {
		filter["comment"] = bson.M{"$exists": true, "$ne": ""}
	}

	opts := options.Find().SetSort(sortSpec(q.SortBy, q.OrderBy))
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("list feedback", err)
	}
	defer cur.Close(ctx)

	var items []domain.Feedback
	for cur.Next(ctx) {
		var mf mongoFeedback
		if err := cur.Decode(&mf); err != nil {
			return nil, storeErr("decode feedback", err)
		}
		items = append(items, *mf.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("list feedback", err)
	}
	return items, nil
}

func (r *FeedbackRepository) DeleteByResource(ctx context.Context, resourceID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"resource_id": resourceID})
	if err != nil {
		return 0, storeErr("delete feedback", err)
	}
	return res.DeletedCount, nil
}

func (r *FeedbackRepository) AverageRating(ctx context.Context, resourceID string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"resource_id": resourceID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "average": bson.M{"$avg": "$rating"}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, storeErr("average rating", err)
	}
	defer cur.Close(ctx)

	var result struct {
		Average float64 `bson:"average"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&result); err != nil {
			return 0, storeErr("decode average", err)
		}
	}
	if err := cur.Err(); err != nil {
		return 0, storeErr("average rating", err)
	}
	return result.Average, nil
}

func (r *FeedbackRepository) CountByResource(ctx context.Context, resourceID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"resource_id": resourceID})
	if err != nil {
		return 0, storeErr("count feedback", err)
	}
	return n, nil
}

// EnsureIndexes creates the feedback indexes. The unique compound index on
// (identity_id, resource_id) gives inserts insert-or-conflict semantics, so a
// concurrent double-submit loses at the store rather than slipping past the
// pre-check.
func (r *FeedbackRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identity_id", Value: 1}, {Key: "resource_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "resource_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// sortSpec maps the public sort parameters to a Mongo sort document with a
// stable created_at ascending tiebreaker.
func sortSpec(sortBy, orderBy string) bson.D {
	field := "created_at"
	if sortBy == ports.SortByRating {
		field = "rating"
	}

	dir := 1
	if orderBy == ports.OrderDesc {
		dir = -1
	}

	if field == "created_at" {
		return bson.D{{Key: field, Value: dir}}
	}
	return bson.D{{Key: field, Value: dir}, {Key: "created_at", Value: 1}}
}
