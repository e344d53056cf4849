package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repo is the storage the handler depends on. Unknown and malformed ids
// both yield ErrNotFound.
type Repo interface {
	Create(ctx context.Context, t Task) (Task, error)
	List(ctx context.Context) ([]Task, error)
	Get(ctx context.Context, id string) (Task, error)
	Update(ctx context.Context, id string, p Patch) (Task, error)
	Delete(ctx context.Context, id string) error
}

type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(CollectionName)}
}

func (r *MongoRepo) Create(ctx context.Context, t Task) (Task, error) {
	t.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (r *MongoRepo) List(ctx context.Context) ([]Task, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	out := []Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return out, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Task{}, ErrNotFound
	}
	var t Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&t); err != nil {
		return Task{}, notFound(err)
	}
	return t, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, p Patch) (Task, error) {
	if p.empty() {
		return r.Get(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Task{}, ErrNotFound
	}
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t Task
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&t); err != nil {
		return Task{}, notFound(err)
	}
	return t, nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
