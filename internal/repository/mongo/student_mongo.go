package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"studentapi/internal/model"
	"studentapi/internal/repository"
)

// studentDocument is the stored shape; ids are driver-generated ObjectIDs.
type studentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Age       int                `bson:"age"`
	Course    string             `bson:"course"`
	FileURL   string             `bson:"fileUrl,omitempty"`
	FileKey   string             `bson:"fileKey,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty"`
}

func (d studentDocument) toModel() *model.Student {
	s := &model.Student{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Age:       d.Age,
		Course:    d.Course,
		FileURL:   d.FileURL,
		FileKey:   d.FileKey,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		s.UpdatedAt = &t
	}
	return s
}

// StudentMongo is a MongoDB implementation of repository.StudentRepository.
type StudentMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewStudentMongo binds the repository to a collection of db.
func NewStudentMongo(db *mongo.Database, collection string) *StudentMongo {
	return &StudentMongo{
		coll: db.Collection(collection),
		// BSON datetimes have millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

var _ repository.StudentRepository = (*StudentMongo)(nil)

func (r *StudentMongo) Create(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	doc := studentDocument{
		ID:        primitive.NewObjectID(),
		Name:      in.Name,
		Age:       in.Age,
		Course:    in.Course,
		FileURL:   in.FileURL,
		FileKey:   in.FileKey,
		CreatedAt: r.now(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// List returns students in _id order, which follows insertion time.
func (r *StudentMongo) List(ctx context.Context) ([]model.Student, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []studentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]model.Student, 0, len(docs))
	for _, d := range docs {
		items = append(items, *d.toModel())
	}
	return items, nil
}

func (r *StudentMongo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc studentDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

// Update applies the change in one findAndModify. The pipeline form keeps
// updatedAt from ever being set before createdAt. Caller values go through
// $literal: inside a pipeline a string starting with "$" is a field path.
func (r *StudentMongo) Update(ctx context.Context, id string, in model.StudentInput) (*model.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "name", Value: literal(in.Name)},
		{Key: "age", Value: literal(in.Age)},
		{Key: "course", Value: literal(in.Course)},
		{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{literal(r.now()), "$createdAt"}}}},
	}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc studentDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func (r *StudentMongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudentMongo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
