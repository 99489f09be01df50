package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/template"
)

const mongoCollection = "templates"

// MongoStore persists templates in a MongoDB collection keyed by template
// id.
type MongoStore struct {
	coll *mongo.Collection
}

// mongoTemplate is the stored document shape.
type mongoTemplate struct {
	ID       string             `bson:"_id"`
	Name     string             `bson:"name"`
	Template *template.Template `bson:"template"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = "cardforge"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	return &MongoStore{coll: client.Database(database).Collection(mongoCollection)}, nil
}

// Save stores a template, replacing any previous version wholesale.
func (s *MongoStore) Save(ctx context.Context, t *template.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	doc := mongoTemplate{ID: t.ID, Name: t.Name, Template: t}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": t.ID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "store template")
	}
	return t.ID, nil
}

// Load retrieves a template by id.
func (s *MongoStore) Load(ctx context.Context, id string) (*template.Template, error) {
	var doc mongoTemplate
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "no template with id %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load template")
	}
	return doc.Template, nil
}

// List returns summaries of all stored templates.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1, "name": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list templates")
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc mongoTemplate
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode template summary")
		}
		out = append(out, Summary{ID: doc.ID, Name: doc.Name})
	}
	return out, cur.Err()
}

// Delete removes a template. Deleting an unknown id is not an error.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete template")
	}
	return nil
}
