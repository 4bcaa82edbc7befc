package persistent

import (
	"context"
	"errors"
	"fmt"
	"postfile/storage"
	"postfile/storage/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "posts"
	documentId     = "posts"
)

// postsDocument is the single document that stands in for the posts file.
type postsDocument struct {
	Id    string    `bson:"_id"`
	Items *[]bson.M `bson:"items"`
}

type MongoStorage struct {
	posts *mongo.Collection
}

func (s *MongoStorage) Load(ctx context.Context) (models.Collection, error) {
	var doc postsDocument
	err := s.posts.FindOne(ctx, bson.M{"_id": documentId}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no document with id %v: %w", documentId, storage.NotFoundError)
		}
		return nil, fmt.Errorf("failed to find posts: %s %w", err.Error(), storage.InternalError)
	}
	return fromDocument(doc)
}

func (s *MongoStorage) Save(ctx context.Context, posts models.Collection) error {
	doc := toDocument(posts)
	upsert := true
	opt := options.ReplaceOptions{
		Upsert: &upsert,
	}
	_, err := s.posts.ReplaceOne(ctx, bson.M{"_id": documentId}, doc, &opt)
	if err != nil {
		return fmt.Errorf("failed to replace posts: %s %w", err.Error(), storage.InternalError)
	}
	return nil
}

func toDocument(posts models.Collection) postsDocument {
	items := make([]bson.M, 0, len(posts))
	for _, p := range posts {
		items = append(items, bson.M(p))
	}
	return postsDocument{Id: documentId, Items: &items}
}

func fromDocument(doc postsDocument) (models.Collection, error) {
	if doc.Items == nil {
		return nil, fmt.Errorf("document %v has no items: %w", documentId, storage.InvalidDocumentError)
	}
	posts := make(models.Collection, 0, len(*doc.Items))
	for _, item := range *doc.Items {
		posts = append(posts, models.Post(item))
	}
	return posts, nil
}

func CreateMongoStorage(dbUrl, dbName string) *MongoStorage {
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dbUrl))
	if err != nil {
		panic(err)
	}
	return &MongoStorage{
		posts: client.Database(dbName).Collection(collectionName),
	}
}
