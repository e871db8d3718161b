package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/library-api/book"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
MongoDB Repository Implementation

- One document per book in a single collection
- A unique index on isbn is the only thing that keeps two books from sharing one
- Updates and deletes use the findOneAnd* commands so each call is a single round trip
*/

const (
	DefaultDatabase   = "library"
	DefaultCollection = "books"
	isbnIndexName     = "isbn_unique"
	connectTimeout    = 10 * time.Second
)

type Repository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewRepository connects to uri, checks the server answers and makes sure the isbn index exists
func NewRepository(ctx context.Context, uri, database, collection string) (*Repository, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	r := &Repository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
	if err := r.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return r, nil
}

// EnsureIndexes creates the unique isbn index, doing nothing when it is already there
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isbn", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(isbnIndexName),
	})
	if err != nil {
		return fmt.Errorf("creating isbn index: %w", err)
	}
	return nil
}

func (r *Repository) Select(ctx context.Context, isbn string) (book.Book, error) {
	var d document
	err := r.collection.FindOne(ctx, bson.D{{Key: "isbn", Value: isbn}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("finding book: %w", err)
	}
	return d.toBook(), nil
}

// SelectAll returns every book in insertion order
func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("finding books: %w", err)
	}
	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding books: %w", err)
	}
	books := make([]book.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.toBook())
	}
	return books, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	res, err := r.collection.InsertOne(ctx, toDocument(b))
	if mongo.IsDuplicateKeyError(err) {
		return book.Book{}, book.ErrDuplicateISBN
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("inserting book: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return book.Book{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	b.ID = id.Hex()
	return b, nil
}

func (r *Repository) Update(ctx context.Context, isbn string, changes book.Changes) (book.Book, error) {
	update := updateDocument(changes)
	if len(update) == 0 {
		return r.Select(ctx, isbn)
	}
	var d document
	err := r.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "isbn", Value: isbn}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return book.Book{}, book.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return book.Book{}, book.ErrDuplicateISBN
	case err != nil:
		return book.Book{}, fmt.Errorf("updating book: %w", err)
	}
	return d.toBook(), nil
}

func (r *Repository) Delete(ctx context.Context, isbn string) (book.Book, error) {
	var d document
	err := r.collection.FindOneAndDelete(ctx, bson.D{{Key: "isbn", Value: isbn}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("deleting book: %w", err)
	}
	return d.toBook(), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client, waiting for in-flight operations up to ctx's deadline
func (r *Repository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

// Drop removes the collection (useful for tests)
func (r *Repository) Drop(ctx context.Context) error {
	if err := r.collection.Drop(ctx); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return nil
}
