package mongo

import (
	"github.com/marcelsud/library-api/book"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/* document is how a book is laid out in the collection.
 * Field names follow the JSON ones clients use
 */
type document struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Title    string             `bson:"title"`
	Author   string             `bson:"author"`
	ISBN     string             `bson:"isbn"`
	Price    *float64           `bson:"price,omitempty"`
	ImageURL string             `bson:"imageUrl,omitempty"`
}

func toDocument(b book.Book) document {
	return document{
		Title:    b.Title,
		Author:   b.Author,
		ISBN:     b.ISBN,
		Price:    b.Price,
		ImageURL: b.ImageURL,
	}
}

func (d document) toBook() book.Book {
	return book.Book{
		ID:       d.ID.Hex(),
		Title:    d.Title,
		Author:   d.Author,
		ISBN:     d.ISBN,
		Price:    d.Price,
		ImageURL: d.ImageURL,
	}
}

// setFields builds the $set body for the fields present in c
func setFields(c book.Changes) bson.D {
	set := bson.D{}
	if c.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *c.Title})
	}
	if c.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *c.Author})
	}
	if c.ISBN != nil {
		set = append(set, bson.E{Key: "isbn", Value: *c.ISBN})
	}
	if c.Price != nil {
		set = append(set, bson.E{Key: "price", Value: *c.Price})
	}
	if c.ImageURL != nil {
		set = append(set, bson.E{Key: "imageUrl", Value: *c.ImageURL})
	}
	return set
}

// unsetFields lists the optional fields c clears
func unsetFields(c book.Changes) bson.D {
	unset := bson.D{}
	if c.ClearPrice {
		unset = append(unset, bson.E{Key: "price", Value: ""})
	}
	if c.ClearImageURL {
		unset = append(unset, bson.E{Key: "imageUrl", Value: ""})
	}
	return unset
}

// updateDocument combines $set and $unset, leaving out whichever is empty
func updateDocument(c book.Changes) bson.D {
	update := bson.D{}
	if set := setFields(c); len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if unset := unsetFields(c); len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}
