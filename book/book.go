package book

/* Book represents a book in relation to the business, so it carries no storage tags.
 * Uses value semantics as it represents data, not behavior
 */
type Book struct {
	ID       string
	Title    string `validate:"required"`
	Author   string `validate:"required"`
	ISBN     string `validate:"required"`
	Price    *float64
	ImageURL string
}

/* Changes holds the fields sent on an update.
 * A nil field is left untouched, a non-nil one replaces the stored value.
 * The optional fields can also be cleared, which a nil pointer cannot express
 */
type Changes struct {
	Title    *string `validate:"omitempty,min=1"`
	Author   *string `validate:"omitempty,min=1"`
	ISBN     *string `validate:"omitempty,min=1"`
	Price    *float64
	ImageURL *string

	ClearPrice    bool
	ClearImageURL bool
}

// IsEmpty reports whether the changes would leave a book as it is
func (c Changes) IsEmpty() bool {
	return c.Title == nil &&
		c.Author == nil &&
		c.ISBN == nil &&
		c.Price == nil &&
		c.ImageURL == nil &&
		!c.ClearPrice &&
		!c.ClearImageURL
}

// Apply returns b with every non-nil field of c copied over
func (c Changes) Apply(b Book) Book {
	if c.Title != nil {
		b.Title = *c.Title
	}
	if c.Author != nil {
		b.Author = *c.Author
	}
	if c.ISBN != nil {
		b.ISBN = *c.ISBN
	}
	if c.Price != nil {
		price := *c.Price
		b.Price = &price
	}
	if c.ImageURL != nil {
		b.ImageURL = *c.ImageURL
	}
	if c.ClearPrice {
		b.Price = nil
	}
	if c.ClearImageURL {
		b.ImageURL = ""
	}
	return b
}
