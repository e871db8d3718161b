package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/library-api/book"
)

/*
* Represents the book on the web layer, hence the json tags.
* Every field is a pointer so PUT can tell absent from empty.
 */
type bookRequest struct {
	Title    *string  `json:"title" example:"Dune"`
	Author   *string  `json:"author" example:"Frank Herbert"`
	ISBN     *string  `json:"isbn" example:"978-0441172719"`
	Price    *float64 `json:"price,omitempty" example:"15"`
	ImageURL *string  `json:"imageUrl,omitempty"`
}

func (br bookRequest) toBook() book.Book {
	return book.Book{
		Title:    deref(br.Title),
		Author:   deref(br.Author),
		ISBN:     deref(br.ISBN),
		Price:    br.Price,
		ImageURL: deref(br.ImageURL),
	}
}

// toChanges uses the raw keys of the body to tell an explicit null from an
// absent field. Null clears price and imageUrl and is rejected for the rest.
func (br bookRequest) toChanges(sent map[string]json.RawMessage) (book.Changes, error) {
	var problems []string
	for _, field := range []string{"title", "author", "isbn"} {
		if isNull(sent, field) {
			problems = append(problems, field+" is required")
		}
	}
	if len(problems) > 0 {
		return book.Changes{}, &book.ValidationError{Problems: problems}
	}
	return book.Changes{
		Title:         br.Title,
		Author:        br.Author,
		ISBN:          br.ISBN,
		Price:         br.Price,
		ImageURL:      br.ImageURL,
		ClearPrice:    isNull(sent, "price"),
		ClearImageURL: isNull(sent, "imageUrl"),
	}, nil
}

func isNull(sent map[string]json.RawMessage, field string) bool {
	v, ok := sent[field]
	return ok && bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

/*
* Represents the book on the web layer
 */
type bookResponse struct {
	ID       string   `json:"id" example:"6650b0a1c2d3e4f5a6b7c8d9"`
	Title    string   `json:"title" example:"Dune"`
	Author   string   `json:"author" example:"Frank Herbert"`
	ISBN     string   `json:"isbn" example:"978-0441172719"`
	Price    *float64 `json:"price,omitempty" example:"15"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

func newBookResponse(b book.Book) bookResponse {
	return bookResponse{
		ID:       b.ID,
		Title:    b.Title,
		Author:   b.Author,
		ISBN:     b.ISBN,
		Price:    b.Price,
		ImageURL: b.ImageURL,
	}
}

type errorResponse struct {
	Message string `json:"message" example:"book not found"`
}

// getBooks godoc
// @Summary List books
// @Description Returns every stored book, in store order
// @Tags books
// @Produce json
// @Success 200 {array} bookResponse
// @Failure 500 {object} errorResponse
// @Router / [get]
func getBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := bookService.List(r.Context())
		if err != nil {
			writeError(w, r, err, "error fetching books")
			return
		}
		result := make([]bookResponse, 0, len(all))
		for _, b := range all {
			result = append(result, newBookResponse(b))
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// getBook godoc
// @Summary Get a book
// @Description Returns the book with the given ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Success 200 {object} bookResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /{isbn} [get]
func getBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := bookService.Get(r.Context(), chi.URLParam(r, "isbn"))
		if err != nil {
			writeError(w, r, err, "error fetching book")
			return
		}
		writeJSON(w, http.StatusOK, newBookResponse(b))
	})
}

// postBooks godoc
// @Summary Create a book
// @Description Stores a new book; title, author and isbn are required and isbn must be unique
// @Tags books
// @Accept json
// @Produce json
// @Param book body bookRequest true "Book to create"
// @Success 201 {object} bookResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router / [post]
func postBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var br bookRequest
		if err := decodeBody(r, &br); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
			return
		}
		b, err := bookService.Create(r.Context(), br.toBook())
		if err != nil {
			writeError(w, r, err, "error creating book")
			return
		}
		writeJSON(w, http.StatusCreated, newBookResponse(b))
	})
}

// putBook godoc
// @Summary Update a book
// @Description Replaces the fields present in the body; absent fields keep their stored value, null clears price and imageUrl
// @Tags books
// @Accept json
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Param book body bookRequest true "Fields to replace"
// @Success 200 {object} bookResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /{isbn} [put]
func putBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := decodeBody(r, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
			return
		}
		var br bookRequest
		var sent map[string]json.RawMessage
		if json.Unmarshal(body, &br) != nil || json.Unmarshal(body, &sent) != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
			return
		}
		changes, err := br.toChanges(sent)
		if err != nil {
			writeError(w, r, err, "error updating book")
			return
		}
		b, err := bookService.Update(r.Context(), chi.URLParam(r, "isbn"), changes)
		if err != nil {
			writeError(w, r, err, "error updating book")
			return
		}
		writeJSON(w, http.StatusOK, newBookResponse(b))
	})
}

// deleteBook godoc
// @Summary Delete a book
// @Description Removes the book with the given ISBN and returns it
// @Tags books
// @Produce json
// @Param isbn path string true "Book ISBN"
// @Success 200 {object} bookResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /{isbn} [delete]
func deleteBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := bookService.Delete(r.Context(), chi.URLParam(r, "isbn"))
		if err != nil {
			writeError(w, r, err, "error deleting book")
			return
		}
		writeJSON(w, http.StatusOK, newBookResponse(b))
	})
}

// writeError maps use case errors to status codes. Store failures are logged
// and answered with the fixed message only.
func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var verr *book.ValidationError
	switch {
	case errors.Is(err, book.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: book.ErrNotFound.Error()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Error()})
	case errors.Is(err, book.ErrDuplicateISBN):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: book.ErrDuplicateISBN.Error()})
	default:
		oplog := httplog.LogEntry(r.Context())
		oplog.Error().Err(err).Msg(message)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: message})
	}
}

// decodeBody reads exactly one JSON value; anything after it is an error
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
