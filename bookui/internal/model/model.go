package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is the server-assigned book identifier. It is opaque: the JSON token it was
// received as, number or string, is written back unchanged.
type ID struct {
	value  string
	number bool
}

// NewID is a string identifier, as taken from a path parameter.
func NewID(v string) ID {
	return ID{value: v}
}

func NumberID(n json.Number) ID {
	return ID{value: n.String(), number: true}
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = NewID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = NumberID(n)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.number {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id ID) String() string {
	return id.value
}

// Matches compares identifiers by their text, whatever JSON form they came in.
func (id ID) Matches(other ID) bool {
	return id.value == other.value
}

type Book struct {
	ID            ID     `json:"id"`
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	PublishedYear int    `json:"published_year" validate:"required"`
	Genre         string `json:"genre" validate:"required"`
	Description   string `json:"description" validate:"required"`
}

// YearText renders the year the way a number input shows it: empty when unset.
func (b Book) YearText() string {
	if b.PublishedYear == 0 {
		return ""
	}
	return strconv.Itoa(b.PublishedYear)
}

// CreateBookRequest is the create payload, a Book without its identifier.
type CreateBookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"published_year"`
	Genre         string `json:"genre"`
	Description   string `json:"description"`
}

func NewCreateBookRequest(b Book) CreateBookRequest {
	return CreateBookRequest{
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		Genre:         b.Genre,
		Description:   b.Description,
	}
}

// Input names shared by the add form and the edit modal.
const (
	FieldTitle         = "title"
	FieldAuthor        = "author"
	FieldPublishedYear = "published_year"
	FieldGenre         = "genre"
	FieldDescription   = "description"
)

var Fields = []string{FieldTitle, FieldAuthor, FieldPublishedYear, FieldGenre, FieldDescription}

type InputRequest struct {
	Name  string `json:"name" form:"name" validate:"required,oneof=title author published_year genre description"`
	Value string `json:"value" form:"value"`
}
