// Package request decodes and validates candidate movie queries.
package request

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/moviefestival/forecaster/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// principalArg accepts either {"name": ..., "role": ...} or [name, role]
type principalArg models.Principal

func (p *principalArg) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var pair []string
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("principal pair must contain strings: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("principal pair must be [name, role], got %d elements", len(pair))
		}
		p.Name, p.Role = pair[0], pair[1]
		return nil
	}

	var obj struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("principal must be an object or [name, role] pair: %w", err)
	}
	p.Name, p.Role = obj.Name, obj.Role
	return nil
}

type queryBody struct {
	Title       string         `json:"title"`
	Genres      []string       `json:"genres"`
	Principals  []principalArg `json:"principals"`
	ReleaseYear int            `json:"releaseYear"`
}

func (b queryBody) query() models.CandidateQuery {
	q := models.CandidateQuery{
		Title:       b.Title,
		Genres:      b.Genres,
		ReleaseYear: b.ReleaseYear,
	}
	if q.Genres == nil {
		q.Genres = []string{}
	}
	for _, p := range b.Principals {
		q.Principals = append(q.Principals, models.Principal(p))
	}
	return q
}

// FromArgs builds a query from the four positional get-rating arguments:
// title, a JSON array of genres, a JSON array of principals and the release
// year. The decoded query is validated like a request body.
func FromArgs(title, genres, principals, releaseYear string) (models.CandidateQuery, error) {
	body := queryBody{Title: title}

	if err := json.Unmarshal([]byte(genres), &body.Genres); err != nil {
		return models.CandidateQuery{}, fmt.Errorf("genres must be a JSON array of strings: %w", err)
	}
	if err := json.Unmarshal([]byte(principals), &body.Principals); err != nil {
		return models.CandidateQuery{}, fmt.Errorf("principals must be a JSON array: %w", err)
	}

	year, err := strconv.Atoi(strings.TrimSpace(releaseYear))
	if err != nil {
		return models.CandidateQuery{}, fmt.Errorf("release year must be an integer: %w", err)
	}
	body.ReleaseYear = year

	q := body.query()
	if err := Validate(q); err != nil {
		return models.CandidateQuery{}, err
	}
	return q, nil
}

// Decode reads a JSON request body and validates it
func Decode(r io.Reader) (models.CandidateQuery, error) {
	var body queryBody
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return models.CandidateQuery{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if body.Genres == nil {
		return models.CandidateQuery{}, &ValidationError{Fields: map[string]string{"genres": "genres is required"}}
	}

	q := body.query()
	if err := Validate(q); err != nil {
		return models.CandidateQuery{}, err
	}
	return q, nil
}

// ValidationError lists the invalid fields of a query
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the struct tags of a candidate query
func Validate(q models.CandidateQuery) error {
	err := getValidator().Struct(q)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fields[fieldKey(fe)] = translateError(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldKey(fe validator.FieldError) string {
	switch {
	case strings.HasPrefix(fe.Field(), "Genres"):
		return "genres"
	case strings.HasPrefix(fe.StructNamespace(), "CandidateQuery.Principals"):
		return "principals"
	case fe.Field() == "Title":
		return "title"
	case fe.Field() == "ReleaseYear":
		return "releaseYear"
	default:
		return fe.Field()
	}
}

func translateError(fe validator.FieldError) string {
	switch fieldKey(fe) {
	case "title":
		return "title is required"
	case "genres":
		if fe.Tag() == "required" && fe.Field() == "Genres" {
			return "genres is required"
		}
		return "genres must not contain empty strings"
	case "principals":
		return "every principal needs a name"
	case "releaseYear":
		return "releaseYear must be a positive integer"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
