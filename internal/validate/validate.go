// Package validate turns untrusted form payloads into typed inputs.
//
// Every violation found is reported, not just the first, and the messages are
// joined with commas into a single 400-class error.
package validate

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

// Error aggregates field-level violations.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return strings.Join(e.Violations, ",")
}

// StatusCode lets the error page render validation failures as 400s.
func (e *Error) StatusCode() int {
	return http.StatusBadRequest
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return val
}

type listingForm struct {
	Title       string   `form:"title" validate:"required"`
	Description string   `form:"description" validate:"required"`
	Location    string   `form:"location" validate:"required"`
	Country     string   `form:"country" validate:"required"`
	Price       *float64 `form:"price" validate:"required,min=0"`
	Image       string   `form:"image"`
}

type reviewForm struct {
	Rating  *int   `form:"rating" validate:"required,min=1,max=5"`
	Comment string `form:"comment" validate:"required"`
}

type signupForm struct {
	Username string `form:"username" validate:"required,max=64"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Listing validates a `listing[...]` payload.
func Listing(form url.Values) (model.ListingInput, error) {
	const obj = "listing"
	if !hasObject(form, obj) {
		return model.ListingInput{}, &Error{Violations: []string{quote(obj) + " is required"}}
	}

	f := nested(form, obj)
	parseErrs := map[string]string{}

	in := listingForm{
		Title:       f("title"),
		Description: f("description"),
		Location:    f("location"),
		Country:     f("country"),
		Image:       f("image"),
	}
	if raw := f("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			parseErrs["price"] = "must be a number"
		} else {
			in.Price = &price
		}
	}

	if err := check(obj, in, parseErrs); err != nil {
		return model.ListingInput{}, err
	}

	return model.ListingInput{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Country:     in.Country,
		Price:       *in.Price,
		Image:       in.Image,
	}, nil
}

// Review validates a `review[...]` payload.
func Review(form url.Values) (model.ReviewInput, error) {
	const obj = "review"
	if !hasObject(form, obj) {
		return model.ReviewInput{}, &Error{Violations: []string{quote(obj) + " is required"}}
	}

	f := nested(form, obj)
	parseErrs := map[string]string{}

	in := reviewForm{Comment: f("comment")}
	if raw := f("rating"); raw != "" {
		rating, msg := parseInt(raw)
		if msg != "" {
			parseErrs["rating"] = msg
		} else {
			in.Rating = &rating
		}
	}

	if err := check(obj, in, parseErrs); err != nil {
		return model.ReviewInput{}, err
	}

	return model.ReviewInput{Rating: *in.Rating, Comment: in.Comment}, nil
}

// Signup validates the registration form.
func Signup(form url.Values) (model.SignupInput, error) {
	in := signupForm{
		Username: strings.TrimSpace(form.Get("username")),
		Email:    strings.TrimSpace(form.Get("email")),
		Password: form.Get("password"),
	}

	if err := check("", in, nil); err != nil {
		return model.SignupInput{}, err
	}

	return model.SignupInput{Username: in.Username, Email: in.Email, Password: in.Password}, nil
}

// check runs the struct rules and merges in numeric parse failures, keeping
// field order.
func check(obj string, s any, parseErrs map[string]string) error {
	var violations []string

	err := v.Struct(s)
	var fieldErrs validator.ValidationErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		return err
	}

	for _, fe := range fieldErrs {
		name := fe.Field()
		if msg, ok := parseErrs[name]; ok {
			violations = append(violations, quote(path(obj, name))+" "+msg)
			continue
		}
		violations = append(violations, quote(path(obj, name))+" "+message(fe))
	}

	if len(violations) == 0 {
		return nil
	}
	return &Error{Violations: violations}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("length must be at least %s characters long", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("length must be less than or equal to %s characters long", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	case "email":
		return "must be a valid email"
	default:
		return "is invalid"
	}
}

// parseInt accepts integral numbers, including forms like "4.0".
func parseInt(raw string) (int, string) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "must be a number"
	}
	if f != math.Trunc(f) {
		return 0, "must be an integer"
	}
	// Out-of-range values only need to keep their sign for the min/max rules.
	f = math.Max(math.Min(f, math.MaxInt32), math.MinInt32)
	return int(f), ""
}

func hasObject(form url.Values, obj string) bool {
	prefix := obj + "["
	for key := range form {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func nested(form url.Values, obj string) func(string) string {
	return func(field string) string {
		return strings.TrimSpace(form.Get(obj + "[" + field + "]"))
	}
}

func path(obj, field string) string {
	if obj == "" {
		return field
	}
	return obj + "." + field
}

func quote(s string) string {
	return `"` + s + `"`
}
