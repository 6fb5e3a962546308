package validate

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingValues() url.Values {
	return url.Values{
		"listing[title]":       {"Cabin"},
		"listing[description]": {"A quiet place"},
		"listing[location]":    {"X"},
		"listing[country]":     {"Y"},
		"listing[price]":       {"100"},
	}
}

func TestListingValid(t *testing.T) {
	in, err := Listing(listingValues())
	require.NoError(t, err)

	assert.Equal(t, "Cabin", in.Title)
	assert.Equal(t, 100.0, in.Price)
	assert.Equal(t, "", in.Image)
}

func TestListingZeroPriceAllowed(t *testing.T) {
	form := listingValues()
	form.Set("listing[price]", "0")

	in, err := Listing(form)
	require.NoError(t, err)
	assert.Equal(t, 0.0, in.Price)
}

func TestListingAggregatesViolations(t *testing.T) {
	form := url.Values{
		"listing[title]": {"   "},
		"listing[price]": {"-5"},
	}

	_, err := Listing(form)
	require.Error(t, err)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		`"listing.title" is required`,
		`"listing.description" is required`,
		`"listing.location" is required`,
		`"listing.country" is required`,
		`"listing.price" must be greater than or equal to 0`,
	}, verr.Violations)
	assert.Equal(t, http.StatusBadRequest, verr.StatusCode())
	assert.Contains(t, err.Error(), `"listing.title" is required,"listing.description" is required`)
}

func TestListingPriceNotANumber(t *testing.T) {
	for _, raw := range []string{"abc", "NaN", "Inf"} {
		form := listingValues()
		form.Set("listing[price]", raw)

		_, err := Listing(form)
		require.Error(t, err, raw)
		assert.Equal(t, `"listing.price" must be a number`, err.Error(), raw)
	}
}

func TestListingMissingObject(t *testing.T) {
	_, err := Listing(url.Values{"title": {"Cabin"}})
	require.Error(t, err)
	assert.Equal(t, `"listing" is required`, err.Error())
}

func TestReviewValid(t *testing.T) {
	in, err := Review(url.Values{"review[rating]": {"4"}, "review[comment]": {"lovely"}})
	require.NoError(t, err)
	assert.Equal(t, 4, in.Rating)
	assert.Equal(t, "lovely", in.Comment)

	in, err = Review(url.Values{"review[rating]": {"5.0"}, "review[comment]": {"ok"}})
	require.NoError(t, err)
	assert.Equal(t, 5, in.Rating)
}

func TestReviewRatingBounds(t *testing.T) {
	cases := map[string]string{
		"0":     `"review.rating" must be greater than or equal to 1`,
		"6":     `"review.rating" must be less than or equal to 5`,
		"-1":    `"review.rating" must be greater than or equal to 1`,
		"1e12":  `"review.rating" must be less than or equal to 5`,
		"3.5":   `"review.rating" must be an integer`,
		"three": `"review.rating" must be a number`,
		"":      `"review.rating" is required`,
	}

	for raw, want := range cases {
		_, err := Review(url.Values{"review[rating]": {raw}, "review[comment]": {"ok"}})
		require.Error(t, err, raw)
		assert.Equal(t, want, err.Error(), raw)
	}
}

func TestReviewMissingComment(t *testing.T) {
	_, err := Review(url.Values{"review[rating]": {"3"}})
	require.Error(t, err)
	assert.Equal(t, `"review.comment" is required`, err.Error())
}

func TestSignup(t *testing.T) {
	in, err := Signup(url.Values{"username": {" alice "}, "email": {"alice@example.com"}, "password": {"pw"}})
	require.NoError(t, err)
	assert.Equal(t, "alice", in.Username)

	_, err = Signup(url.Values{"username": {"alice"}, "email": {"nope"}})
	require.Error(t, err)
	assert.Equal(t, `"email" must be a valid email,"password" is required`, err.Error())
}
