package model

// ListingInput is the validated `listing[...]` form payload.
type ListingInput struct {
	Title       string
	Description string
	Location    string
	Country     string
	Price       float64
	Image       string
}

// ReviewInput is the validated `review[...]` form payload.
type ReviewInput struct {
	Rating  int
	Comment string
}

// SignupInput is the validated registration form.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string
	Password string
}
