package user

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput       = errors.New("email and password are required")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

// DefaultCountry is applied to an address supplied without a country.
const DefaultCountry = "India"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Profile      *Profile  `json:"profile,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Profile struct {
	FullName    string   `json:"fullName,omitempty" bson:"fullName,omitempty"`
	DateOfBirth string   `json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	Phone       string   `json:"phone,omitempty" bson:"phone,omitempty"`
	Address     *Address `json:"address,omitempty" bson:"address,omitempty"`
	Gender      string   `json:"gender,omitempty" bson:"gender,omitempty"`
	Occupation  string   `json:"occupation,omitempty" bson:"occupation,omitempty"`
}

type Address struct {
	Line1   string `json:"line1,omitempty" bson:"line1,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Pincode string `json:"pincode,omitempty" bson:"pincode,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

// Normalize fills schema defaults. A nil profile stays nil.
func (p *Profile) Normalize() *Profile {
	if p == nil {
		return nil
	}

	out := *p
	if p.Address != nil {
		addr := *p.Address
		if addr.Country == "" {
			addr.Country = DefaultCountry
		}
		out.Address = &addr
	}

	return &out
}

// PublicView is the only shape of a user that leaves the service.
type PublicView struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Profile  *Profile `json:"profile"`
	Verified bool     `json:"verified"`
}

func (u User) Public() PublicView {
	return PublicView{
		ID:       u.ID,
		Email:    u.Email,
		Profile:  u.Profile,
		Verified: u.Verified,
	}
}
