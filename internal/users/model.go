package users

import (
	"time"

	"fare-aggregator/internal/geo"
)

// User represents a rider account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest is the body for POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on register / login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// SavedLocation is a bookmarked pickup or drop point ("Home", "Office").
type SavedLocation struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Address     string         `json:"address"`
	Coordinates geo.Coordinate `json:"coordinates"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// SaveLocationRequest is the body for POST /users/locations.
type SaveLocationRequest struct {
	Label       string         `json:"label"`
	Address     string         `json:"address"`
	Coordinates geo.Coordinate `json:"coordinates"`
}
