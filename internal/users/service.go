package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"fare-aggregator/pkg/jwt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)

// Service contains user business logic.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a user service backed by the given pool.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// Register creates a new rider account and returns a JWT.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var exists bool
	_ = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)", req.Email).Scan(&exists)
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id,name,email,password_hash) VALUES ($1,$2,$3,$4)`,
		id, req.Name, req.Email, string(hash))
	if err != nil {
		return nil, err
	}

	token, err := jwt.Generate(id, req.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &User{ID: id, Name: req.Name, Email: req.Email},
	}, nil
}

// Login authenticates a user and returns a JWT.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var u User
	var hash string
	err := s.db.QueryRow(ctx,
		`SELECT id,name,email,password_hash,created_at FROM users WHERE email=$1`,
		req.Email).Scan(&u.ID, &u.Name, &u.Email, &hash, &u.CreatedAt)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.Generate(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: &u}, nil
}

// GetByID fetches a single user by primary key.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT id,name,email,created_at FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

// SaveLocation bookmarks a location for the user.
func (s *Service) SaveLocation(ctx context.Context, userID string, req SaveLocationRequest) (*SavedLocation, error) {
	loc := &SavedLocation{
		ID:          uuid.New().String(),
		Label:       req.Label,
		Address:     req.Address,
		Coordinates: req.Coordinates,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO saved_locations (id,user_id,label,address,lat,lng)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
		loc.ID, userID, loc.Label, loc.Address, loc.Coordinates.Lat, loc.Coordinates.Lng).
		Scan(&loc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// ListLocations returns the user's bookmarks, newest first.
func (s *Service) ListLocations(ctx context.Context, userID string) ([]SavedLocation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id,label,address,lat,lng,created_at FROM saved_locations
		 WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []SavedLocation{}
	for rows.Next() {
		var loc SavedLocation
		if err := rows.Scan(&loc.ID, &loc.Label, &loc.Address,
			&loc.Coordinates.Lat, &loc.Coordinates.Lng, &loc.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// DeleteLocation removes one of the user's bookmarks.
func (s *Service) DeleteLocation(ctx context.Context, userID, locationID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM saved_locations WHERE id=$1 AND user_id=$2`, locationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
