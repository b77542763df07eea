package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fare-aggregator/internal/providers"
)

// ErrRecordNotFound is returned by follow-up operations against a record
// that was never written or has a different ID.
var ErrRecordNotFound = errors.New("search record not found")

// RecordStore persists search audit records. Records never expire; the
// popularity report aggregates over the full history.
type RecordStore interface {
	Insert(ctx context.Context, rec *Record) error
	SetSelectedProvider(ctx context.Context, id, provider string) error
	ListByUser(ctx context.Context, userID string, page, limit int) ([]Record, int, error)
	PopularRoutes(ctx context.Context, limit int) ([]PopularRoute, error)
}

// PGStore is the PostgreSQL RecordStore. Quotes are stored as JSONB so the
// popularity report can average prices without a quotes table.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a record store backed by the given pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, rec *Record) error {
	quotes, err := json.Marshal(rec.Quotes)
	if err != nil {
		return fmt.Errorf("marshal quotes: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO search_records
		   (id, user_id, from_address, from_lat, from_lng,
		    to_address, to_lat, to_lng, vehicle_class,
		    distance_km, duration_min, quotes,
		    session_id, ip_address, user_agent, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.UserID, rec.From.Address, rec.From.Coordinates.Lat, rec.From.Coordinates.Lng,
		rec.To.Address, rec.To.Coordinates.Lat, rec.To.Coordinates.Lng, string(rec.VehicleClass),
		rec.DistanceKm, rec.DurationMin, quotes,
		rec.SessionID, rec.IPAddress, rec.UserAgent, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert search record: %w", err)
	}
	return nil
}

func (s *PGStore) SetSelectedProvider(ctx context.Context, id, provider string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE search_records SET selected_provider=$1 WHERE id=$2`, provider, id)
	if err != nil {
		return fmt.Errorf("set selected provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID string, page, limit int) ([]Record, int, error) {
	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM search_records WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search records: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, from_address, from_lat, from_lng,
		        to_address, to_lat, to_lng, vehicle_class,
		        distance_km, duration_min, quotes, selected_provider,
		        session_id, ip_address, user_agent, created_at
		 FROM search_records
		 WHERE user_id=$1
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		userID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list search records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var class string
		var quotes []byte
		if err := rows.Scan(&rec.ID, &rec.UserID,
			&rec.From.Address, &rec.From.Coordinates.Lat, &rec.From.Coordinates.Lng,
			&rec.To.Address, &rec.To.Coordinates.Lat, &rec.To.Coordinates.Lng, &class,
			&rec.DistanceKm, &rec.DurationMin, &quotes, &rec.SelectedProvider,
			&rec.SessionID, &rec.IPAddress, &rec.UserAgent, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan search record: %w", err)
		}
		rec.VehicleClass = providers.VehicleClass(class)
		if err := json.Unmarshal(quotes, &rec.Quotes); err != nil {
			return nil, 0, fmt.Errorf("unmarshal quotes for %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// PopularRoutes groups the full history by route and vehicle class,
// averaging quoted prices across each route's quotes.
func (s *PGStore) PopularRoutes(ctx context.Context, limit int) ([]PopularRoute, error) {
	rows, err := s.db.Query(ctx,
		`SELECT sr.from_address, sr.to_address, sr.vehicle_class,
		        COUNT(DISTINCT sr.id) AS search_count,
		        COALESCE(AVG((q.value->>'price')::numeric), 0) AS avg_price,
		        MAX(sr.created_at) AS last_queried
		 FROM search_records sr
		 LEFT JOIN LATERAL jsonb_array_elements(sr.quotes) q ON (q.value->>'price') IS NOT NULL
		 GROUP BY sr.from_address, sr.to_address, sr.vehicle_class
		 ORDER BY search_count DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("popular routes: %w", err)
	}
	defer rows.Close()

	var routes []PopularRoute
	for rows.Next() {
		var pr PopularRoute
		if err := rows.Scan(&pr.FromAddress, &pr.ToAddress, &pr.VehicleClass,
			&pr.Count, &pr.AvgPrice, &pr.LastQueried); err != nil {
			return nil, fmt.Errorf("scan popular route: %w", err)
		}
		routes = append(routes, pr)
	}
	return routes, rows.Err()
}
