package repository

import (
	"context"
	"database/sql"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

// ArchiveRepository handles durable persistence of terminal sessions.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository returns repository.
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Insert archives a terminal session together with its settled order.
// order is nil for faulted sessions that never settle. Archiving the
// same session twice is a no-op.
func (r *ArchiveRepository) Insert(ctx context.Context, session *models.ChargingSession, order *models.ChargingOrder) error {
	const query = `
		INSERT INTO charging_sessions_archive
			(session_id, user_id, pile_id, station_id, status, stop_reason, energy_kwh, duration_seconds, start_time, end_time, order_id, total_cost, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (session_id) DO NOTHING
	`
	var orderID sql.NullString
	var totalCost sql.NullFloat64
	if order != nil {
		orderID = sql.NullString{String: order.OrderID, Valid: true}
		totalCost = sql.NullFloat64{Float64: order.TotalCost, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		session.SessionID,
		session.UserID,
		session.PileID,
		session.StationID,
		string(session.Status),
		session.StopReason,
		session.EnergyDelivered,
		session.Duration,
		session.StartTime,
		session.EndTime,
		orderID,
		totalCost,
	)
	return err
}

// ListByUser returns a user's archived sessions, most recent first.
func (r *ArchiveRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ArchivedSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT session_id, user_id, pile_id, station_id, status, stop_reason, energy_kwh, duration_seconds, start_time, end_time, order_id, total_cost, archived_at
		FROM charging_sessions_archive
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ArchivedSession
	for rows.Next() {
		var (
			s         models.ArchivedSession
			orderID   sql.NullString
			totalCost sql.NullFloat64
		)
		if err := rows.Scan(
			&s.SessionID,
			&s.UserID,
			&s.PileID,
			&s.StationID,
			&s.Status,
			&s.StopReason,
			&s.EnergyKWh,
			&s.Duration,
			&s.StartTime,
			&s.EndTime,
			&orderID,
			&totalCost,
			&s.ArchivedAt,
		); err != nil {
			return nil, err
		}
		if orderID.Valid {
			s.OrderID = orderID.String
		}
		if totalCost.Valid {
			v := totalCost.Float64
			s.TotalCost = &v
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
