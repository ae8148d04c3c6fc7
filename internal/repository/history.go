package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scorebug/scorebug-server/internal/model"
)

type LinkEventRepository interface {
	Record(ctx context.Context, params model.RecordLinkEventParams) error
	Recent(ctx context.Context, limit int) ([]model.LinkEvent, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type linkEventRepo struct {
	db *sqlx.DB
}

func NewLinkEventRepository(db *sqlx.DB) LinkEventRepository {
	return &linkEventRepo{db: db}
}

func (r *linkEventRepo) Record(ctx context.Context, params model.RecordLinkEventParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO link_events (event_type, device_name, detail, ip)
		VALUES ($1, $2, $3, $4)
	`, params.EventType, nullable(params.DeviceName), nullable(params.Detail), nullable(params.IP))
	return err
}

func (r *linkEventRepo) Recent(ctx context.Context, limit int) ([]model.LinkEvent, error) {
	var events []model.LinkEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM link_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	return events, err
}

func (r *linkEventRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM link_events
		WHERE created_at < $1
	`, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
