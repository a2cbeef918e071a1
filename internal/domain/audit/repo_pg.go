package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

// EnsureSchema creates the review_audit table when it does not exist yet.
func (r *RepoPG) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS review_audit (
			id         UUID PRIMARY KEY,
			session_id UUID NOT NULL,
			patient_id TEXT NOT NULL,
			actor      TEXT NOT NULL DEFAULT '',
			action     TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT '',
			item_id    TEXT NOT NULL DEFAULT '',
			outcome    TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			recorded   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS review_audit_patient_idx
			ON review_audit (patient_id, recorded DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

const auditCols = `id, session_id, patient_id, actor, action, category, item_id, outcome, detail, recorded`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.SessionID, &e.PatientID, &e.Actor, &e.Action,
		&e.Category, &e.ItemID, &e.Outcome, &e.Detail, &e.Recorded,
	)
	return &e, err
}

func (r *RepoPG) Insert(ctx context.Context, e *Event) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO review_audit (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, auditCols),
		e.ID, e.SessionID, e.PatientID, e.Actor, e.Action,
		e.Category, e.ItemID, e.Outcome, e.Detail, e.Recorded,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Event, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM review_audit WHERE patient_id = $1`, patientID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM review_audit
		WHERE patient_id = $1
		ORDER BY recorded DESC
		LIMIT $2 OFFSET $3`, auditCols),
		patientID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
