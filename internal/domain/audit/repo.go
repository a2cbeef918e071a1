package audit

import "context"

type Repository interface {
	Insert(ctx context.Context, e *Event) error
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Event, int, error)
}
