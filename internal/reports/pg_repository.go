package reports

import (
	"context"
	"time"

	"github.com/clinicdesk/frontdesk/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func (r *PgRepository) CountCompletedByType(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT visit_type, COUNT(*)
		FROM visits
		WHERE status = 'completed'
		  AND visit_date >= $1 AND visit_date < $2
		GROUP BY visit_type
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var visitType string
		var n int
		if err := rows.Scan(&visitType, &n); err != nil {
			return nil, err
		}
		counts[visitType] = n
	}
	return counts, rows.Err()
}
