package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Healthcheck fails until m is started and while the river_job table is
// unreachable, which also catches a queue whose migrations never ran.
// It has the shape of health.CheckFunc.
func Healthcheck(m *Manager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m == nil || !m.Running() {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrNotStarted)
		}
		var one int
		if err := m.pool.QueryRow(ctx, "SELECT 1 FROM river_job LIMIT 1").Scan(&one); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}
