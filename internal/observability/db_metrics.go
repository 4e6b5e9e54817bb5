package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Query statuses. A lookup that matched nothing is "miss": the buy path and
// the user lookups rely on zero rows as a normal answer.
const (
	dbStatusOK    = "ok"
	dbStatusMiss  = "miss"
	dbStatusError = "error"
)

// ObserveDB times fn under the logical op name. A nil Prom just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := dbStatusOK
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		status = dbStatusMiss
	default:
		status = dbStatusError
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

// classifyDBErr names the failure. Constraint violations report the schema
// constraint (users_email_key, products_stock_check, ...) so a duplicate slug
// and a duplicate email land in different series.
func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.ConstraintName != "" {
			return pgErr.ConstraintName
		}
		switch pgErr.Code {
		case "22003":
			return "numeric_out_of_range"
		case "22P02":
			return "invalid_text"
		case "23505", "23503", "23514":
			return "constraint"
		case "40001", "40P01":
			return "tx_conflict"
		case "57014":
			return "canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	var connErr *pgconn.ConnectError
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case pgconn.Timeout(err):
		return "timeout"
	case errors.As(err, &connErr):
		return "connect"
	case errors.Is(err, pgx.ErrTxClosed):
		return "tx_closed"
	default:
		return "other"
	}
}
