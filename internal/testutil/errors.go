package testutil

import "github.com/jackc/pgx/v5/pgconn"

// ErrDuplicateEmail looks like the unique violation Postgres reports.
var ErrDuplicateEmail = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"users_email_key\""}
