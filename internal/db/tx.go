// Package db provides the transaction helper the request cache's SQLite
// backend uses to keep its upsert atomic.
package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
)

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error from fn. A rollback failure is logged rather than
// swallowed: it means the connection is in an unknown state and the
// caller's error alone would hide that.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}
	return tx.Commit()
}
