package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rfberaldo/sqlz"
)

const queryTimeout = time.Second * 5

/*
withTx runs fn inside a transaction. Any error from fn rolls the
transaction back and is returned unchanged so callers can still match
sentinel errors.
*/
func withTx(db *sqlz.DB, fn func(ctx context.Context, tx *sqlz.Tx) error) error {
	var (
		err error
		tx  *sqlz.Tx
	)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if tx, err = db.Begin(ctx); err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("error rolling back transaction", "error", rbErr)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}
