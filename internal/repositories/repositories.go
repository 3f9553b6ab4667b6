package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// NextSequence advances the single-row "<table>_sequence" counter and returns its new value.
func NextSequence(db *sql.DB, table string) (int, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var seq int
	switch err := db.QueryRow(query).Scan(&seq); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("%s_sequence has no counter row", table)
	case err != nil:
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return seq, nil
}
