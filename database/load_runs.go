package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"kenall/model"
)

// InsertLoadRunInTx は取込履歴を1件記録します。
func InsertLoadRunInTx(tx *sqlx.Tx, run model.LoadRun) error {
	const q = `
		INSERT INTO load_runs (id, source_path, stage, row_count, loaded_at)
		VALUES (:id, :source_path, :stage, :row_count, :loaded_at)
	`
	if _, err := tx.NamedExec(q, run); err != nil {
		return fmt.Errorf("InsertLoadRunInTx (ID: %s) failed: %w", run.ID, err)
	}
	return nil
}

// ListLoadRuns は取込履歴を新しい順に返します。
func ListLoadRuns(db *sqlx.DB, limit int) ([]model.LoadRun, error) {
	var runs []model.LoadRun
	const q = `SELECT id, source_path, stage, row_count, loaded_at FROM load_runs ORDER BY loaded_at DESC, rowid DESC LIMIT ?`
	if err := db.Select(&runs, q, limit); err != nil {
		return nil, fmt.Errorf("failed to list load runs: %w", err)
	}
	return runs, nil
}
