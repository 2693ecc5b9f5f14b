package main

import (
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"kenall/database"
)

// ListLoadRunsHandler は取込履歴を返します
func ListLoadRunsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSONError(w, "limit が不正です。", http.StatusBadRequest)
				return
			}
			limit = n
		}

		runs, err := database.ListLoadRuns(db, limit)
		if err != nil {
			log.Error().Err(err).Msg("Error listing load runs")
			writeJSONError(w, "取込履歴の取得に失敗しました。", http.StatusInternalServerError)
			return
		}
		writeJSON(w, runs)
	}
}
