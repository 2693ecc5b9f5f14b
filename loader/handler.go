package loader

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"kenall/config"
	"kenall/parsers"
)

// ReloadKenAllHandler は設定された KEN_ALL ファイルを再読み込みします。
func ReloadKenAllHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		log.Info().Str("path", cfg.KenAllPath).Msg("HTTP request received: Reloading KEN_ALL...")

		if _, err := os.Stat(cfg.KenAllPath); os.IsNotExist(err) {
			msg := fmt.Sprintf("%s not found", cfg.KenAllPath)
			log.Warn().Msg(msg)
			http.Error(w, msg, http.StatusNotFound)
			return
		}

		enc, err := parsers.ParseEncoding(cfg.Encoding)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stage, err := parsers.ParseStage(cfg.Stage)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := LoadKenAll(db, cfg.KenAllPath, Options{Encoding: enc, Stage: stage, Logger: &log.Logger})
		if err != nil {
			msg := fmt.Sprintf("failed to reload %s: %v", cfg.KenAllPath, err)
			log.Error().Msg(msg)
			http.Error(w, msg, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":  fmt.Sprintf("Reloaded %s", cfg.KenAllPath),
			"rowCount": res.RowCount,
			"runId":    res.RunID,
		})
	}
}
