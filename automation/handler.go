package automation

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"kenall/config"
	"kenall/loader"
	"kenall/parsers"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// DownloadKenAllHandler は ken_all.zip をダウンロードして取り込みます。
func DownloadKenAllHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()

		stage, err := parsers.ParseStage(cfg.Stage)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		filePath, err := DownloadKenAll(DownloadOptions{
			PageURL:  cfg.DownloadURL,
			SaveDir:  cfg.DownloadDir,
			Headless: true,
			Logger:   &log.Logger,
		})
		if err != nil {
			log.Error().Err(err).Msg("automation error")
			writeJSONError(w, "ダウンロードエラー: "+err.Error(), http.StatusInternalServerError)
			return
		}

		res, err := loader.LoadKenAll(db, filePath, loader.Options{
			Encoding: parsers.EncodingShiftJIS,
			Stage:    stage,
			Logger:   &log.Logger,
		})
		if err != nil {
			writeJSONError(w, "取込処理でエラー: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "success",
			"message":  fmt.Sprintf("ダウンロード＆登録完了: %d件", res.RowCount),
			"filePath": filePath,
			"runId":    res.RunID,
		})
	}
}
