package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"kenall/automation"
	"kenall/database"
	"kenall/loader"
)

func SetupRoutes(r chi.Router, dbConn *sqlx.DB) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/postal/count", func(w http.ResponseWriter, r *http.Request) {
			n, err := database.CountPostalCodes(dbConn)
			if err != nil {
				log.Error().Err(err).Msg("Error counting postal codes")
				writeJSONError(w, "件数の取得に失敗しました。", http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]int{"count": n})
		})

		r.Get("/postal/{zipCode}", func(w http.ResponseWriter, r *http.Request) {
			zip, err := normalizeZipCode(chi.URLParam(r, "zipCode"))
			if err != nil {
				writeJSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			recs, err := database.FindByZipCode(dbConn, zip)
			if err != nil {
				log.Error().Err(err).Str("zip", zip).Msg("Error querying database")
				writeJSONError(w, "郵便番号の検索に失敗しました。", http.StatusInternalServerError)
				return
			}
			if len(recs) == 0 {
				writeJSONError(w, "該当する郵便番号がありません。", http.StatusNotFound)
				return
			}
			writeJSON(w, recs)
		})

		r.Get("/city/{cityCode}", func(w http.ResponseWriter, r *http.Request) {
			cityCode := chi.URLParam(r, "cityCode")
			recs, err := database.FindByCityCode(dbConn, cityCode)
			if err != nil {
				log.Error().Err(err).Str("city", cityCode).Msg("Error querying database")
				writeJSONError(w, "市区町村の検索に失敗しました。", http.StatusInternalServerError)
				return
			}
			if len(recs) == 0 {
				writeJSONError(w, "該当する市区町村がありません。", http.StatusNotFound)
				return
			}
			writeJSON(w, recs)
		})

		r.Get("/loads", ListLoadRunsHandler(dbConn))
		r.Post("/loads/reload", loader.ReloadKenAllHandler(dbConn))
		r.Post("/automation/download", automation.DownloadKenAllHandler(dbConn))

		r.Get("/config", GetConfigHandler())
		r.Post("/config", SaveConfigHandler())
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding JSON response")
	}
}
