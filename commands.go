package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kenall/automation"
	"kenall/config"
	"kenall/database"
	"kenall/loader"
	"kenall/model"
	"kenall/parsers"
)

// readerFlags は入力ファイルに関するフラグです。未指定なら設定ファイルの値を使います。
type readerFlags struct {
	encoding string
	stage    string
}

func (f *readerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "入力の文字コード (sjis|utf8)")
	cmd.Flags().StringVar(&f.stage, "stage", "", "解釈の段階 (raw|locality|sublocality)")
}

func (f *readerFlags) resolve(cfg config.Config) (parsers.Encoding, parsers.Stage, error) {
	enc, err := parsers.ParseEncoding(firstNonEmpty(f.encoding, cfg.Encoding))
	if err != nil {
		return "", "", err
	}
	stage, err := parsers.ParseStage(firstNonEmpty(f.stage, cfg.Stage))
	if err != nil {
		return "", "", err
	}
	return enc, stage, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	log.Debug().Str("path", cfg.DatabasePath).Msg("Connecting to database...")
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func loadCmd() *cobra.Command {
	var (
		rf         readerFlags
		appendRows bool
	)
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "KEN_ALL.CSV (またはZIP) をデータベースに取り込む",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			path := cfg.KenAllPath
			if len(args) == 1 {
				path = args[0]
			}
			enc, stage, err := rf.resolve(cfg)
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			start := time.Now()
			res, err := loader.LoadKenAll(db, path, loader.Options{
				Encoding: enc,
				Stage:    stage,
				Append:   appendRows,
				Logger:   &log.Logger,
			})
			if err != nil {
				return err
			}
			log.Info().
				Int("rows", res.RowCount).
				Str("run", res.RunID).
				Dur("elapsed", time.Since(start)).
				Msg("Load complete")
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&appendRows, "append", false, "既存のレコードを残して追加する")
	return cmd
}

func dumpCmd() *cobra.Command {
	var rf readerFlags
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "KEN_ALL.CSV を解釈してTSVで出力する",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			path := cfg.KenAllPath
			if len(args) == 1 {
				path = args[0]
			}
			enc, stage, err := rf.resolve(cfg)
			if err != nil {
				return err
			}

			rc, err := parsers.OpenKenAll(path, enc)
			if err != nil {
				return err
			}
			r := parsers.NewReader(stage, rc, parsers.WithLogger(log.Logger))
			defer r.Close()

			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush()
			return dumpRecords(w, r)
		},
	}
	rf.register(cmd)
	return cmd
}

var tsvHeader = []string{
	"city_code", "zip_code5", "zip_code7",
	"prefecture", "city", "locality", "sublocality", "except_for",
	"prefecture_kana", "city_kana", "locality_kana", "sublocality_kana", "except_for_kana",
	"multiple_zip", "by_sublocality", "has_chome", "multiple_locality",
	"change_type", "change_reason", "is_default",
}

// dumpRecords は r の全レコードをTSVで w に書き出します。
func dumpRecords(w io.Writer, r parsers.PostalReader) error {
	if _, err := fmt.Fprintln(w, strings.Join(tsvHeader, "\t")); err != nil {
		return err
	}
	return parsers.Each(r, func(rec model.SublocalityRecord) error {
		_, err := fmt.Fprintln(w, strings.Join(tsvFields(rec), "\t"))
		return err
	})
}

func tsvFields(rec model.SublocalityRecord) []string {
	return []string{
		rec.CityCode, rec.ZipCode5, rec.ZipCode7,
		rec.Prefecture, rec.City, rec.Locality, rec.Sublocality, rec.ExceptFor,
		rec.PrefectureKana, rec.CityKana, rec.LocalityKana, rec.SublocalityKana, rec.ExceptForKana,
		flag(rec.LocalityHasMultipleZipCodes), flag(rec.IsPartitionedBySublocality),
		flag(rec.HasChome), flag(rec.ZipCodeHasMultipleLocalities),
		strconv.Itoa(int(rec.ChangeType)), strconv.Itoa(int(rec.ChangeReason)),
		flag(rec.IsDefault),
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <zip-code>",
		Short: "郵便番号で検索する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zip, err := normalizeZipCode(args[0])
			if err != nil {
				return err
			}

			db, err := openDB(config.GetConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			recs, err := database.FindByZipCode(db, zip)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				log.Warn().Str("zip", zip).Msg("No records found")
				return nil
			}
			w := cmd.OutOrStdout()
			for _, r := range recs {
				fmt.Fprintln(w, formatAddress(r))
			}
			return nil
		},
	}
}

// normalizeZipCode は「100-0001」「１０００００１」などを7桁の半角数字にします。
func normalizeZipCode(s string) (string, error) {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
		case c >= '０' && c <= '９':
			b.WriteRune('0' + (c - '０'))
		case c == '-' || c == '－' || c == 'ー' || c == ' ':
		default:
			return "", fmt.Errorf("invalid zip code: %q", s)
		}
	}
	if b.Len() != 7 {
		return "", fmt.Errorf("zip code must have 7 digits: %q", s)
	}
	return b.String(), nil
}

func formatAddress(r model.SublocalityRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "〒%s-%s %s%s%s%s", r.ZipCode7[:3], r.ZipCode7[3:], r.Prefecture, r.City, r.Locality, r.Sublocality)
	if r.ExceptFor != "" {
		fmt.Fprintf(&b, " (%sを除く)", r.ExceptFor)
	}
	return b.String()
}

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "取込履歴を表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(config.GetConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := database.ListLoadRuns(db, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.LoadedAt, r.ID, r.Stage, r.RowCount, r.SourcePath)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "表示する件数")
	return cmd
}

func downloadCmd() *cobra.Command {
	var (
		load     bool
		headless bool
	)
	cmd := &cobra.Command{
		Use:   "download",
		Short: "日本郵便のサイトから ken_all.zip をダウンロードする",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			path, err := automation.DownloadKenAll(automation.DownloadOptions{
				PageURL:  cfg.DownloadURL,
				SaveDir:  cfg.DownloadDir,
				Headless: headless,
				Logger:   &log.Logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if !load {
				return nil
			}

			stage, err := parsers.ParseStage(cfg.Stage)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = loader.LoadKenAll(db, path, loader.Options{
				Encoding: parsers.EncodingShiftJIS,
				Stage:    stage,
				Logger:   &log.Logger,
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "ダウンロード後にデータベースへ取り込む")
	cmd.Flags().BoolVar(&headless, "headless", true, "ブラウザを表示せずに実行する")
	return cmd
}

func serveCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "郵便番号検索APIを起動する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			r := chi.NewRouter()
			SetupRoutes(r, db)

			log.Info().Str("addr", cfg.ListenAddr).Msg("Starting server")
			if open {
				openBrowser("http://" + cfg.ListenAddr + "/api/postal/count")
			}
			if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
				return fmt.Errorf("server start error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "起動後にブラウザを開く")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
