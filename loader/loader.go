package loader

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"kenall/database"
	"kenall/model"
	"kenall/parsers"
)

// Options は取込の設定です。
type Options struct {
	Encoding parsers.Encoding
	Stage    parsers.Stage
	// Append が true の場合、既存のレコードを削除せずに追加します。
	Append bool
	// Logger が nil の場合はログを出力しません。
	Logger *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

// Result は取込結果です。
type Result struct {
	RunID    string
	RowCount int
}

// LoadKenAll は KEN_ALL のCSV (またはZIP) を読み込み、postal_codes テーブルに登録します。
func LoadKenAll(db *sqlx.DB, path string, opts Options) (Result, error) {
	rc, err := parsers.OpenKenAll(path, opts.Encoding)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	return LoadKenAllStream(db, rc, path, opts)
}

// LoadKenAllStream は UTF-8 に変換済みの r を読み込み、1つのトランザクションで登録します。
// エラーが発生した場合は何も登録されません。
func LoadKenAllStream(db *sqlx.DB, r io.Reader, sourceName string, opts Options) (res Result, err error) {
	if opts.Stage == "" {
		opts.Stage = parsers.StageSublocality
	}
	log := opts.logger().With().Str("source", sourceName).Str("stage", string(opts.Stage)).Logger()

	reader := parsers.NewReader(opts.Stage, r,
		parsers.WithLeaveOpen(true),
		parsers.WithInterner(parsers.NewInterner(4096)),
		parsers.WithLogger(log),
	)
	defer reader.Close()

	tx, err := db.Beginx()
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Msg("rolling back transaction")
			tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				log.Error().Err(err).Msg("error committing transaction")
				err = fmt.Errorf("failed to commit %s: %w", sourceName, err)
			}
		}
	}()

	if !opts.Append {
		if err = database.ResetPostalCodesInTx(tx); err != nil {
			return Result{}, err
		}
	}

	stmt, err := database.PreparePostalCodeInsert(tx)
	if err != nil {
		return Result{}, err
	}
	defer stmt.Close()

	rowCount := 0
	err = parsers.Each(reader, func(rec model.SublocalityRecord) error {
		if _, execErr := stmt.Exec(rec); execErr != nil {
			return fmt.Errorf("failed to insert %s (line %d): %w", rec.ZipCode7, lineNumber(reader), execErr)
		}
		rowCount++
		if rowCount%20000 == 0 {
			log.Debug().Int("rows", rowCount).Msg("loading")
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to load %s: %w", sourceName, err)
	}

	run := model.LoadRun{
		ID:         uuid.New().String(),
		SourcePath: sourceName,
		Stage:      string(opts.Stage),
		RowCount:   rowCount,
		LoadedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err = database.InsertLoadRunInTx(tx, run); err != nil {
		return Result{}, err
	}

	log.Info().Int("rows", rowCount).Str("run", run.ID).Msg("loaded postal codes")
	return Result{RunID: run.ID, RowCount: rowCount}, nil
}

func lineNumber(r parsers.PostalReader) int {
	if l, ok := r.(interface{ LineNumber() int }); ok {
		return l.LineNumber()
	}
	return 0
}
