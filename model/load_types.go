package model

// LoadRun は KEN_ALL の取込1回分の履歴です。
type LoadRun struct {
	ID         string `db:"id" json:"id"`
	SourcePath string `db:"source_path" json:"sourcePath"`
	Stage      string `db:"stage" json:"stage"`
	RowCount   int    `db:"row_count" json:"rowCount"`
	LoadedAt   string `db:"loaded_at" json:"loadedAt"` // RFC3339
}
