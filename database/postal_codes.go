package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"kenall/model"
)

const postalCodeColumns = `city_code, zip_code5, zip_code7,
	prefecture_kana, city_kana, locality_kana,
	prefecture, city, locality,
	sublocality, sublocality_kana, except_for, except_for_kana,
	locality_has_multiple_zip_codes, is_partitioned_by_sublocality, has_chome, zip_code_has_multiple_localities,
	change_type, change_reason, is_default`

const insertPostalCodeQuery = `INSERT INTO postal_codes (` + postalCodeColumns + `) VALUES (
	:city_code, :zip_code5, :zip_code7,
	:prefecture_kana, :city_kana, :locality_kana,
	:prefecture, :city, :locality,
	:sublocality, :sublocality_kana, :except_for, :except_for_kana,
	:locality_has_multiple_zip_codes, :is_partitioned_by_sublocality, :has_chome, :zip_code_has_multiple_localities,
	:change_type, :change_reason, :is_default)`

// ResetPostalCodesInTx は郵便番号テーブルを空にします。
func ResetPostalCodesInTx(tx *sqlx.Tx) error {
	if _, err := tx.Exec(`DELETE FROM postal_codes`); err != nil {
		return fmt.Errorf("failed to clear postal_codes: %w", err)
	}
	return nil
}

// PreparePostalCodeInsert は1件ずつ挿入するためのステートメントを準備します。
func PreparePostalCodeInsert(tx *sqlx.Tx) (*sqlx.NamedStmt, error) {
	stmt, err := tx.PrepareNamed(insertPostalCodeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement for postal_codes: %w", err)
	}
	return stmt, nil
}

// InsertPostalCodeInTx はレコードを1件挿入します。
func InsertPostalCodeInTx(tx *sqlx.Tx, rec model.SublocalityRecord) error {
	if _, err := tx.NamedExec(insertPostalCodeQuery, rec); err != nil {
		return fmt.Errorf("InsertPostalCodeInTx (Zip: %s) failed: %w", rec.ZipCode7, err)
	}
	return nil
}

// FindByZipCode は7桁の郵便番号に一致するレコードを取込順に返します。
func FindByZipCode(db *sqlx.DB, zipCode7 string) ([]model.SublocalityRecord, error) {
	var recs []model.SublocalityRecord
	q := `SELECT ` + postalCodeColumns + ` FROM postal_codes WHERE zip_code7 = ? ORDER BY id`
	if err := db.Select(&recs, q, zipCode7); err != nil {
		return nil, fmt.Errorf("failed to find postal codes for %s: %w", zipCode7, err)
	}
	return recs, nil
}

// FindByCityCode は全国地方公共団体コードに一致するレコードを取込順に返します。
func FindByCityCode(db *sqlx.DB, cityCode string) ([]model.SublocalityRecord, error) {
	var recs []model.SublocalityRecord
	q := `SELECT ` + postalCodeColumns + ` FROM postal_codes WHERE city_code = ? ORDER BY id`
	if err := db.Select(&recs, q, cityCode); err != nil {
		return nil, fmt.Errorf("failed to find postal codes for city %s: %w", cityCode, err)
	}
	return recs, nil
}

// CountPostalCodes は登録済みのレコード数を返します。
func CountPostalCodes(db *sqlx.DB) (int, error) {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM postal_codes`); err != nil {
		return 0, fmt.Errorf("failed to count postal_codes: %w", err)
	}
	return n, nil
}
