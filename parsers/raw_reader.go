package parsers

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"kenall/model"
)

// KEN_ALL.CSV の列位置 (0始まり)
const (
	colCityCode = iota
	colZipCode5
	colZipCode7
	colPrefectureKana
	colCityKana
	colLocalityKana
	colPrefecture
	colCity
	colLocality
	colLocalityHasMultipleZipCodes
	colIsPartitionedBySublocality
	colHasChome
	colZipCodeHasMultipleLocalities
	colChangeType
	colChangeReason

	columnCount
)

// DefaultLocality は町域が掲載されていない行の町域名です。
const DefaultLocality = "以下に掲載がない場合"

var booleanPattern = regexp.MustCompile(`^\s*1\s*$`)

// PostalReader は1件ずつレコードを取り出すリーダーの共通インターフェースです。
type PostalReader interface {
	// Next は次のレコードに進みます。終端では false を返します。
	Next() (bool, error)
	// Record は現在のレコードを返します。
	Record() model.PostalRecord
	// Close はリーダーを閉じます。複数回呼んでも安全です。
	Close() error
}

// rawRow は1行分のフィールドです。範囲外の列は空文字として扱います。
type rawRow []string

func (r rawRow) field(i int) string {
	if i < len(r) {
		return strings.TrimSpace(r[i])
	}
	return ""
}

// RawReader は KEN_ALL.CSV の1行を model.PostalRecord に変換します。
// 町域の結合や括弧書きの展開は行いません。
type RawReader struct {
	tok      *CSVTokenizer
	interner *Interner
	log      zerolog.Logger

	rec    model.PostalRecord
	fields rawRow

	// 先読み用のスロット (最大1行)
	pre        rawRow
	hasPre     bool
	closed     bool
	lineNumber int
}

// NewRawReader は r を読む RawReader を作成します。
func NewRawReader(r io.Reader, opts ...Option) *RawReader {
	o := applyOptions(opts)
	return &RawReader{
		tok:      NewCSVTokenizer(r, o.leaveOpen),
		interner: o.interner,
		log:      o.logger,
		fields:   make(rawRow, 0, columnCount),
		pre:      make(rawRow, 0, columnCount),
	}
}

// Next は次の行を読み込み、「以下に掲載がない場合」の正規化を行います。
func (r *RawReader) Next() (bool, error) {
	ok, err := r.advance()
	if !ok || err != nil {
		return false, err
	}
	r.normalizeDefault()
	return true, nil
}

// Record は現在の行を返します。
func (r *RawReader) Record() model.PostalRecord { return r.rec }

// LineNumber は直近に読み込んだ物理行の番号 (1始まり) を返します。
func (r *RawReader) LineNumber() int { return r.lineNumber }

// advance は先読み済みの行があればそれを、なければ次の行を現在行にします。
// 正規化のフックは呼びません。
func (r *RawReader) advance() (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	if r.hasPre {
		r.fields, r.pre = r.pre, r.fields
		r.hasPre = false
	} else {
		ok, err := r.readRow(&r.fields)
		if !ok || err != nil {
			return false, err
		}
	}
	r.mapFields()
	return true, nil
}

// readRow は空行を読み飛ばして次の行を dst にコピーします。
func (r *RawReader) readRow(dst *rawRow) (bool, error) {
	for {
		ok, err := r.tok.Next()
		if !ok || err != nil {
			return false, err
		}
		r.lineNumber++
		if r.tok.FieldCount() == 0 {
			continue
		}
		*dst = r.tok.CopyTo(*dst)
		return true, nil
	}
}

func (r *RawReader) mapFields() {
	f := r.fields
	in := r.interner

	r.rec = model.PostalRecord{
		CityCode: in.Intern(f.field(colCityCode)),
		ZipCode5: in.Intern(f.field(colZipCode5)),
		ZipCode7: f.field(colZipCode7),

		PrefectureKana: in.Intern(f.field(colPrefectureKana)),
		CityKana:       in.Intern(f.field(colCityKana)),
		LocalityKana:   in.Intern(f.field(colLocalityKana)),

		Prefecture: in.Intern(f.field(colPrefecture)),
		City:       in.Intern(f.field(colCity)),
		Locality:   in.Intern(f.field(colLocality)),

		LocalityHasMultipleZipCodes:  booleanPattern.MatchString(f.field(colLocalityHasMultipleZipCodes)),
		IsPartitionedBySublocality:   booleanPattern.MatchString(f.field(colIsPartitionedBySublocality)),
		HasChome:                     booleanPattern.MatchString(f.field(colHasChome)),
		ZipCodeHasMultipleLocalities: booleanPattern.MatchString(f.field(colZipCodeHasMultipleLocalities)),
	}

	ct, ok := model.ParseChangeType(f.field(colChangeType))
	if !ok {
		r.log.Debug().Int("line", r.lineNumber).Str("value", f.field(colChangeType)).Msg("unknown change type, using 変更なし")
	}
	r.rec.ChangeType = ct

	cr, ok := model.ParseChangeReason(f.field(colChangeReason))
	if !ok {
		r.log.Debug().Int("line", r.lineNumber).Str("value", f.field(colChangeReason)).Msg("unknown change reason, using 変更なし")
	}
	r.rec.ChangeReason = cr
}

// normalizeDefault は町域が「以下に掲載がない場合」の行の町域を空にします。
func (r *RawReader) normalizeDefault() {
	r.rec.IsDefault = r.rec.Locality == DefaultLocality
	if r.rec.IsDefault {
		r.rec.Locality = ""
		r.rec.LocalityKana = ""
	}
}

// prefetch は現在行を進めずに次の行を先読みします。
func (r *RawReader) prefetch() (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	ok, err := r.readRow(&r.pre)
	r.hasPre = ok && err == nil
	return r.hasPre, err
}

// prefetched は先読み済みの行を返します。先読みしていなければ nil です。
func (r *RawReader) prefetched() rawRow {
	if !r.hasPre {
		return nil
	}
	return r.pre
}

// discardPrefetch は先読み済みの行を破棄します。
func (r *RawReader) discardPrefetch() {
	r.hasPre = false
	r.pre = r.pre[:0]
}

// Close はリーダーを閉じます。WithLeaveOpen(true) の場合は元の io.Reader を閉じません。
func (r *RawReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.discardPrefetch()
	return r.tok.Close()
}
