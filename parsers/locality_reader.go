package parsers

import (
	"io"
	"strings"

	"kenall/model"
)

// LocalityReader は複数行に分割された町域名を1件に結合します。
//
// KEN_ALL.CSV では町域名が長い場合、全角の「（」を含む町域が
// 同じ郵便番号・都道府県・市区町村の後続行に分割されて収録されます。
// 「（」に対応する「）」が現れるまで後続行を先読みして連結します。
type LocalityReader struct {
	raw *RawReader
}

// NewLocalityReader は r を読む LocalityReader を作成します。
func NewLocalityReader(r io.Reader, opts ...Option) *LocalityReader {
	return &LocalityReader{raw: NewRawReader(r, opts...)}
}

// Next は次の町域に進みます。
func (l *LocalityReader) Next() (bool, error) {
	ok, err := l.raw.advance()
	if !ok || err != nil {
		return false, err
	}

	rec := &l.raw.rec
	op := strings.IndexRune(rec.Locality, '（')
	if op < 0 {
		l.raw.normalizeDefault()
		return true, nil
	}

	for !strings.ContainsRune(rec.Locality[op:], '）') {
		ok, err := l.raw.prefetch()
		if err != nil {
			return false, err
		}
		if !ok {
			// 入力の終端。結合途中の町域をそのまま返す
			break
		}

		p := l.raw.prefetched()
		if p.field(colZipCode7) != rec.ZipCode7 ||
			p.field(colPrefecture) != rec.Prefecture ||
			p.field(colCity) != rec.City {
			// 別の町域なので次回の Next で読む
			break
		}

		rec.Locality += p.field(colLocality)
		rec.LocalityKana += p.field(colLocalityKana)
		l.raw.discardPrefetch()
	}
	return true, nil
}

// Record は現在の町域を返します。
func (l *LocalityReader) Record() model.PostalRecord { return l.raw.rec }

// LineNumber は直近に読み込んだ物理行の番号を返します。
func (l *LocalityReader) LineNumber() int { return l.raw.LineNumber() }

// Close はリーダーを閉じます。
func (l *LocalityReader) Close() error { return l.raw.Close() }
