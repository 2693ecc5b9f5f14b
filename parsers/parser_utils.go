package parsers

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"kenall/model"
)

// SkipBOM はUTF-8 BOMをスキップします。
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	bom := []byte{0xEF, 0xBB, 0xBF}
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	isBOM := true
	for i, b := range bom {
		if peeked[i] != b {
			isBOM = false
			break
		}
	}
	if isBOM {
		br.Discard(3)
	}
	return br
}

// NewShiftJISReader は Shift-JIS のバイト列を UTF-8 として読む io.Reader を返します。
func NewShiftJISReader(r io.Reader) io.Reader {
	return transform.NewReader(r, japanese.ShiftJIS.NewDecoder())
}

// Encoding は入力ファイルの文字コードです。
type Encoding string

const (
	EncodingShiftJIS Encoding = "sjis" // KEN_ALL.CSV
	EncodingUTF8     Encoding = "utf8" // utf_ken_all.csv
)

// ParseEncoding は設定値から Encoding を返します。
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sjis", "shift_jis", "shift-jis", "cp932":
		return EncodingShiftJIS, nil
	case "utf8", "utf-8":
		return EncodingUTF8, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %q", s)
	}
}

// Decode は enc に従って r を UTF-8 として読む io.Reader を返します。
func Decode(r io.Reader, enc Encoding) io.Reader {
	if enc == EncodingUTF8 {
		return SkipBOM(r)
	}
	return NewShiftJISReader(r)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	rc.closers = nil
	return first
}

// OpenKenAll は KEN_ALL のCSVファイル、またはそれを含むZIPファイルを開きます。
// ZIPの場合は最初の .csv エントリを読みます。
func OpenKenAll(path string, enc Encoding) (io.ReadCloser, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open file %s: %w", path, err)
		}
		return &readCloser{Reader: Decode(f, enc), closers: []io.Closer{f}}, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip file %s: %w", path, err)
	}
	for _, zf := range zr.File {
		if !strings.EqualFold(filepath.Ext(zf.Name), ".csv") {
			continue
		}
		fi, err := zf.Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("opening %s in zip: %w", zf.Name, err)
		}
		return &readCloser{Reader: Decode(fi, enc), closers: []io.Closer{fi, zr}}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("no csv entry found in %s", path)
}

// Stage はどの段階まで行を解釈するかを表します。
type Stage string

const (
	StageRaw         Stage = "raw"         // 1行1件
	StageLocality    Stage = "locality"    // 分割された町域を結合
	StageSublocality Stage = "sublocality" // 括弧書きを小地域に展開
)

// ParseStage は設定値から Stage を返します。
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case "", StageSublocality:
		return StageSublocality, nil
	case StageLocality:
		return StageLocality, nil
	case StageRaw:
		return StageRaw, nil
	default:
		return "", fmt.Errorf("unknown stage: %q", s)
	}
}

// NewReader は stage に対応するリーダーを作成します。
func NewReader(stage Stage, r io.Reader, opts ...Option) PostalReader {
	switch stage {
	case StageRaw:
		return NewRawReader(r, opts...)
	case StageLocality:
		return NewLocalityReader(r, opts...)
	default:
		return NewSublocalityReader(r, opts...)
	}
}

// SublocalityOf は r の現在のレコードを返します。
// r が小地域を展開しないリーダーの場合、小地域の項目は空です。
func SublocalityOf(r PostalReader) model.SublocalityRecord {
	if s, ok := r.(interface {
		Sublocality() model.SublocalityRecord
	}); ok {
		return s.Sublocality()
	}
	return model.SublocalityRecord{PostalRecord: r.Record()}
}

// Each は r の全レコードに対して fn を呼びます。fn がエラーを返すと中断します。
func Each(r PostalReader, fn func(model.SublocalityRecord) error) error {
	for {
		ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(SublocalityOf(r)); err != nil {
			return err
		}
	}
}
