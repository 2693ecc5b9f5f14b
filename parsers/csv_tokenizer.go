package parsers

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"
)

// ErrClosed は Close 後のリーダーを使用した場合に返されます。
var ErrClosed = errors.New("parsers: reader already closed")

type tokenizerState uint8

const (
	stateNewField tokenizerState = iota
	stateCr
	statePlain
	stateQuoted
	stateEscaping
)

// CSVTokenizer は文字単位でCSVを読み進め、1行ずつフィールドを返します。
// ファイル全体をメモリに読み込むことはありません。
type CSVTokenizer struct {
	src       io.Reader
	r         *bufio.Reader
	leaveOpen bool
	closed    bool

	// 前回の呼び出しで先読みした1文字 (単独の '\r' の直後の文字)
	pending    rune
	hasPending bool

	buf    []byte
	fields []string
}

// NewCSVTokenizer は r を読む CSVTokenizer を作成します。
// leaveOpen が false の場合、Close で r も閉じます (io.Closer の場合のみ)。
func NewCSVTokenizer(r io.Reader, leaveOpen bool) *CSVTokenizer {
	return &CSVTokenizer{
		src:       r,
		r:         bufio.NewReader(r),
		leaveOpen: leaveOpen,
		buf:       make([]byte, 0, 256),
		fields:    make([]string, 0, 16),
	}
}

// FieldCount は現在の行のフィールド数を返します。
func (t *CSVTokenizer) FieldCount() int { return len(t.fields) }

// Field は現在の行の i 番目のフィールドを返します。範囲外は空文字です。
func (t *CSVTokenizer) Field(i int) string {
	if i < 0 || i >= len(t.fields) {
		return ""
	}
	return t.fields[i]
}

// Fields は現在の行のフィールドを返します。次の Next 呼び出しまで有効です。
func (t *CSVTokenizer) Fields() []string { return t.fields }

// CopyTo は現在の行を dst にコピーします。容量が足りれば dst を再利用します。
func (t *CSVTokenizer) CopyTo(dst []string) []string {
	return append(dst[:0], t.fields...)
}

// Next は次の行を読み込みます。入力の終端では false を返します。
func (t *CSVTokenizer) Next() (bool, error) {
	if t.closed {
		return false, ErrClosed
	}

	s := stateNewField
	t.buf = t.buf[:0]
	t.fields = t.fields[:0]

	for {
		c, err := t.readRune()
		if err != nil {
			if err != io.EOF {
				return false, err
			}
			switch s {
			case statePlain, stateQuoted, stateEscaping:
				t.pushField()
			case stateNewField:
				t.pushTrailing()
			}
			return len(t.fields) > 0, nil
		}

		switch s {
		case stateNewField:
			switch c {
			case '\r':
				t.pushTrailing()
				s = stateCr
			case '\n':
				t.pushTrailing()
				return true, nil
			case '"':
				s = stateQuoted
			case ',':
				t.pushField()
			default:
				s = statePlain
				t.buf = utf8.AppendRune(t.buf, c)
			}

		case stateCr:
			if c != '\n' {
				t.pending = c
				t.hasPending = true
			}
			return true, nil

		case statePlain:
			switch c {
			case '\r':
				t.pushField()
				s = stateCr
			case '\n':
				t.pushField()
				return true, nil
			case ',':
				t.pushField()
				s = stateNewField
			default:
				t.buf = utf8.AppendRune(t.buf, c)
			}

		case stateQuoted:
			if c == '"' {
				s = stateEscaping
			} else {
				t.buf = utf8.AppendRune(t.buf, c)
			}

		case stateEscaping:
			switch c {
			case '\r':
				t.pushField()
				s = stateCr
			case '\n':
				t.pushField()
				return true, nil
			case ',':
				t.pushField()
				s = stateNewField
			default:
				// 正しいCSVでは '"' のみ。それ以外もそのまま取り込む
				t.buf = utf8.AppendRune(t.buf, c)
				s = stateQuoted
			}
		}
	}
}

func (t *CSVTokenizer) readRune() (rune, error) {
	if t.hasPending {
		t.hasPending = false
		return t.pending, nil
	}
	c, _, err := t.r.ReadRune()
	return c, err
}

// pushTrailing は行末のカンマの後ろの空フィールドを追加します。空行には何も追加しません。
func (t *CSVTokenizer) pushTrailing() {
	if len(t.fields) > 0 {
		t.pushField()
	}
}

func (t *CSVTokenizer) pushField() {
	t.fields = append(t.fields, string(t.buf))
	t.buf = t.buf[:0]
}

// Close はトークナイザを閉じます。複数回呼んでも安全です。
func (t *CSVTokenizer) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.r = nil
	t.fields = nil
	if t.leaveOpen {
		return nil
	}
	if c, ok := t.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
