package parsers

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func readAllRows(t *testing.T, tok *CSVTokenizer) [][]string {
	t.Helper()
	var rows [][]string
	for {
		ok, err := tok.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			return rows
		}
		rows = append(rows, tok.CopyTo(nil))
	}
}

func TestCSVTokenizer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{"lf", "a,b,c\nd,e,f\n", [][]string{{"a", "b", "c"}, {"d", "e", "f"}}},
		{"crlf", "a,b\r\nc,d\r\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"lone cr", "a\rb\n", [][]string{{"a"}, {"b"}}},
		{"no trailing newline", "a,b", [][]string{{"a", "b"}}},
		{"quoted comma", `a,"b,c",d` + "\n", [][]string{{"a", "b,c", "d"}}},
		{"quoted newline", "\"b\nc\",d\n", [][]string{{"b\nc", "d"}}},
		{"escaped quote", `"a""b",c` + "\n", [][]string{{`a"b`, "c"}}},
		{"empty quoted", `"",x` + "\n", [][]string{{"", "x"}}},
		{"empty fields", "a,,b\n", [][]string{{"a", "", "b"}}},
		{"trailing comma", "a,\n", [][]string{{"a", ""}}},
		{"trailing comma at eof", "a,", [][]string{{"a", ""}}},
		{"empty line", "a\n\nb\n", [][]string{{"a"}, {}, {"b"}}},
		{"multibyte", "東京都,ﾄｳｷｮｳﾄ\n", [][]string{{"東京都", "ﾄｳｷｮｳﾄ"}}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewCSVTokenizer(strings.NewReader(tt.input), false)
			got := readAllRows(t, tok)
			if len(got) != len(tt.want) {
				t.Fatalf("rows = %q, want %q", got, tt.want)
			}
			for i := range got {
				if len(got[i]) == 0 && len(tt.want[i]) == 0 {
					continue
				}
				if !reflect.DeepEqual(got[i], tt.want[i]) {
					t.Errorf("row %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCSVTokenizerField(t *testing.T) {
	tok := NewCSVTokenizer(strings.NewReader("x,y\n"), false)
	if ok, err := tok.Next(); !ok || err != nil {
		t.Fatalf("Next() = %v, %v", ok, err)
	}
	if tok.FieldCount() != 2 {
		t.Errorf("FieldCount() = %d, want 2", tok.FieldCount())
	}
	if got := tok.Field(1); got != "y" {
		t.Errorf("Field(1) = %q, want y", got)
	}
	if got := tok.Field(5); got != "" {
		t.Errorf("Field(5) = %q, want empty", got)
	}
	if got := tok.Field(-1); got != "" {
		t.Errorf("Field(-1) = %q, want empty", got)
	}
}

func TestCSVTokenizerEOFStaysFalse(t *testing.T) {
	tok := NewCSVTokenizer(strings.NewReader("a"), false)
	if ok, _ := tok.Next(); !ok {
		t.Fatal("first Next() = false")
	}
	for i := 0; i < 2; i++ {
		if ok, err := tok.Next(); ok || err != nil {
			t.Errorf("Next() after EOF = %v, %v", ok, err)
		}
	}
}

type closeCounter struct {
	*strings.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestCSVTokenizerClose(t *testing.T) {
	t.Run("owns source", func(t *testing.T) {
		src := &closeCounter{Reader: strings.NewReader("a\n")}
		tok := NewCSVTokenizer(src, false)
		if err := tok.Close(); err != nil {
			t.Fatal(err)
		}
		if err := tok.Close(); err != nil {
			t.Fatal(err)
		}
		if src.closed != 1 {
			t.Errorf("source closed %d times, want 1", src.closed)
		}
		if _, err := tok.Next(); !errors.Is(err, ErrClosed) {
			t.Errorf("Next() after Close error = %v, want ErrClosed", err)
		}
	})

	t.Run("leave open", func(t *testing.T) {
		src := &closeCounter{Reader: strings.NewReader("a\n")}
		tok := NewCSVTokenizer(src, true)
		tok.Close()
		tok.Close()
		if src.closed != 0 {
			t.Errorf("source closed %d times, want 0", src.closed)
		}
	})
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestCSVTokenizerPropagatesReadError(t *testing.T) {
	want := errors.New("disk failure")
	tok := NewCSVTokenizer(failingReader{err: want}, false)
	if _, err := tok.Next(); !errors.Is(err, want) {
		t.Errorf("Next() error = %v, want %v", err, want)
	}
}
