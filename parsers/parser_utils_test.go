package parsers

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"

	"kenall/model"
)

func encodeShiftJIS(t *testing.T, s string) string {
	t.Helper()
	out, err := japanese.ShiftJIS.NewEncoder().String(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return out
}

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"with bom", "\xEF\xBB\xBFabc", "abc"},
		{"without bom", "abc", "abc"},
		{"short", "a", "a"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := io.ReadAll(SkipBOM(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.want {
				t.Errorf("got %q, want %q", b, tt.want)
			}
		})
	}
}

func TestNewShiftJISReader(t *testing.T) {
	want := chiyodaRow("1000001", "千代田", "ﾁﾖﾀﾞ")
	b, err := io.ReadAll(NewShiftJISReader(strings.NewReader(encodeShiftJIS(t, want))))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != want {
		t.Errorf("decoded %q, want %q", b, want)
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", EncodingShiftJIS, false},
		{"sjis", EncodingShiftJIS, false},
		{"Shift_JIS", EncodingShiftJIS, false},
		{"utf-8", EncodingUTF8, false},
		{"UTF8", EncodingUTF8, false},
		{"euc-jp", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEncoding(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"", StageSublocality, false},
		{"raw", StageRaw, false},
		{"Locality", StageLocality, false},
		{"sublocality", StageSublocality, false},
		{"city", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStage(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStage(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenKenAll(t *testing.T) {
	dir := t.TempDir()
	content := chiyodaRow("1000001", "千代田", "ﾁﾖﾀﾞ")
	sjis := encodeShiftJIS(t, content)

	csvPath := filepath.Join(dir, "KEN_ALL.CSV")
	writeFile(t, csvPath, sjis)

	utf8Path := filepath.Join(dir, "utf_ken_all.csv")
	writeFile(t, utf8Path, "\xEF\xBB\xBF"+content)

	zipPath := filepath.Join(dir, "ken_all.zip")
	writeZip(t, zipPath, map[string]string{"KEN_ALL.CSV": sjis})

	emptyZip := filepath.Join(dir, "empty.zip")
	writeZip(t, emptyZip, map[string]string{"readme.txt": "none"})

	tests := []struct {
		name    string
		path    string
		enc     Encoding
		wantErr bool
	}{
		{"shift-jis csv", csvPath, EncodingShiftJIS, false},
		{"utf-8 csv with bom", utf8Path, EncodingUTF8, false},
		{"zip", zipPath, EncodingShiftJIS, false},
		{"zip without csv", emptyZip, EncodingShiftJIS, true},
		{"missing", filepath.Join(dir, "missing.csv"), EncodingShiftJIS, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := OpenKenAll(tt.path, tt.enc)
			if tt.wantErr {
				if err == nil {
					rc.Close()
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer rc.Close()

			b, err := io.ReadAll(rc)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != content {
				t.Errorf("read %q, want %q", b, content)
			}
		})
	}
}

func TestNewReaderStages(t *testing.T) {
	in := chiyodaRow("1000005", "丸の内（１丁目、", "ﾏﾙﾉｳﾁ(1ﾁｮｳﾒ､") +
		chiyodaRow("1000005", "２丁目）", "2ﾁｮｳﾒ)")

	tests := []struct {
		stage Stage
		want  []string
	}{
		{StageRaw, []string{"丸の内（１丁目、", "２丁目）"}},
		{StageLocality, []string{"丸の内（１丁目、２丁目）"}},
		{StageSublocality, []string{"丸の内/１丁目", "丸の内/２丁目"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			r := NewReader(tt.stage, strings.NewReader(in))
			defer r.Close()

			var got []string
			err := Each(r, func(rec model.SublocalityRecord) error {
				s := rec.Locality
				if rec.Sublocality != "" {
					s += "/" + rec.Sublocality
				}
				got = append(got, s)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEachStopsOnCallbackError(t *testing.T) {
	in := chiyodaRow("1000001", "千代田", "ﾁﾖﾀﾞ") + chiyodaRow("1000002", "皇居外苑", "ｺｳｷｮｶﾞｲｴﾝ")
	stop := errors.New("stop")

	calls := 0
	err := Each(NewRawReader(strings.NewReader(in)), func(model.SublocalityRecord) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Each() error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}
