package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"kenall/database"
	"kenall/loader"
	"kenall/model"
	"kenall/parsers"
)

const sampleCSV = `13101,"100  ","1000000","ﾄｳｷｮｳﾄ","ﾁﾖﾀﾞｸ","ｲｶﾆｹｲｻｲｶﾞﾅｲﾊﾞｱｲ","東京都","千代田区","以下に掲載がない場合",0,0,0,0,0,0` + "\n" +
	`13101,"100  ","1000006","ﾄｳｷｮｳﾄ","ﾁﾖﾀﾞｸ","ﾕｳﾗｸﾁｮｳ(1-2ﾁｮｳﾒ)","東京都","千代田区","有楽町（１～２丁目）",0,0,1,0,0,0` + "\n"

func openLoadedDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := loader.LoadKenAllStream(db, strings.NewReader(sampleCSV), "sample.csv", loader.Options{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestNormalizeZipCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1000001", "1000001", false},
		{"100-0001", "1000001", false},
		{"１００－０００１", "1000001", false},
		{"100001", "", true},
		{"100-000a", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeZipCode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("normalizeZipCode(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestFormatAddress(t *testing.T) {
	rec := model.SublocalityRecord{
		PostalRecord: model.PostalRecord{ZipCode7: "1000006", Prefecture: "東京都", City: "千代田区", Locality: "有楽町"},
		Sublocality:  "１丁目",
		ExceptFor:    "１番地",
	}
	want := "〒100-0006 東京都千代田区有楽町１丁目 (１番地を除く)"
	if got := formatAddress(rec); got != want {
		t.Errorf("formatAddress() = %q, want %q", got, want)
	}
}

func TestDumpRecords(t *testing.T) {
	var buf bytes.Buffer
	r := parsers.NewSublocalityReader(strings.NewReader(sampleCSV))
	if err := dumpRecords(&buf, r); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != strings.Join(tsvHeader, "\t") {
		t.Errorf("header = %q", lines[0])
	}
	cols := strings.Split(lines[2], "\t")
	if len(cols) != len(tsvHeader) {
		t.Fatalf("got %d columns, want %d", len(cols), len(tsvHeader))
	}
	if cols[5] != "有楽町" || cols[6] != "１丁目" || cols[11] != "1ﾁｮｳﾒ" || cols[15] != "1" {
		t.Errorf("row = %q", cols)
	}
	if last := strings.Split(lines[1], "\t"); last[len(last)-1] != "1" {
		t.Errorf("default row is_default = %q, want 1", last[len(last)-1])
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	SetupRoutes(r, openLoadedDB(t))
	return r
}

func TestPostalRoutes(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		path       string
		wantStatus int
		wantCount  int
	}{
		{"/api/postal/1000006", http.StatusOK, 2},
		{"/api/postal/100-0006", http.StatusOK, 2},
		{"/api/postal/9999999", http.StatusNotFound, 0},
		{"/api/postal/abc", http.StatusBadRequest, 0},
		{"/api/city/13101", http.StatusOK, 3},
		{"/api/city/99999", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got []model.SublocalityRecord
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("got %d records, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestCountAndLoadsRoutes(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/postal/count", nil))
	var count map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatal(err)
	}
	if count["count"] != 3 {
		t.Errorf("count = %v, want 3", count)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/loads", nil))
	var runs []model.LoadRun
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].RowCount != 3 || runs[0].SourcePath != "sample.csv" {
		t.Errorf("runs = %+v", runs)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/loads?limit=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", rec.Code)
	}
}

func TestValidateFolderPath(t *testing.T) {
	if err := validateFolderPath(""); err != nil {
		t.Errorf("empty path: %v", err)
	}
	if err := validateFolderPath(t.TempDir()); err != nil {
		t.Errorf("temp dir: %v", err)
	}
	if err := validateFolderPath("/path/does/not/exist"); err == nil {
		t.Error("expected error for missing folder")
	}
}
