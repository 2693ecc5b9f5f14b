package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"
)

// kenAllLinkSelector は郵便番号データダウンロードページの「全国一括」ZIPへのリンクです。
const kenAllLinkSelector = "a[href$='ken_all.zip']"

const downloadTimeout = 120 * time.Second

// DownloadOptions はダウンロードの設定です。
type DownloadOptions struct {
	PageURL  string
	SaveDir  string
	Headless bool
	Logger   *zerolog.Logger
}

// DownloadKenAll は日本郵便の郵便番号データダウンロードページを開き、
// ken_all.zip をダウンロードして保存先のパスを返します。
func DownloadKenAll(opts DownloadOptions) (path string, err error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	saveDir, err := ensureDir(opts.SaveDir)
	if err != nil {
		return "", err
	}

	// Leakless(false) でセキュリティソフト対策
	u, err := launcher.New().
		Headless(opts.Headless).
		Leakless(false).
		Launch()
	if err != nil {
		return "", fmt.Errorf("ブラウザの起動に失敗: %w", err)
	}

	browser := rod.New().ControlURL(u).Timeout(downloadTimeout)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("ブラウザへの接続に失敗: %w", err)
	}
	defer browser.Close()

	log.Info().Str("url", opts.PageURL).Msg("opening download page")

	var data []byte
	err = rod.Try(func() {
		page := browser.MustPage(opts.PageURL)
		page.MustWaitStable()

		link := page.MustElement(kenAllLinkSelector)
		wait := browser.MustWaitDownload()
		link.MustClick()

		log.Info().Msg("waiting for ken_all.zip")
		data = wait()
	})
	if err != nil {
		return "", fmt.Errorf("ken_all.zip のダウンロードに失敗: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("ダウンロードデータが空です")
	}

	destPath := filepath.Join(saveDir, kenAllFileName(time.Now()))
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return "", fmt.Errorf("ファイルの書き込みに失敗: %w", err)
	}

	log.Info().Str("path", destPath).Int("bytes", len(data)).Msg("download complete")
	return destPath, nil
}

// ensureDir は保存先フォルダを作成します。空なら一時フォルダを使います。
func ensureDir(dir string) (string, error) {
	if dir == "" {
		return os.TempDir(), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("保存先フォルダの作成に失敗: %w", err)
	}
	return dir, nil
}

func kenAllFileName(t time.Time) string {
	return fmt.Sprintf("ken_all_%s.zip", t.Format("20060102150405"))
}
