package config

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	KenAllPath   string `json:"kenAllPath"`
	DatabasePath string `json:"databasePath"`
	Encoding     string `json:"encoding"`
	Stage        string `json:"stage"`
	DownloadDir  string `json:"downloadDir"`
	DownloadURL  string `json:"downloadURL"`
	ListenAddr   string `json:"listenAddr"`
}

const (
	defaultKenAllPath   = "./KEN_ALL.CSV"
	defaultDatabasePath = "./kenall.db"
	defaultEncoding     = "sjis"
	defaultStage        = "sublocality"
	defaultDownloadURL  = "https://www.post.japanpost.jp/zipcode/download.html"
	defaultListenAddr   = "127.0.0.1:8080"
)

var (
	cfg Config
	mu  sync.RWMutex
)

// configFilePath は設定ファイルの場所です。テストで差し替えます。
var configFilePath = "./kenall_config.json"

// envFiles は godotenv で読み込む .env ファイルです。
var envFiles = []string{".env"}

// LoadConfig は設定ファイルを読み込み、.env と環境変数で上書きします。
// 設定ファイルがなければ既定値を使います。
func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	var tempCfg Config
	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	} else if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}

	// .env は既存の環境変数を上書きしない
	if files := existingFiles(envFiles); len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&tempCfg)
	applyDefaults(&tempCfg)

	cfg = tempCfg
	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

func applyEnv(c *Config) {
	c.KenAllPath = getEnv("KENALL_PATH", c.KenAllPath)
	c.DatabasePath = getEnv("KENALL_DB", c.DatabasePath)
	c.Encoding = getEnv("KENALL_ENCODING", c.Encoding)
	c.Stage = getEnv("KENALL_STAGE", c.Stage)
	c.DownloadDir = getEnv("KENALL_DOWNLOAD_DIR", c.DownloadDir)
	c.DownloadURL = getEnv("KENALL_DOWNLOAD_URL", c.DownloadURL)
	c.ListenAddr = getEnv("KENALL_LISTEN_ADDR", c.ListenAddr)
}

func applyDefaults(c *Config) {
	if c.KenAllPath == "" {
		c.KenAllPath = defaultKenAllPath
	}
	if c.DatabasePath == "" {
		c.DatabasePath = defaultDatabasePath
	}
	if c.Encoding == "" {
		c.Encoding = defaultEncoding
	}
	if c.Stage == "" {
		c.Stage = defaultStage
	}
	if c.DownloadURL == "" {
		c.DownloadURL = defaultDownloadURL
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func existingFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
