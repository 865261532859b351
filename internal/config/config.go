package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"hakobune/internal/request"
	"hakobune/internal/resolve"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server" toml:"server"`
	KV     KVConfig     `yaml:"kv" toml:"kv"`
}

// ServerConfig はファイルサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`                            // リッスンするホスト
	Port int    `yaml:"port" toml:"port" validate:"min=1,max=65535"` // リッスンするポート番号
	Root string `yaml:"root" toml:"root" validate:"required"`        // 配信するディレクトリ
	// 同時に goroutine を実行するOSスレッド数 (GOMAXPROCS)
	Workers int `yaml:"workers" toml:"workers" validate:"min=1"`

	IndexFile    string `yaml:"index_file" toml:"index_file" validate:"required,excludesall=/"` // ディレクトリのインデックス
	MaxHeadBytes int    `yaml:"max_head_bytes" toml:"max_head_bytes" validate:"min=64"`         // リクエストヘッドの上限
}

// KVConfig はKVサービスの設定
type KVConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Host    string `yaml:"host" toml:"host"`
	Port    int    `yaml:"port" toml:"port" validate:"min=1,max=65535"`
}

var validate = validator.New()

// Load は設定を読み込んで検証する。
// 環境変数からデフォルト値を組み立て、CONFIG_FILE があればその内容で上書きする。
func Load() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated は Load と同じ手順で設定を組み立てるが検証はしない。
// コマンドラインで上書きしてから Validate する場合に使う。
func LoadUnvalidated() (*Config, error) {
	// デフォルト設定を作成
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			Root:         getEnvOrDefault("SERVE_DIR", "."),
			Workers:      getEnvAsIntOrDefault("WORKERS", runtime.NumCPU()),
			IndexFile:    getEnvOrDefault("INDEX_FILE", resolve.DefaultIndexFile),
			MaxHeadBytes: getEnvAsIntOrDefault("MAX_HEAD_BYTES", request.DefaultMaxHeadBytes),
		},
		KV: KVConfig{
			Enabled: getEnvOrDefault("KV_ENABLED", "false") == "true",
			Host:    getEnvOrDefault("KV_HOST", "127.0.0.1"),
			Port:    getEnvAsIntOrDefault("KV_PORT", 50051),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadFile は YAML または TOML の設定ファイルで現在の値を上書きする。
// 形式は拡張子で判断する。
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("YAMLの解析に失敗 (%s): %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("TOMLの解析に失敗 (%s): %w", path, err)
		}
	default:
		return fmt.Errorf("未対応の設定ファイル形式: %s", path)
	}
	return nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	// 配信ディレクトリの存在確認
	info, err := os.Stat(c.Server.Root)
	if err != nil {
		return fmt.Errorf("配信ディレクトリにアクセスできません: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("配信ディレクトリではありません: %s", c.Server.Root)
	}

	return nil
}

// ServerAddress はファイルサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// KVAddress はKVサービスのリッスンアドレスを返す
func (c *Config) KVAddress() string {
	return fmt.Sprintf("%s:%d", c.KV.Host, c.KV.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
