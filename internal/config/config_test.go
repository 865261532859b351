package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestConfigLoad は設定の読み込みをテストする
func TestConfigLoad(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	// 設定を読み込む
	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// サーバー設定の検証
	if cfg.Server.Host == "" {
		t.Error("サーバーホストが設定されていません")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		t.Errorf("無効なポート番号: %d", cfg.Server.Port)
	}
	if cfg.Server.Workers <= 0 {
		t.Error("ワーカー数が設定されていません")
	}
	if cfg.Server.Root == "" {
		t.Error("配信ディレクトリが設定されていません")
	}
	if cfg.Server.IndexFile != "index.html" {
		t.Errorf("インデックスファイル: got %s, want index.html", cfg.Server.IndexFile)
	}
	if cfg.Server.MaxHeadBytes <= 0 {
		t.Error("ヘッド上限が設定されていません")
	}
}

// TestConfigValidation は設定の検証をテストする
func TestConfigValidation(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	valid := func() *Config {
		return &Config{
			Server: ServerConfig{
				Host:         "localhost",
				Port:         8080,
				Root:         root,
				Workers:      4,
				IndexFile:    "index.html",
				MaxHeadBytes: 8192,
			},
			KV: KVConfig{Host: "localhost", Port: 50051},
		}
	}

	testCases := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{"正常な設定", func(*Config) {}, false},
		{"無効なポート番号", func(c *Config) { c.Server.Port = 99999 }, true},
		{"ポート番号0", func(c *Config) { c.Server.Port = 0 }, true},
		{"ワーカー数0", func(c *Config) { c.Server.Workers = 0 }, true},
		{"配信ディレクトリなし", func(c *Config) { c.Server.Root = "" }, true},
		{"存在しない配信ディレクトリ", func(c *Config) { c.Server.Root = filepath.Join(root, "missing") }, true},
		{"配信ディレクトリがファイル", func(c *Config) { c.Server.Root = file }, true},
		{"インデックスにスラッシュ", func(c *Config) { c.Server.IndexFile = "a/index.html" }, true},
		{"インデックスが空", func(c *Config) { c.Server.IndexFile = "" }, true},
		{"ヘッド上限が小さすぎる", func(c *Config) { c.Server.MaxHeadBytes = 10 }, true},
		{"無効なKVポート", func(c *Config) { c.KV.Port = -1 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}

// TestServerAddress はリッスンアドレスの生成をテストする
func TestServerAddress(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Host: "192.168.1.100", Port: 9090},
		KV:     KVConfig{Host: "127.0.0.1", Port: 50051},
	}

	if got := cfg.ServerAddress(); got != "192.168.1.100:9090" {
		t.Errorf("サーバーアドレスが一致しません: got %s, want 192.168.1.100:9090", got)
	}
	if got := cfg.KVAddress(); got != "127.0.0.1:50051" {
		t.Errorf("KVアドレスが一致しません: got %s, want 127.0.0.1:50051", got)
	}
}

// TestEnvironmentVariables は環境変数の処理をテストする
// 注意: このテストは環境変数を変更するため、parallelは使わない
func TestEnvironmentVariables(t *testing.T) {
	root := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_HOST", "test.example.com")
	t.Setenv("PORT", "9999")
	t.Setenv("WORKERS", "3")
	t.Setenv("SERVE_DIR", root)
	t.Setenv("KV_ENABLED", "true")
	t.Setenv("KV_PORT", "6000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "test.example.com" {
		t.Errorf("環境変数のホストが反映されていません: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("環境変数のポートが反映されていません: got %d", cfg.Server.Port)
	}
	if cfg.Server.Workers != 3 {
		t.Errorf("環境変数のワーカー数が反映されていません: got %d", cfg.Server.Workers)
	}
	if cfg.Server.Root != root {
		t.Errorf("環境変数の配信ディレクトリが反映されていません: got %s", cfg.Server.Root)
	}
	if !cfg.KV.Enabled || cfg.KV.Port != 6000 {
		t.Errorf("環境変数のKV設定が反映されていません: %+v", cfg.KV)
	}
}

// TestLoadFile は設定ファイルによる上書きをテストする
func TestLoadFile(t *testing.T) {
	root := t.TempDir()

	testCases := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "YAML",
			file: "config.yaml",
			content: `server:
  port: 9000
  workers: 2
  root: ` + root + `
kv:
  enabled: true
  port: 7000
`,
		},
		{
			name: "TOML",
			file: "config.toml",
			content: `[server]
port = 9000
workers = 2
root = "` + root + `"

[kv]
enabled = true
port = 7000
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg := &Config{
				Server: ServerConfig{Host: "0.0.0.0", Port: 8080, IndexFile: "index.html", MaxHeadBytes: 8192},
				KV:     KVConfig{Host: "127.0.0.1", Port: 50051},
			}
			if err := cfg.LoadFile(path); err != nil {
				t.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
			}

			if cfg.Server.Port != 9000 || cfg.Server.Workers != 2 || cfg.Server.Root != root {
				t.Errorf("サーバー設定が上書きされていません: %+v", cfg.Server)
			}
			// ファイルにない項目はそのまま
			if cfg.Server.Host != "0.0.0.0" || cfg.Server.IndexFile != "index.html" {
				t.Errorf("デフォルト値が失われました: %+v", cfg.Server)
			}
			if !cfg.KV.Enabled || cfg.KV.Port != 7000 || cfg.KV.Host != "127.0.0.1" {
				t.Errorf("KV設定が正しくありません: %+v", cfg.KV)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("検証に失敗しました: %v", err)
			}
		})
	}
}

// TestLoadFileErrors は設定ファイルの異常系をテストする
func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	testCases := []struct {
		name string
		path string
	}{
		{"存在しないファイル", filepath.Join(dir, "missing.yaml")},
		{"未対応の拡張子", write("config.json", "{}")},
		{"未知のYAMLキー", write("unknown.yaml", "server:\n  colour: blue\n")},
		{"未知のTOMLキー", write("unknown.toml", "[server]\ncolour = \"blue\"\n")},
		{"壊れたYAML", write("broken.yml", "server: [\n")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			if err := cfg.LoadFile(tc.path); err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
		})
	}
}

// TestLoadWithConfigFile は CONFIG_FILE 経由の読み込みをテストする
func TestLoadWithConfigFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "hakobune.yml")
	if err := os.WriteFile(path, []byte("server:\n  root: "+root+"\n  port: 8181\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}
	if cfg.Server.Port != 8181 || cfg.Server.Root != root {
		t.Errorf("設定ファイルが反映されていません: %+v", cfg.Server)
	}
}

// TestLoadUnvalidatedThenOverride は検証前に上書きできることをテストする
func TestLoadUnvalidatedThenOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("KV_PORT", "")
	t.Setenv("SERVE_DIR", filepath.Join(t.TempDir(), "missing"))

	if _, err := Load(); err == nil {
		t.Fatal("存在しない配信ディレクトリでエラーが期待されました")
	}

	cfg, err := LoadUnvalidated()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションでの上書きに相当
	cfg.Server.Root = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Errorf("上書き後の設定で予期しないエラー: %v", err)
	}
}
