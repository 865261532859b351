// Package main はファイルサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hakobune/internal/app"
	"hakobune/internal/config"
)

func main() {
	// コマンドラインオプション
	var (
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		threads    = flag.Int("threads", 0, "ワーカースレッド数 (デフォルト: CPU数)")
		files      = flag.String("files", "", "配信するディレクトリ (デフォルト: カレントディレクトリ)")
		configFile = flag.String("config", "", "設定ファイル (.yaml / .yml / .toml)")
		kv         = flag.Bool("kv", false, "KVサービスを有効にする")
		kvPort     = flag.Int("kv-port", 0, "KVサービスのポート (デフォルト: 50051)")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("hakobune")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}

	// 設定を読み込む (検証はオプションで上書きした後に行う)
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *threads != 0 {
		cfg.Server.Workers = *threads
	}
	if *files != "" {
		cfg.Server.Root = *files
	}
	if *kv {
		cfg.KV.Enabled = true
	}
	if *kvPort != 0 {
		cfg.KV.Port = *kvPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定の検証に失敗しました: %v", err)
	}

	// シグナルでキャンセルされるコンテキストを作成
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// サーバーを起動
	log.Printf("サーバーを起動します: %s", app.Describe(cfg))
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
