package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hakobune/internal/app"
	"hakobune/internal/config"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// シグナルでキャンセルされるコンテキストを作成
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// サーバーを起動
	if err := app.Run(ctx, cfg); err != nil {
		log.Printf("サーバーの起動に失敗しました: %v", err)
		os.Exit(1)
	}
}
