// Package app はファイルサーバーとKVサービスを1つのプロセスで起動する
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"

	"hakobune/internal/config"
	"hakobune/internal/kvserver"
	"hakobune/internal/kvstore"
	"hakobune/internal/server"
)

// Run は設定に従ってサーバーを起動し、ctx がキャンセルされるか
// いずれかのサーバーが失敗するまでブロックする
func Run(ctx context.Context, cfg *config.Config) error {
	// ワーカー数はgoroutineを並行実行するOSスレッド数として扱う
	runtime.GOMAXPROCS(cfg.Server.Workers)
	configureGin()
	PrintBanner(cfg)

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	running := 1
	go func() {
		errCh <- srv.Start(ctx)
	}()

	if cfg.KV.Enabled {
		running++
		kv := kvserver.New(cfg, kvstore.New())
		go func() {
			errCh <- kv.Start(ctx)
		}()
	}

	// 1つが失敗したら残りも止める
	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

// PrintBanner は起動時の設定を表示する
func PrintBanner(cfg *config.Config) {
	log.Println("HTTP server initializing ---------")
	log.Printf("Port:\t\t%d", cfg.Server.Port)
	log.Printf("Num threads:\t%d", cfg.Server.Workers)
	log.Printf("Directory:\t%s", cfg.Server.Root)
	if cfg.KV.Enabled {
		log.Printf("KV service:\t%s", cfg.KVAddress())
	}
	log.Println("----------------------------------")
}

// configureGin は gin の動作モードと出力の色付けを設定する
func configureGin() {
	gin.SetMode(gin.ReleaseMode)
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		gin.DisableConsoleColor()
	}
}

// Describe は設定の概要を1行で返す
func Describe(cfg *config.Config) string {
	s := fmt.Sprintf("files=%s addr=%s workers=%d", cfg.Server.Root, cfg.ServerAddress(), cfg.Server.Workers)
	if cfg.KV.Enabled {
		s += " kv=" + cfg.KVAddress()
	}
	return s
}
