package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"hakobune/internal/config"
	"hakobune/internal/resolve"
)

const (
	// shutdownTimeout は処理中の接続を待つ上限
	shutdownTimeout = 5 * time.Second

	// Accept が失敗したときの再試行間隔
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = 1 * time.Second
)

// Server はファイルサーバーを管理する構造体
type Server struct {
	config   *config.Config
	resolver *resolve.Resolver
	root     *os.Root

	// 処理中の接続
	conns sync.WaitGroup
}

// New は新しいServerインスタンスを作成する。
// 配信ディレクトリは os.Root として開き、その外側には解決しない。
func New(cfg *config.Config) (*Server, error) {
	root, err := os.OpenRoot(cfg.Server.Root)
	if err != nil {
		return nil, fmt.Errorf("配信ディレクトリを開けません: %w", err)
	}
	s := newServer(cfg, root.FS())
	s.root = root
	return s, nil
}

func newServer(cfg *config.Config, fsys fs.FS) *Server {
	return &Server{
		config:   cfg,
		resolver: resolve.New(fsys, cfg.Server.IndexFile),
	}
}

// Start は設定のアドレスで待ち受け、ctx がキャンセルされるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ServerAddress())
	if err != nil {
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve は ln で接続を受け付け、接続ごとに goroutine で処理する。
// ctx がキャンセルされるとリスナーを閉じ、処理中の接続を待ってから nil を返す。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Printf("ファイルサーバーを起動しています: %s (root=%s)", ln.Addr(), s.config.Server.Root)

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var delay time.Duration
	for {
		// シャットダウン信号を確認
		select {
		case <-ctx.Done():
			return s.shutdown()
		default:
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return s.shutdown()
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("リスナーが閉じられました: %w", err)
			}
			// 一時的なエラー (fd 枯渇など) は間隔を空けて再試行する
			delay = nextAcceptDelay(delay)
			log.Printf("接続の受け付けに失敗 (%v 後に再試行): %v", delay, err)
			select {
			case <-ctx.Done():
				return s.shutdown()
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		// 接続の所有権はハンドラへ移る
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

// nextAcceptDelay は前回の待ち時間から次の待ち時間を求める。
// minAcceptDelay から倍々に増やし、maxAcceptDelay で頭打ちにする。
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	if next := prev * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}

// shutdown は処理中の接続が終わるのを待つ。
// 新しい接続を受け付けなくなった後、Serve の中からだけ呼ぶ。
func (s *Server) shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("サーバーのシャットダウンに失敗: %s 以内に終わらない接続があります", shutdownTimeout)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}

// Close は配信ディレクトリを閉じる
func (s *Server) Close() error {
	if s.root == nil {
		return nil
	}
	return s.root.Close()
}
