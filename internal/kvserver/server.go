// Package kvserver は kvstore を gin 経由の JSON API として公開する。
//
// ファイルサーバーとは同じプロセスで動くだけで、コードパスは共有しない。
//
// エンドポイント:
//   - POST /echo      {"message": "..."} をそのまま返す
//   - POST /example   {"input": n} に対して {"output": n+1}
//   - PUT  /kv/:key   ボディを値として保存（上書き）
//   - GET  /kv/:key   値を返す。無ければ 404
//   - GET  /health    ヘルスチェック
package kvserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"hakobune/internal/config"
	"hakobune/internal/kvstore"

	"github.com/gin-gonic/gin"
)

// Server は KV サービスの HTTP サーバーを管理する構造体
type Server struct {
	config     *config.Config
	engine     *gin.Engine
	httpServer *http.Server
}

// New は新しい Server インスタンスを作成する
func New(cfg *config.Config, store *kvstore.Store) *Server {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		config: cfg,
		engine: engine,
		httpServer: &http.Server{
			Addr:    cfg.KVAddress(),
			Handler: engine,
		},
	}
	s.setupRoutes(&KVHandler{store: store})
	return s
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes(h *KVHandler) {
	s.engine.GET("/health", h.HealthCheck)
	s.engine.POST("/echo", h.Echo)
	s.engine.POST("/example", h.Example)
	s.engine.PUT("/kv/:key", h.Put)
	s.engine.GET("/kv/:key", h.Get)
}

// Handler はルーティング済みの http.Handler を返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start はサーバーを起動し、ctx がキャンセルされるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.KVAddress())
	if err != nil {
		return fmt.Errorf("KVサービスのリッスンに失敗: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve は ln で待ち受ける。ctx がキャンセルされるとシャットダウンする。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveCh := make(chan error, 1)
	go func() {
		log.Printf("KVサービスを起動しています: %s", ln.Addr())
		serveCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-serveCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("KVサービスが停止しました: %w", err)
	}
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("KVサービスをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("KVサービスのシャットダウンに失敗: %w", err)
	}

	log.Println("KVサービスが正常にシャットダウンされました")
	return nil
}
