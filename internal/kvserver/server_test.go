package kvserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hakobune/internal/config"
	"hakobune/internal/kvstore"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	cfg := &config.Config{KV: config.KVConfig{Host: "127.0.0.1", Port: 0}}
	return New(cfg, kvstore.New())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" && method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEcho(t *testing.T) {
	h := newTestServer().Handler()

	testCases := []struct {
		name           string
		body           string
		expectedStatus int
		expectedMsg    string
	}{
		{"通常のメッセージ", `{"message":"こんにちは"}`, http.StatusOK, "こんにちは"},
		{"空のメッセージ", `{"message":""}`, http.StatusOK, ""},
		{"messageなし", `{}`, http.StatusBadRequest, ""},
		{"壊れたJSON", `{"message":`, http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/echo", tc.body)
			if rec.Code != tc.expectedStatus {
				t.Fatalf("予期しないステータスコード: got %d, want %d (%s)", rec.Code, tc.expectedStatus, rec.Body)
			}
			if tc.expectedStatus != http.StatusOK {
				return
			}
			var reply EchoReply
			if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
				t.Fatalf("レスポンスの解析に失敗しました: %v", err)
			}
			if reply.Message != tc.expectedMsg {
				t.Errorf("got %q, want %q", reply.Message, tc.expectedMsg)
			}
		})
	}
}

func TestExample(t *testing.T) {
	h := newTestServer().Handler()

	for _, input := range []int64{0, 41, -1} {
		rec := do(t, h, http.MethodPost, "/example", fmt.Sprintf(`{"input":%d}`, input))
		if rec.Code != http.StatusOK {
			t.Fatalf("予期しないステータスコード: %d", rec.Code)
		}
		var reply ExampleReply
		if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
			t.Fatalf("レスポンスの解析に失敗しました: %v", err)
		}
		if reply.Output != input+1 {
			t.Errorf("input=%d: got %d, want %d", input, reply.Output, input+1)
		}
	}

	if rec := do(t, h, http.MethodPost, "/example", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("inputなしで 400 が期待されました: got %d", rec.Code)
	}
}

func TestPutGet(t *testing.T) {
	h := newTestServer().Handler()

	rec := do(t, h, http.MethodGet, "/kv/color", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("存在しないキーで 404 が期待されました: got %d", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("エラーレスポンスの解析に失敗しました: %v", err)
	}
	if errResp.Error != "key_not_found" || errResp.Message != "Key does not exist." {
		t.Errorf("予期しないエラーレスポンス: %+v", errResp)
	}

	for _, value := range []string{"blue", "red"} {
		if rec := do(t, h, http.MethodPut, "/kv/color", value); rec.Code != http.StatusOK {
			t.Fatalf("put に失敗しました: %d", rec.Code)
		}
		rec := do(t, h, http.MethodGet, "/kv/color", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get に失敗しました: %d", rec.Code)
		}
		if rec.Body.String() != value {
			t.Errorf("got %q, want %q", rec.Body.String(), value)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("Content-Type: got %q", ct)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestServer().Handler()
	do(t, h, http.MethodPut, "/kv/a", "1")

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("予期しないステータスコード: %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	if resp.Status != Healthy || resp.Keys != 1 {
		t.Errorf("予期しないレスポンス: %+v", resp)
	}
}

// TestServeAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServeAndShutdown(t *testing.T) {
	srv := newTestServer()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("リッスンに失敗しました: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, ln)
	}()

	resp, err := http.Post("http://"+ln.Addr().String()+"/echo", "application/json", strings.NewReader(`{"message":"ping"}`))
	if err != nil {
		t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "ping") {
		t.Errorf("予期しないレスポンス: %s", body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("シャットダウンでエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}
