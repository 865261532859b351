package server

import (
	"errors"
	"log"
	"net"
	"strconv"

	"github.com/google/uuid"

	"hakobune/internal/contenttype"
	"hakobune/internal/listing"
	"hakobune/internal/request"
	"hakobune/internal/resolve"
	"hakobune/internal/response"
)

// connHandler は1つの接続を最初から最後まで処理する。
// 接続を閉じるのはこのハンドラだけで、どの経路でも1回だけ閉じる。
type connHandler struct {
	id       string
	conn     net.Conn
	resolver *resolve.Resolver
	maxHead  int

	req     *request.Request
	status  int
	file    resolve.File
	listing resolve.DirectoryListing
	closed  bool
}

type stateFunc func(*connHandler) stateFunc

type header struct {
	name  string
	value string
}

func (s *Server) handleConn(conn net.Conn) {
	h := &connHandler{
		id:       uuid.NewString(),
		conn:     conn,
		resolver: s.resolver,
		maxHead:  s.config.Server.MaxHeadBytes,
	}
	h.run()
}

func (h *connHandler) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("E [%s] ハンドラでパニックが発生しました: %v", h.id, r)
		}
		h.close()
	}()

	for state := awaitRequest; state != nil; {
		state = state(h)
	}
}

func (h *connHandler) close() {
	if h.closed {
		return
	}
	h.closed = true
	if err := h.conn.Close(); err != nil {
		log.Printf("W [%s] 接続のクローズに失敗: %v", h.id, err)
	}
}

// startResponse はステータス行とヘッダーを書き、ボディを書く段階を返す
func (h *connHandler) startResponse(status int, headers ...header) (*response.BodyWriter, error) {
	hw, err := response.NewWriter(h.conn).WriteStatus(status)
	if err != nil {
		return nil, err
	}
	for _, hd := range headers {
		if err := hw.Set(hd.name, hd.value); err != nil {
			return nil, err
		}
	}
	return hw.EndHeaders()
}

func (h *connHandler) logResponse(status int) {
	log.Printf("I [%s] %s %s %s -> %d", h.id, h.conn.RemoteAddr(), h.req.Method, h.req.Target, status)
}

// state funcs

func awaitRequest(h *connHandler) stateFunc {
	req, err := request.Read(h.conn, h.maxHead)
	switch {
	case err == nil:
		h.req = req
		return route
	case errors.Is(err, request.ErrConnectionClosed):
		return closeConn
	case errors.Is(err, request.ErrMalformedRequest):
		log.Printf("W [%s] %s 不正なリクエスト: %v", h.id, h.conn.RemoteAddr(), err)
		h.req = &request.Request{Method: "-", Target: "-"}
		h.status = response.StatusBadRequest
		return respondError
	default:
		log.Printf("E [%s] %v", h.id, err)
		return closeConn
	}
}

func route(h *connHandler) stateFunc {
	if h.req.Method != "GET" {
		h.status = response.StatusMethodNotAllowed
		return respondError
	}
	return h.dispatch(h.resolver.Resolve(h.req.Target))
}

// dispatch は解決結果ごとに次の状態を決める
func (h *connHandler) dispatch(target resolve.ServedPath) stateFunc {
	switch t := target.(type) {
	case resolve.File:
		h.file = t
		return respondFile
	case resolve.DirectoryWithIndex:
		return h.dispatch(h.resolver.ResolveFile(t.IndexName))
	case resolve.DirectoryListing:
		h.listing = t
		return respondListing
	case resolve.NotFound:
		h.status = response.StatusNotFound
		return respondError
	default:
		log.Printf("E [%s] 未知の解決結果: %T", h.id, target)
		h.status = response.StatusNotFound
		return respondError
	}
}

func respondError(h *connHandler) stateFunc {
	var headers []header
	if h.status == response.StatusMethodNotAllowed {
		headers = append(headers, header{"Content-Type", "text/plain"})
	}

	body, err := h.startResponse(h.status, headers...)
	if err == nil {
		err = body.Finish()
	}
	if err != nil {
		log.Printf("E [%s] エラーレスポンスの送信に失敗: %v", h.id, err)
		return closeConn
	}
	h.logResponse(h.status)
	return closeConn
}

func respondFile(h *connHandler) stateFunc {
	f, err := h.resolver.FS().Open(h.file.Name)
	if err != nil {
		// ヘッダー送信前なので 404 にできる
		h.status = response.StatusNotFound
		return respondError
	}
	defer f.Close()

	body, err := h.startResponse(response.StatusOK,
		header{"Content-Type", contenttype.ForPath(h.file.Name)},
		header{"Content-Length", strconv.FormatInt(h.file.Size, 10)},
	)
	if err != nil {
		log.Printf("E [%s] ヘッダーの送信に失敗: %v", h.id, err)
		return closeConn
	}

	n, err := body.Stream(f)
	var srcErr *response.SourceError
	switch {
	case errors.As(err, &srcErr):
		// ヘッダーは送信済みなので打ち切るしかない
		log.Printf("W [%s] ファイルの読み込みに失敗したため打ち切ります (%d/%d バイト): %v", h.id, n, h.file.Size, srcErr.Err)
	case err != nil:
		log.Printf("E [%s] ファイルの送信に失敗: %v", h.id, err)
		return closeConn
	}

	if err := body.Finish(); err != nil {
		log.Printf("E [%s] ファイルの送信に失敗: %v", h.id, err)
		return closeConn
	}
	h.logResponse(response.StatusOK)
	return closeConn
}

func respondListing(h *connHandler) stateFunc {
	body, err := h.startResponse(response.StatusOK, header{"Content-Type", "text/html"})
	if err != nil {
		log.Printf("E [%s] ヘッダーの送信に失敗: %v", h.id, err)
		return closeConn
	}

	// 長さが事前に分からないので Content-Length は付けず、切断でボディの終端を示す
	if err := listing.Write(body, h.resolver.FS(), h.listing); err != nil {
		log.Printf("E [%s] ディレクトリ一覧の生成に失敗: %v", h.id, err)
		return closeConn
	}
	if err := body.Finish(); err != nil {
		log.Printf("E [%s] ディレクトリ一覧の送信に失敗: %v", h.id, err)
		return closeConn
	}
	h.logResponse(response.StatusOK)
	return closeConn
}

func closeConn(h *connHandler) stateFunc {
	h.close()
	return nil
}
