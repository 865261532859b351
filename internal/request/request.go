package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

const (
	// ChunkSize は1回の読み込みサイズ
	ChunkSize = 1024
	// DefaultMaxHeadBytes はヘッドの最大バイト数のデフォルト値
	DefaultMaxHeadBytes = 8192
)

var (
	// ErrConnectionClosed はヘッドが揃う前に相手が接続を閉じたことを示す
	ErrConnectionClosed = errors.New("request: ヘッド受信前に接続が閉じられました")
	// ErrMalformedRequest はヘッドを解析できなかったことを示す
	ErrMalformedRequest = errors.New("request: 不正なリクエスト")
)

// Request は1接続につき1つだけ生成されるリクエストヘッド
type Request struct {
	Method  string
	Target  string // 送られたままのリクエストターゲット（未デコード）
	Version string
	Header  Header
}

// Read は r からヘッドが完成するまで読み込み、Request を返す。
// maxHead が 0 以下の場合は DefaultMaxHeadBytes を使う。
func Read(r io.Reader, maxHead int) (*Request, error) {
	if maxHead <= 0 {
		maxHead = DefaultMaxHeadBytes
	}

	buf := make([]byte, 0, ChunkSize)
	chunk := make([]byte, ChunkSize)
	skipped := 0
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			// リクエスト行より前の空行は読み飛ばす (RFC 9112 2.2)
			var k int
			buf, k = trimLeadingEmptyLines(buf)
			skipped += k
			if skipped > maxHead {
				return nil, fmt.Errorf("%w: リクエスト行の前の空行が %d バイトを超えました", ErrMalformedRequest, maxHead)
			}
			if end := headEnd(buf); end >= 0 {
				if end > maxHead {
					return nil, fmt.Errorf("%w: ヘッドが %d バイトを超えました", ErrMalformedRequest, maxHead)
				}
				return parseHead(buf[:end])
			}
			if len(buf) > maxHead {
				return nil, fmt.Errorf("%w: ヘッドが %d バイトを超えました", ErrMalformedRequest, maxHead)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil, ErrConnectionClosed
			}
			return nil, fmt.Errorf("リクエストの読み込みに失敗: %w", err)
		}
		if n == 0 {
			return nil, ErrConnectionClosed
		}
	}
}

// trimLeadingEmptyLines は先頭の CRLF と LF を取り除き、取り除いたバイト数を返す。
// 末尾に単独で残った CR は次の読み込みを待つ。
func trimLeadingEmptyLines(buf []byte) ([]byte, int) {
	n := 0
	for {
		switch {
		case bytes.HasPrefix(buf, []byte("\r\n")):
			buf, n = buf[2:], n+2
		case len(buf) > 0 && buf[0] == '\n':
			buf, n = buf[1:], n+1
		default:
			return buf, n
		}
	}
}

// headEnd は空行の直後のオフセットを返す。見つからなければ -1。
// CRLF と LF のみの改行の両方を受け付ける。
func headEnd(buf []byte) int {
	for i := 0; i < len(buf); i++ {
		if buf[i] != '\n' {
			continue
		}
		if i+1 < len(buf) && buf[i+1] == '\n' {
			return i + 2
		}
		if i+2 < len(buf) && buf[i+1] == '\r' && buf[i+2] == '\n' {
			return i + 3
		}
	}
	return -1
}

func parseHead(head []byte) (*Request, error) {
	lines := strings.Split(string(head), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: ヘッダーの形式が不正です: %q", ErrMalformedRequest, line)
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("%w: ヘッダー名が不正です: %q", ErrMalformedRequest, line)
		}
		req.Header = append(req.Header, Field{Name: name, Value: strings.TrimSpace(value)})
	}
	return req, nil
}

func parseRequestLine(line string) (*Request, error) {
	fields := strings.Split(line, " ")
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: リクエスト行が不正です: %q", ErrMalformedRequest, line)
	}
	for _, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("%w: リクエスト行が不正です: %q", ErrMalformedRequest, line)
		}
	}
	if !strings.HasPrefix(fields[2], "HTTP/") {
		return nil, fmt.Errorf("%w: 不明なバージョン: %q", ErrMalformedRequest, fields[2])
	}
	return &Request{
		Method:  fields[0],
		Target:  fields[1],
		Version: fields[2],
	}, nil
}
