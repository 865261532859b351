// Package response はレスポンスを接続へ書き出す。
//
// 書き込み順序は型で表現している。Writer.WriteStatus が HeaderWriter を返し、
// HeaderWriter.EndHeaders だけが BodyWriter を返すため、ヘッダー終端より前に
// ボディを書く経路は存在しない。
package response

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ChunkSize はファイル配信時の1回の読み込みサイズ
const ChunkSize = 1024

// Version はステータス行に書くプロトコルバージョン。
// 1接続1リクエストなので HTTP/1.0 を名乗る。
const Version = "HTTP/1.0"

var (
	// ErrStatusWritten はステータス行が既に書かれていることを示す
	ErrStatusWritten = errors.New("response: ステータス行は既に書き込まれています")
	// ErrHeadersClosed はヘッダー部が既に閉じられていることを示す
	ErrHeadersClosed = errors.New("response: ヘッダー部は既に閉じられています")
)

// SourceError はボディの読み込み元で発生したエラー。
// ヘッダー送信後なので、呼び出し側はログを出して打ち切るしかない。
type SourceError struct {
	Written int64
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("response: %d バイト送信後に読み込みに失敗: %v", e.Written, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Writer はステータス行を書く段階
type Writer struct {
	bw      *bufio.Writer
	started bool
}

// HeaderWriter はヘッダー行を書く段階
type HeaderWriter struct {
	bw     *bufio.Writer
	closed bool
}

// BodyWriter はボディを書く段階。EndHeaders からのみ得られる。
type BodyWriter struct {
	bw *bufio.Writer
}

// NewWriter は w へ書き込む Writer を作成する
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, ChunkSize)}
}

// WriteStatus はステータス行を書き、ヘッダーを書く段階へ進む
func (w *Writer) WriteStatus(code int) (*HeaderWriter, error) {
	if w.started {
		return nil, ErrStatusWritten
	}
	reason, ok := StatusText(code)
	if !ok {
		return nil, fmt.Errorf("response: 未対応のステータスコード: %d", code)
	}
	w.started = true
	if _, err := fmt.Fprintf(w.bw, "%s %d %s\r\n", Version, code, reason); err != nil {
		return nil, err
	}
	return &HeaderWriter{bw: w.bw}, nil
}

// Set はヘッダーを1行書く。呼び出し順がそのまま送信順になる。
func (h *HeaderWriter) Set(name, value string) error {
	if h.closed {
		return ErrHeadersClosed
	}
	_, err := fmt.Fprintf(h.bw, "%s: %s\r\n", name, value)
	return err
}

// EndHeaders は空行でヘッダー部を閉じ、ボディを書く段階へ進む
func (h *HeaderWriter) EndHeaders() (*BodyWriter, error) {
	if h.closed {
		return nil, ErrHeadersClosed
	}
	h.closed = true
	if _, err := h.bw.WriteString("\r\n"); err != nil {
		return nil, err
	}
	return &BodyWriter{bw: h.bw}, nil
}

// Write はボディとしてバイト列を書く
func (b *BodyWriter) Write(p []byte) (int, error) {
	return b.bw.Write(p)
}

// WriteString はボディとして文字列を書く
func (b *BodyWriter) WriteString(s string) (int, error) {
	return b.bw.WriteString(s)
}

// Stream は r を ChunkSize ずつ読み、EOF まで書き込む。
// 読み込み側の失敗は *SourceError、書き込み側の失敗はそのまま返す。
func (b *BodyWriter) Stream(r io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			m, werr := b.bw.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, &SourceError{Written: written, Err: rerr}
		}
	}
}

// Finish はバッファに残ったデータを送信する
func (b *BodyWriter) Finish() error {
	return b.bw.Flush()
}
