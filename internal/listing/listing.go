// Package listing はインデックスのないディレクトリの一覧HTMLを生成する
package listing

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"

	"golang.org/x/net/html"

	"hakobune/internal/resolve"
)

const (
	opening   = "<html><body><br/>"
	closing   = "</body></html>"
	separator = "<br/>"

	// batchSize は1回の ReadDir で取得するエントリ数
	batchSize = 32
)

// Write は d の一覧を w へ書き込む。
// エントリは列挙されたそばから書き出すため、順序はファイルシステム依存。
func Write(w io.Writer, fsys fs.FS, d resolve.DirectoryListing) error {
	f, err := fsys.Open(d.Name)
	if err != nil {
		return fmt.Errorf("ディレクトリを開けません: %w", err)
	}
	defer f.Close()

	dir, ok := f.(fs.ReadDirFile)
	if !ok {
		return fmt.Errorf("ディレクトリとして読めません: %s", d.Name)
	}

	if _, err := io.WriteString(w, opening); err != nil {
		return err
	}
	if d.HasParent {
		if err := writeLink(w, d.Parent, ".."); err != nil {
			return err
		}
	}

	for {
		entries, err := dir.ReadDir(batchSize)
		for _, e := range entries {
			if werr := writeLink(w, path.Join(d.URLPath, e.Name()), e.Name()); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("ディレクトリの列挙に失敗: %w", err)
		}
	}

	_, err = io.WriteString(w, closing)
	return err
}

func writeLink(w io.Writer, target, text string) error {
	href := (&url.URL{Path: target}).EscapedPath()
	_, err := fmt.Fprintf(w, `<a href="%s">%s</a>%s`, html.EscapeString(href), html.EscapeString(text), separator)
	return err
}
