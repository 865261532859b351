// Package resolve はリクエストターゲットを配信ルート配下の対象へ解決する。
//
// 解決結果は ServedPath のいずれか1つで、呼び出し側は型スイッチで
// 一度だけ分岐する。ルートの外へ出る解決は行わない。
package resolve

import (
	"io/fs"
	"net/url"
	"path"
	"strings"
)

// DefaultIndexFile はディレクトリのインデックスとして探すファイル名
const DefaultIndexFile = "index.html"

// ServedPath は解決結果。File, DirectoryWithIndex, DirectoryListing, NotFound のいずれか。
type ServedPath interface {
	servedPath()
}

// File は通常ファイル
type File struct {
	Name string // fs.FS 上の名前
	Size int64
}

// DirectoryWithIndex はインデックスファイルを持つディレクトリ
type DirectoryWithIndex struct {
	IndexName string
}

// DirectoryListing は一覧を生成すべきディレクトリ
type DirectoryListing struct {
	Name      string // fs.FS 上の名前
	URLPath   string // 正規化済みのURLパス
	Parent    string // URL空間での親パス
	HasParent bool   // ルートでは false
}

// NotFound は解決できなかったパス
type NotFound struct{}

func (File) servedPath()               {}
func (DirectoryWithIndex) servedPath() {}
func (DirectoryListing) servedPath()   {}
func (NotFound) servedPath()           {}

// Resolver は fs.FS をルートとしてパスを解決する
type Resolver struct {
	fsys  fs.FS
	index string
}

// New は新しい Resolver を作成する。index が空なら DefaultIndexFile を使う。
func New(fsys fs.FS, index string) *Resolver {
	if index == "" {
		index = DefaultIndexFile
	}
	return &Resolver{fsys: fsys, index: index}
}

// FS は解決に使っているファイルシステムを返す
func (r *Resolver) FS() fs.FS {
	return r.fsys
}

// Resolve はリクエストターゲットを ServedPath に解決する
func (r *Resolver) Resolve(target string) ServedPath {
	urlPath, ok := CleanTarget(target)
	if !ok {
		return NotFound{}
	}
	name := NameFor(urlPath)

	info, err := fs.Stat(r.fsys, name)
	if err != nil {
		return NotFound{}
	}
	if !info.IsDir() {
		// "/a.txt/" はディレクトリを要求しているのでファイルには解決しない
		if wantsDirectory(target) {
			return NotFound{}
		}
		return fileFrom(name, info)
	}

	indexName := path.Join(name, r.index)
	if fi, err := fs.Stat(r.fsys, indexName); err == nil && fi.Mode().IsRegular() {
		return DirectoryWithIndex{IndexName: indexName}
	}

	listing := DirectoryListing{Name: name, URLPath: urlPath}
	if urlPath != "/" {
		listing.Parent = path.Dir(urlPath)
		listing.HasParent = true
	}
	return listing
}

// ResolveFile は name を通常ファイルとして解決する。
// インデックスファイルの解決にも使う。
func (r *Resolver) ResolveFile(name string) ServedPath {
	info, err := fs.Stat(r.fsys, name)
	if err != nil {
		return NotFound{}
	}
	return fileFrom(name, info)
}

func fileFrom(name string, info fs.FileInfo) ServedPath {
	if !info.Mode().IsRegular() {
		return NotFound{}
	}
	return File{Name: name, Size: info.Size()}
}

// CleanTarget はリクエストターゲットからクエリとフラグメントを除き、
// パーセントデコードしてルート起点で正規化する。
// ".." はルートより上に出ない。
func CleanTarget(target string) (string, bool) {
	p := target
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		return "", false
	}
	decoded, err := url.PathUnescape(p)
	if err != nil || strings.IndexByte(decoded, 0) >= 0 {
		return "", false
	}
	return path.Clean(decoded), true
}

// wantsDirectory はデコード後のパスが "/" で終わるかを返す
func wantsDirectory(target string) bool {
	p := target
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	decoded, err := url.PathUnescape(p)
	return err == nil && strings.HasSuffix(decoded, "/")
}

// NameFor は正規化済みURLパスを fs.FS 上の名前に変換する
func NameFor(urlPath string) string {
	name := strings.TrimPrefix(urlPath, "/")
	if name == "" {
		return "."
	}
	return name
}
