// Package contenttype はファイル名の拡張子から Content-Type を決める
package contenttype

import (
	"path"
	"strings"
)

// Default は未知の拡張子に使う Content-Type
const Default = "application/octet-stream"

var byExtension = map[string]string{
	"html":  "text/html",
	"htm":   "text/html",
	"css":   "text/css",
	"js":    "application/javascript",
	"mjs":   "application/javascript",
	"json":  "application/json",
	"map":   "application/json",
	"xml":   "text/xml",
	"txt":   "text/plain",
	"text":  "text/plain",
	"md":    "text/markdown",
	"csv":   "text/csv",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"gif":   "image/gif",
	"bmp":   "image/bmp",
	"ico":   "image/x-icon",
	"svg":   "image/svg+xml",
	"webp":  "image/webp",
	"avif":  "image/avif",
	"pdf":   "application/pdf",
	"wasm":  "application/wasm",
	"zip":   "application/zip",
	"gz":    "application/gzip",
	"tar":   "application/x-tar",
	"7z":    "application/x-7z-compressed",
	"mp3":   "audio/mpeg",
	"wav":   "audio/wav",
	"ogg":   "audio/ogg",
	"mp4":   "video/mp4",
	"webm":  "video/webm",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
}

// ForPath は name の拡張子に対応する Content-Type を返す。
// 拡張子がない、または未知の場合は Default を返す。
func ForPath(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return Default
	}
	if t, ok := byExtension[strings.ToLower(ext[1:])]; ok {
		return t
	}
	return Default
}
