package response

// ステータスコード
const (
	StatusOK               = 200
	StatusBadRequest       = 400
	StatusNotFound         = 404
	StatusMethodNotAllowed = 405
)

var statusText = map[int]string{
	StatusOK:               "OK",
	StatusBadRequest:       "Bad Request",
	StatusNotFound:         "Not Found",
	StatusMethodNotAllowed: "Method Not Allowed",
}

// StatusText はステータスコードに対応する理由句を返す
func StatusText(code int) (string, bool) {
	text, ok := statusText[code]
	return text, ok
}
