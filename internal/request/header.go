package request

import "strings"

// Field はヘッダー1行分
type Field struct {
	Name  string
	Value string
}

// Header は到着順を保持するヘッダー一覧。
// 同名ヘッダーはすべて保持し、Get は最後の値を返す。
type Header []Field

// Get は name に一致する最後のヘッダー値を返す
func (h Header) Get(name string) string {
	for i := len(h) - 1; i >= 0; i-- {
		if strings.EqualFold(h[i].Name, name) {
			return h[i].Value
		}
	}
	return ""
}

// Values は name に一致する全ての値を到着順で返す
func (h Header) Values(name string) []string {
	var values []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

// Has は name のヘッダーが存在するかを返す
func (h Header) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}
