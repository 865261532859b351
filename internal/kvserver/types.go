package kvserver

import "time"

// HealthStatus はヘルスチェックの状態
type HealthStatus string

const (
	// Healthy は正常
	Healthy HealthStatus = "healthy"
)

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Keys      int          `json:"keys"`
	Timestamp time.Time    `json:"timestamp"`
}

// EchoRequest は echo のリクエスト
type EchoRequest struct {
	Message *string `json:"message" binding:"required"`
}

// EchoReply は echo のレスポンス
type EchoReply struct {
	Message string `json:"message"`
}

// ExampleRequest は example のリクエスト
type ExampleRequest struct {
	Input *int64 `json:"input" binding:"required"`
}

// ExampleReply は example のレスポンス
type ExampleReply struct {
	Output int64 `json:"output"`
}

// PutReply は put のレスポンス
type PutReply struct {
	Status string `json:"status"`
}

// ErrorResponse はエラー時の共通レスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   *string   `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
