package kvserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"hakobune/internal/kvstore"

	"github.com/gin-gonic/gin"
)

// KVHandler は KV サービスの各エンドポイントを実装する
type KVHandler struct {
	store *kvstore.Store
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *KVHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    Healthy,
		Keys:      h.store.Len(),
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// Echo は受け取ったメッセージをそのまま返す
func (h *KVHandler) Echo(c *gin.Context) {
	log.Println("echo リクエストを受信しました")

	var req EchoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, EchoReply{Message: *req.Message})
}

// Example は入力に1を足して返す
func (h *KVHandler) Example(c *gin.Context) {
	log.Println("example リクエストを受信しました")

	var req ExampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, ExampleReply{Output: *req.Input + 1})
}

// Put はリクエストボディをそのまま key の値として保存する
func (h *KVHandler) Put(c *gin.Context) {
	log.Println("put リクエストを受信しました")

	value, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	h.store.Put(c.Param("key"), value)

	c.JSON(http.StatusOK, PutReply{Status: "ok"})
}

// Get は key の値を返す
func (h *KVHandler) Get(c *gin.Context) {
	log.Println("get リクエストを受信しました")

	value, err := h.store.Get(c.Param("key"))
	if errors.Is(err, kvstore.ErrNotFound) {
		errorResponse := ErrorResponse{
			Error:     "key_not_found",
			Message:   "Key does not exist.",
			Timestamp: time.Now(),
		}
		c.JSON(http.StatusNotFound, errorResponse)
		return
	}
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", value)
}

// ヘルパー関数

// badRequest は不正なリクエストへのレスポンスを返す
func badRequest(c *gin.Context, err error) {
	errorResponse := ErrorResponse{
		Error:     "invalid_request",
		Message:   "リクエストの形式が不正です",
		Details:   stringPtr(err.Error()),
		Timestamp: time.Now(),
	}
	c.JSON(http.StatusBadRequest, errorResponse)
}

// stringPtr は文字列のポインタを返すヘルパー関数
func stringPtr(s string) *string {
	return &s
}
