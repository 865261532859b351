// Package request は接続から HTTP リクエストヘッドを読み取り、構造化する。
//
// # 責務
// - 1024 バイト単位での受信と蓄積
// - リクエスト行（METHOD SP TARGET SP VERSION）の解析
// - ヘッダー行の解析（到着順を保持、名前は大文字小文字を区別しない）
//
// # 仕様
//   - 空行でヘッドが終わるまで Request は生成されない
//   - ヘッド完成前の EOF は ErrConnectionClosed（不正リクエストではない）
//   - リクエストボディは読まない
package request
