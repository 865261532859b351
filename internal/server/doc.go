// Package server は、TCP接続を受け付けてファイルを配信するHTTPサーバーです。
//
// このパッケージは、リスナーの管理、接続ごとのハンドラの起動、
// リクエストの解析から応答の送信までの状態遷移を担当します。
//
// 責務:
//   - リスナーの管理と接続の受け付け
//   - 接続ごとに独立した goroutine での処理
//   - ファイル、インデックス、ディレクトリ一覧、エラーの応答
//   - どの経路でも接続を1回だけ閉じること
//
// 仕様:
//   - net/http は使わず、リクエストヘッドを自前で解析する
//   - 1接続1リクエスト。応答後に接続を閉じる
//   - 接続間で共有する可変状態はない
//   - context のキャンセルでリスナーを閉じ、処理中の接続を待つ
//
// 状態遷移:
//
//	awaitRequest -> route -> respondError | respondFile | respondListing -> closeConn
package server
