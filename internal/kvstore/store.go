// Package kvstore はプロセス内で共有するキーバリューストア。
//
// 読み取りは並行に進み、書き込みは他のすべてを排他する。
// ロックはこのパッケージの外へ漏らさない。
package kvstore

import (
	"errors"
	"sync"
)

// ErrNotFound はキーが存在しないことを示す
var ErrNotFound = errors.New("kvstore: キーが存在しません")

// Store は RWMutex で保護されたマップ
type Store struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// New は空の Store を作成する
func New() *Store {
	return &Store{m: make(map[string][]byte)}
}

// Get は key の値のコピーを返す。存在しなければ ErrNotFound。
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	// コピーを返す
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Put は key に value を保存する。既存の値は上書きする。
func (s *Store) Put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = stored
}

// Len は保存されているキーの数を返す
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
