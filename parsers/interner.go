package parsers

import "sync"

// Interner は同じ内容の文字列 (都道府県名・市区町村名・カナなど) を
// 1つのインスタンスにまとめます。メモリ削減のためだけのもので、
// 呼び出し側は参照の同一性に依存してはいけません。
// 複数のリーダーで共有できます。
type Interner struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInterner は capacity を初期容量とする Interner を作成します。
func NewInterner(capacity int) *Interner {
	return &Interner{values: make(map[string]string, capacity)}
}

// Intern は s と同じ内容の登録済み文字列を返します。未登録なら s を登録します。
func (in *Interner) Intern(s string) string {
	if in == nil || s == "" {
		return s
	}

	in.mu.RLock()
	v, ok := in.values[s]
	in.mu.RUnlock()
	if ok {
		return v
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if v, ok := in.values[s]; ok {
		return v
	}
	in.values[s] = s
	return s
}

// Len は登録済みの文字列数を返します。
func (in *Interner) Len() int {
	if in == nil {
		return 0
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.values)
}
