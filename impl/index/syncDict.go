package index

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/paranoidxc/JournalDB/face"
)

// SyncDict 基于 sync.Map 的索引，读操作无锁。
// 写操作由调用方串行化，size 与 map 在同一把写锁下保持一致。
type SyncDict struct {
	m    sync.Map
	size atomic.Int64
}

func MakeSyncDict() *SyncDict {
	return &SyncDict{}
}

func (dict *SyncDict) Set(key face.Key, pos *face.Location) *face.Location {
	old, existed := dict.m.Swap(key, pos)
	if existed {
		return old.(*face.Location)
	}
	dict.size.Add(1)
	return nil
}

func (dict *SyncDict) Get(key face.Key) *face.Location {
	val, ok := dict.m.Load(key)
	if ok {
		return val.(*face.Location)
	}
	return nil
}

func (dict *SyncDict) Delete(key face.Key) (*face.Location, bool) {
	old, existed := dict.m.LoadAndDelete(key)
	if existed {
		dict.size.Add(-1)
		return old.(*face.Location), true
	}
	return nil, false
}

func (dict *SyncDict) Size() int {
	return int(dict.size.Load())
}

func (dict *SyncDict) All() iter.Seq2[face.Key, *face.Location] {
	return func(yield func(face.Key, *face.Location) bool) {
		dict.m.Range(func(key, value any) bool {
			return yield(key.(face.Key), value.(*face.Location))
		})
	}
}

func (dict *SyncDict) Keys() []face.Key {
	keys := make([]face.Key, 0, dict.Size())
	for key := range dict.All() {
		keys = append(keys, key)
	}
	return keys
}

func (dict *SyncDict) Close() error {
	dict.m.Clear()
	dict.size.Store(0)
	return nil
}
