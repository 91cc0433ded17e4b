package face

import (
	"encoding/hex"
	"errors"
	"iter"
)

// KeyLength key 固定 16 字节
const KeyLength = 16

var ErrInvalidKeyLength = errors.New("KEY LENGTH MUST BE 16")

// Key 固定长度的数据 key，按字节内容比较
type Key [KeyLength]byte

// KeyFromBytes 拷贝 b 构造 Key，长度不是 16 字节时返回错误
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeyLength {
		return k, ErrInvalidKeyLength
	}
	copy(k[:], b)
	return k, nil
}

func (k Key) Bytes() []byte {
	b := make([]byte, KeyLength)
	copy(b, k[:])
	return b
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Location 数据在段文件中的位置
type Location struct {
	Fid    uint32 // 段编号 表示将数据存储到哪个段的数据文件当中
	Offset int64  // 数据在数据文件中的偏移
	Size   uint32 // 数据长度
}

type Indexer interface {
	// Set 向索引中存储 key 对应的位置信息，返回旧的位置
	Set(key Key, pos *Location) *Location

	// Get 根据 key 取出对应的索引位置信息
	Get(key Key) *Location

	// Delete 根据 key 删除对应的索引位置信息
	Delete(key Key) (*Location, bool)

	// Size 返回索引中存在了多少条数据
	Size() int

	// All 惰性遍历索引，不保证快照一致性
	All() iter.Seq2[Key, *Location]

	Keys() []Key

	Close() error
}
