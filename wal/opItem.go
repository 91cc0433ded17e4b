package wal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/paranoidxc/JournalDB/face"
)

type OpType = byte

const (
	OpAdd OpType = 1
	OpDel OpType = 2
)

// key + op + number + offset + length  16 + 1 + 4 + 8 + 4 = 33
const OpItemSize = face.KeyLength + 1 + 4 + 8 + 4

var ErrInvalidOpItemSize = errors.New("INVALID OP ITEM SIZE, MUST BE 33 BYTES")

// OpItem 一条操作日志 操作 + key + 段编号 + 偏移量 + 长度
type OpItem struct {
	Key    face.Key
	Op     OpType
	Number uint32
	Offset int64
	Length uint32
}

// EncodeOpItem 编码为定长字节数组，多字节字段使用大端序
func EncodeOpItem(op *OpItem) []byte {
	buf := make([]byte, OpItemSize)
	copy(buf[:face.KeyLength], op.Key[:])
	var index = face.KeyLength
	buf[index] = op.Op
	index += 1
	binary.BigEndian.PutUint32(buf[index:], op.Number)
	index += 4
	binary.BigEndian.PutUint64(buf[index:], uint64(op.Offset))
	index += 8
	binary.BigEndian.PutUint32(buf[index:], op.Length)
	return buf
}

// DecodeOpItem 解码一条操作日志
func DecodeOpItem(buf []byte) (*OpItem, error) {
	if len(buf) != OpItemSize {
		return nil, ErrInvalidOpItemSize
	}
	op := &OpItem{}
	copy(op.Key[:], buf[:face.KeyLength])
	var index = face.KeyLength
	op.Op = buf[index]
	index += 1
	op.Number = binary.BigEndian.Uint32(buf[index:])
	index += 4
	op.Offset = int64(binary.BigEndian.Uint64(buf[index:]))
	index += 8
	op.Length = binary.BigEndian.Uint32(buf[index:])
	return op, nil
}

func (op *OpItem) Location() *face.Location {
	return &face.Location{Fid: op.Number, Offset: op.Offset, Size: op.Length}
}

func (op *OpItem) String() string {
	return fmt.Sprintf("OpItem number:%d, op:%d, offset:%d, length:%d", op.Number, op.Op, op.Offset, op.Length)
}
