package store

import (
	"errors"

	"github.com/paranoidxc/JournalDB/interface/storeer"
)

const DataFilePerm = 0644

type FileIOType = byte

const (
	// StandardFIO 标准文件 IO
	StandardFIO FileIOType = iota

	// MemoryMap 内存文件映射，只读
	MemoryMap
)

var ErrReadOnly = errors.New("MMAP IO MANAGER IS READ ONLY")

// NewIOManager 按类型初始化 IOMgr
func NewIOManager(fileName string, ioType FileIOType) (storeer.IOMgr, error) {
	switch ioType {
	case StandardFIO:
		fio, err := NewFileIOMgr(fileName)
		if err != nil {
			return nil, err
		}
		return fio, nil
	case MemoryMap:
		mmap, err := NewMMapIOMgr(fileName)
		if err != nil {
			return nil, err
		}
		return mmap, nil
	default:
		panic("unsupported io type")
	}
}
