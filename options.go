package journalDB

import (
	"os"

	"github.com/paranoidxc/JournalDB/face"
)

type Options struct {
	// PersistentDir 数据文件和日志文件所在目录
	PersistentDir string

	// Name 存储名，文件命名为 {Name}.{n} 与 {Name}.{n}.log
	Name string

	// SyncWrites 每次写入后是否强制刷盘
	SyncWrites bool

	// SegmentSizeThreshold 数据文件达到该大小后不再写入，生成新的段
	SegmentSizeThreshold int64

	// MMapAtStartup 启动时是否使用内存映射回放日志文件
	MMapAtStartup bool

	// WatchBufferSize 订阅通道的缓冲大小
	WatchBufferSize int

	// Registrar 可选的管理句柄注册表
	Registrar face.Registrar
}

const DefaultSegmentSizeThreshold = 50 * 1024 * 1024 // 50MB

var DefaultOptions = Options{
	PersistentDir:        os.TempDir(),
	Name:                 "journal",
	SyncWrites:           false,
	SegmentSizeThreshold: DefaultSegmentSizeThreshold,
	MMapAtStartup:        true,
	WatchBufferSize:      1024,
}

func checkOptions(options Options) error {
	if options.PersistentDir == "" {
		return ErrInvalidOptions
	}
	if options.Name == "" {
		return ErrInvalidOptions
	}
	if options.SegmentSizeThreshold <= 0 {
		return ErrInvalidOptions
	}
	if options.WatchBufferSize < 0 {
		return ErrInvalidOptions
	}
	return nil
}
