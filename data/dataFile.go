package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/paranoidxc/JournalDB/impl/store"
	"github.com/paranoidxc/JournalDB/interface/storeer"
)

// DataFile 一个段的数据文件：顺序追加、随机读取，带引用计数
type DataFile struct {
	FileId    uint32
	Offset    int64 // 追加写的位置，打开时指向文件结尾
	IoManager storeer.IOMgr

	path       string
	syncWrites bool
	closed     bool
	refCount   atomic.Int32
}

// OpenDataFile 打开 {dir}/{name}.{fileId}，不存在则创建
func OpenDataFile(dirPath, name string, fileId uint32, syncWrites bool, ioType store.FileIOType) (*DataFile, error) {
	return OpenFile(GetDataFileName(dirPath, name, fileId), fileId, syncWrites, ioType)
}

func GetDataFileName(dirPath, name string, fileId uint32) string {
	return filepath.Join(dirPath, fmt.Sprintf("%s.%d", name, fileId))
}

// OpenFile 打开任意路径的段文件，日志文件复用该实现
func OpenFile(fileName string, fileId uint32, syncWrites bool, ioType store.FileIOType) (*DataFile, error) {
	ioManager, err := store.NewIOManager(fileName, ioType)
	if err != nil {
		return nil, err
	}
	size, err := ioManager.Size()
	if err != nil {
		_ = ioManager.Close()
		return nil, err
	}
	return &DataFile{
		FileId:     fileId,
		Offset:     size,
		IoManager:  ioManager,
		path:       fileName,
		syncWrites: syncWrites,
	}, nil
}

// Write 追加写入，返回数据在文件中的起始偏移
func (df *DataFile) Write(b []byte) (int64, error) {
	offset := df.Offset
	n, err := df.IoManager.Write(b)
	df.Offset += int64(n)
	if err != nil {
		return 0, err
	}
	if df.syncWrites {
		if err := df.IoManager.Sync(); err != nil {
			return 0, err
		}
	}
	return offset, nil
}

// Read 从 offset 读取 length 字节，不移动追加位置。
// 读到文件结尾时返回不足 length 的数据，由调用方判断数据是否损坏。
func (df *DataFile) Read(length uint32, offset int64) ([]byte, error) {
	b := make([]byte, length)
	n, err := df.IoManager.Read(b, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return b[:n], nil
}

func (df *DataFile) Size() (int64, error) {
	return df.IoManager.Size()
}

func (df *DataFile) Sync() error {
	return df.IoManager.Sync()
}

func (df *DataFile) Close() error {
	if df.closed {
		return nil
	}
	df.closed = true
	return df.IoManager.Close()
}

// Delete 关闭并删除文件
func (df *DataFile) Delete() error {
	if err := df.Close(); err != nil {
		return err
	}
	return os.Remove(df.path)
}

// SetIOManager 切换 IO 类型，追加位置保持不变
func (df *DataFile) SetIOManager(ioType store.FileIOType) error {
	ioManager, err := store.NewIOManager(df.path, ioType)
	if err != nil {
		return err
	}
	if err := df.IoManager.Close(); err != nil {
		_ = ioManager.Close()
		return err
	}
	df.IoManager = ioManager
	return nil
}

func (df *DataFile) Path() string {
	return df.path
}

// Increment 增加一个引用计数，返回增加后的值
func (df *DataFile) Increment() int32 {
	return df.refCount.Add(1)
}

// Decrement 减少一个引用计数，返回减少后的值
func (df *DataFile) Decrement() int32 {
	return df.refCount.Add(-1)
}

// IsUnused 引用计数是否已经归零
func (df *DataFile) IsUnused() bool {
	return df.refCount.Load() <= 0
}

func (df *DataFile) RefCount() int32 {
	return df.refCount.Load()
}

func (df *DataFile) String() string {
	size, err := df.Size()
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%s , length = %d refCount = %d position: %d",
		filepath.Base(df.path), size, df.RefCount(), df.Offset)
}
