package wal

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/paranoidxc/JournalDB/data"
	"github.com/paranoidxc/JournalDB/impl/store"
	"github.com/paranoidxc/JournalDB/lib/logger"
)

const LogFileNameSuffix = ".log"

// LogFile 段的操作日志文件，只写入整条 OpItem
type LogFile struct {
	*data.DataFile
}

func GetLogFileName(dirPath, name string, fileId uint32) string {
	return filepath.Join(dirPath, fmt.Sprintf("%s.%d%s", name, fileId, LogFileNameSuffix))
}

// OpenLogFile 打开日志文件。文件末尾不完整的记录会被截掉，追加位置指向最后一条完整记录之后。
// ioType 为 MemoryMap 时，截断完成后再切换为只读映射，回放结束后需要切回标准 IO。
func OpenLogFile(dirPath, name string, fileId uint32, syncWrites bool, ioType store.FileIOType) (*LogFile, error) {
	df, err := data.OpenFile(GetLogFileName(dirPath, name, fileId), fileId, syncWrites, store.StandardFIO)
	if err != nil {
		return nil, err
	}
	lf := &LogFile{DataFile: df}
	if err := lf.truncateTail(); err != nil {
		_ = df.Close()
		return nil, err
	}
	if ioType != store.StandardFIO {
		if err := df.SetIOManager(ioType); err != nil {
			_ = df.Close()
			return nil, err
		}
	}
	return lf, nil
}

// 防止日志文件不完整，丢弃最后不完整的数据
func (lf *LogFile) truncateTail() error {
	size, err := lf.Size()
	if err != nil {
		return err
	}
	whole := size / OpItemSize * OpItemSize
	if whole == size {
		return nil
	}
	logger.Warn("truncate incomplete op item", "file", lf.Path(), "size", size, "truncated", whole)
	if err := lf.IoManager.Truncate(whole); err != nil {
		return err
	}
	lf.Offset = whole
	return nil
}

// WriteOpItem 追加一条操作日志
func (lf *LogFile) WriteOpItem(op *OpItem) error {
	_, err := lf.Write(EncodeOpItem(op))
	return err
}

// ReadOpItem 读取第 i 条操作日志
func (lf *LogFile) ReadOpItem(i int64) (*OpItem, error) {
	buf, err := lf.Read(OpItemSize, i*OpItemSize)
	if err != nil {
		return nil, err
	}
	if len(buf) < OpItemSize {
		return nil, io.ErrUnexpectedEOF
	}
	return DecodeOpItem(buf)
}

// Count 日志文件中完整记录的条数
func (lf *LogFile) Count() (int64, error) {
	size, err := lf.Size()
	if err != nil {
		return 0, err
	}
	return size / OpItemSize, nil
}
