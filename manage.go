package journalDB

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/paranoidxc/JournalDB/face"
	"github.com/paranoidxc/JournalDB/lib/utils"
)

func filesInfo[T fmt.Stringer](files map[uint32]T) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, n := range slices.Sorted(maps.Keys(files)) {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d=%s", n, files[n])
	}
	sb.WriteString("}")
	return sb.String()
}

func (db *DB) DataFilesInfo() string {
	db.lifeMu.RLock()
	defer db.lifeMu.RUnlock()
	return filesInfo(db.dataFiles)
}

func (db *DB) LogFilesInfo() string {
	db.lifeMu.RLock()
	defer db.lifeMu.RUnlock()
	return filesInfo(db.logFiles)
}

// DataFileInfo 当前段的数据文件
func (db *DB) DataFileInfo() string {
	db.lifeMu.RLock()
	defer db.lifeMu.RUnlock()
	if db.activeData == nil {
		return ""
	}
	return db.activeData.String()
}

// LogFileInfo 当前段的日志文件
func (db *DB) LogFileInfo() string {
	db.lifeMu.RLock()
	defer db.lifeMu.RUnlock()
	if db.activeLog == nil {
		return ""
	}
	return db.activeLog.String()
}

// Number 最近一次分配的段编号
func (db *DB) Number() uint32 {
	return db.number.Load()
}

func (db *DB) Path() string {
	return db.options.PersistentDir
}

func (db *DB) Name() string {
	return db.options.Name
}

// ViewIndexMap 输出内存索引 key=段编号:偏移:长度
func (db *DB) ViewIndexMap() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for k, pos := range db.index.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s=%d:%d:%d", k, pos.Fid, pos.Offset, pos.Size)
	}
	sb.WriteString("}")
	return sb.String()
}

// Stat 返回存储的统计信息
func (db *DB) Stat() (*face.Stat, error) {
	if db.closed.Load() {
		return nil, ErrDBClosed
	}

	db.lifeMu.RLock()
	segmentNum := len(db.dataFiles)
	db.lifeMu.RUnlock()

	dirSize, err := utils.DirSize(db.options.PersistentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get dir size : %v", err)
	}
	available, err := utils.AvailableDiskSizeOf(db.options.PersistentDir)
	if err != nil && !errors.Is(err, utils.ErrUnsupportedPlatform) {
		return nil, fmt.Errorf("failed to get available disk size : %v", err)
	}

	return &face.Stat{
		KeyNum:          db.index.Size(),
		SegmentNum:      segmentNum,
		CurrentSegment:  db.number.Load(),
		DiskSize:        dirSize,
		AvailableOnDisk: available,
	}, nil
}
