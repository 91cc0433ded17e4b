package journalDB

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/paranoidxc/JournalDB/data"
	"github.com/paranoidxc/JournalDB/face"
	"github.com/paranoidxc/JournalDB/impl/store"
	"github.com/paranoidxc/JournalDB/lib/logger"
	"github.com/paranoidxc/JournalDB/wal"
)

// loadFiles 按段编号从小到大回放日志文件，重建内存索引和引用计数。调用方持有 mu
func (db *DB) loadFiles() error {
	numbers, err := db.segmentNumbers()
	if err != nil {
		return err
	}

	ioType := store.StandardFIO
	if db.options.MMapAtStartup {
		ioType = store.MemoryMap
	}

	logger.Info("start recovering", "dir", db.options.PersistentDir, "name", db.options.Name, "segments", len(numbers))
	for _, n := range numbers {
		// 编号只增不减，已经删除的段编号也不再使用
		if n > db.number.Load() {
			db.number.Store(n)
		}
		if err := db.loadSegment(n, ioType); err != nil {
			return err
		}
	}
	return db.checkSegments()
}

// segmentNumbers 扫描目录下的数据文件，返回按数值排序的段编号
func (db *DB) segmentNumbers() ([]uint32, error) {
	entries, err := os.ReadDir(db.options.PersistentDir)
	if err != nil {
		return nil, err
	}

	prefix := db.options.Name + "."
	var numbers []uint32
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		if !strings.HasPrefix(fileName, prefix) || strings.HasSuffix(fileName, wal.LogFileNameSuffix) {
			continue
		}
		n, err := strconv.ParseUint(fileName[len(prefix):], 10, 32)
		if err != nil || n == 0 {
			logger.Warn("skip file with unparsable segment number", "file", fileName, "err", err)
			continue
		}
		numbers = append(numbers, uint32(n))
	}
	// 按数值排序，name.2 在 name.10 之前
	slices.Sort(numbers)
	return numbers, nil
}

// loadSegment 回放一个段的日志文件到临时索引，段已满且没有引用时直接删除，否则合并到全局索引
func (db *DB) loadSegment(n uint32, ioType store.FileIOType) error {
	dir, name, syncWrites := db.options.PersistentDir, db.options.Name, db.options.SyncWrites

	df, err := data.OpenDataFile(dir, name, n, syncWrites, store.StandardFIO)
	if err != nil {
		return err
	}
	lf, err := wal.OpenLogFile(dir, name, n, syncWrites, ioType)
	if err != nil {
		_ = df.Close()
		return err
	}

	segIndex := make(map[face.Key]*face.Location)
	err = db.replay(df, lf, segIndex)
	if err == nil && ioType != store.StandardFIO {
		// 回放结束，切回标准 IO 以便继续追加
		err = lf.SetIOManager(store.StandardFIO)
	}
	if err != nil {
		_ = df.Close()
		_ = lf.Close()
		return err
	}

	size, err := df.Size()
	if err != nil {
		_ = df.Close()
		_ = lf.Close()
		return err
	}
	if size >= db.options.SegmentSizeThreshold && df.IsUnused() {
		logger.Warn("segment is full and unused, delete", "segment", df.String())
		return errors.Join(df.Delete(), lf.Delete())
	}

	db.lifeMu.Lock()
	db.dataFiles[n] = df
	db.logFiles[n] = lf
	db.lifeMu.Unlock()

	for k, pos := range segIndex {
		db.index.Set(k, pos)
	}
	logger.Info("segment recovered", "segment", df.String(), "keys", len(segIndex))
	return nil
}

func (db *DB) replay(df *data.DataFile, lf *wal.LogFile, segIndex map[face.Key]*face.Location) error {
	count, err := lf.Count()
	if err != nil {
		return err
	}

	for i := int64(0); i < count; i++ {
		op, err := lf.ReadOpItem(i)
		if err != nil {
			return err
		}

		switch op.Op {
		case wal.OpAdd:
			// 之前的段中已经存在，说明跨段更新时旧段的删除日志没有写入，补写删除日志
			if old := db.index.Get(op.Key); old != nil {
				logger.Warn("repair stale add", "key", op.Key, "segment", old.Fid, "by", df.FileId)
				if err := db.writeDelete(op.Key, old); err != nil {
					return err
				}
				db.index.Delete(op.Key)
				if err := db.tryReclaim(old.Fid); err != nil {
					return err
				}
			}
			// 同一个段中添加后又更新，不增加引用计数
			if _, ok := segIndex[op.Key]; !ok {
				df.Increment()
			}
			pos := op.Location()
			pos.Fid = df.FileId
			segIndex[op.Key] = pos
		case wal.OpDel:
			delete(segIndex, op.Key)
			df.Decrement()
		default:
			logger.Warn("skip unknown op", "file", lf.Path(), "index", i, "op", op.Op)
		}
	}
	return nil
}

// checkSegments 除当前段外，保留下来的段必须已满且仍有引用
func (db *DB) checkSegments() error {
	numbers := slices.Sorted(maps.Keys(db.dataFiles))
	if len(numbers) == 0 {
		return db.newDataFile()
	}

	for _, n := range numbers[:len(numbers)-1] {
		df := db.dataFiles[n]
		size, err := df.Size()
		if err != nil {
			return err
		}
		if size < db.options.SegmentSizeThreshold || df.IsUnused() {
			return fmt.Errorf("%w: %s", ErrRecoveryInvariant, df.String())
		}
	}

	last := numbers[len(numbers)-1]
	db.lifeMu.Lock()
	db.activeData = db.dataFiles[last]
	db.activeLog = db.logFiles[last]
	db.lifeMu.Unlock()

	logger.Info("recovered", "keys", db.index.Size(), "segments", len(numbers), "current", last)
	return nil
}
