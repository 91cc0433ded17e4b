package journalDB

import (
	"errors"
	"iter"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/paranoidxc/JournalDB/data"
	"github.com/paranoidxc/JournalDB/face"
	"github.com/paranoidxc/JournalDB/impl/index"
	"github.com/paranoidxc/JournalDB/impl/store"
	"github.com/paranoidxc/JournalDB/inter/watch"
	"github.com/paranoidxc/JournalDB/lib/logger"
	"github.com/paranoidxc/JournalDB/lib/utils"
	"github.com/paranoidxc/JournalDB/wal"
)

const fileLockName = "flock"

// DB 通过操作日志实现的 key/value 存储
//
//  1. 数据文件和日志文件成对出现 name.1 name.1.log，不单独记录索引文件
//  2. 数据文件顺序存放 value，使用引用计数记录其中仍然有效的 value 个数
//  3. 日志文件记录 操作 + key + 段编号 + 偏移量 + 长度
//  4. 添加时先写数据文件拿到 offset，再写日志，增加引用计数，最后更新内存索引
//  5. 删除时写日志，减少引用计数，删除内存索引；数据文件写满且没有引用时删除这一对文件
//  6. 启动时按段编号依次回放日志文件，恢复内存索引
type DB struct {
	options    Options
	closed     atomic.Bool
	mu         *sync.Mutex   // 串行化所有写操作以及段的生成和删除
	lifeMu     *sync.RWMutex // 保护 dataFiles/logFiles/activeData/activeLog，读路径只持读锁
	index      face.Indexer
	number     atomic.Uint32
	dataFiles  map[uint32]*data.DataFile
	logFiles   map[uint32]*wal.LogFile
	activeData *data.DataFile
	activeLog  *wal.LogFile
	fileLock   *flock.Flock
	watcher    chan watch.WatcherEvent
}

var _ face.Management = (*DB)(nil)

// Open 打开存储，回放所有日志文件恢复内存索引后才返回
func Open(options Options) (*DB, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(options.PersistentDir, os.ModePerm); err != nil {
		return nil, err
	}

	fileLock := flock.New(filepath.Join(options.PersistentDir, lockFileName(options.Name)))
	hold, err := fileLock.TryLock()
	if err != nil {
		return nil, err
	}
	if !hold {
		return nil, ErrDatabaseIsUsing
	}

	db := &DB{
		options:   options,
		mu:        new(sync.Mutex),
		lifeMu:    new(sync.RWMutex),
		index:     index.MakeSyncDict(),
		dataFiles: make(map[uint32]*data.DataFile),
		logFiles:  make(map[uint32]*wal.LogFile),
		fileLock:  fileLock,
	}

	db.mu.Lock()
	err = db.loadFiles()
	db.mu.Unlock()
	if err != nil {
		if cerr := db.closeFiles(); cerr != nil {
			logger.Error("close files after failed recovery", "err", cerr)
		}
		if uerr := fileLock.Unlock(); uerr != nil {
			logger.Error("FAILED TO UNLOCK THE DIRECTORY", "err", uerr)
		}
		return nil, err
	}

	if options.Registrar != nil {
		if err := options.Registrar.Register(options.Name, db); err != nil {
			logger.Warn("register management handle failed", "name", options.Name, "err", err)
		}
	}
	return db, nil
}

func lockFileName(name string) string {
	return fileLockName + "." + name
}

// Close 关闭所有文件。单个文件关闭失败只记录日志，继续关闭其余文件。
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return ErrDBClosed
	}
	db.closed.Store(true)

	if db.options.Registrar != nil {
		db.options.Registrar.Unregister(db.options.Name)
	}

	err := db.closeFiles()

	// 关闭内存索引
	if ierr := db.index.Close(); ierr != nil {
		err = errors.Join(err, ierr)
	}

	if db.watcher != nil {
		close(db.watcher)
		db.watcher = nil
	}

	if uerr := db.fileLock.Unlock(); uerr != nil {
		logger.Error("FAILED TO UNLOCK THE DIRECTORY", "err", uerr)
		err = errors.Join(err, uerr)
	}
	return err
}

func (db *DB) closeFiles() error {
	db.lifeMu.Lock()
	defer db.lifeMu.Unlock()

	var errs []error
	for _, df := range db.dataFiles {
		if err := df.Close(); err != nil {
			logger.Warn("close error", "file", df.Path(), "err", err)
			errs = append(errs, err)
		}
	}
	clear(db.dataFiles)
	for _, lf := range db.logFiles {
		if err := lf.Close(); err != nil {
			logger.Warn("close error", "file", lf.Path(), "err", err)
			errs = append(errs, err)
		}
	}
	clear(db.logFiles)
	db.activeData = nil
	db.activeLog = nil
	return errors.Join(errs...)
}

// Add 添加数据，key 已经存在时返回 ErrDuplicateKey
func (db *DB) Add(key []byte, value []byte) error {
	k, err := checkParam(key, value)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return ErrDBClosed
	}
	if db.index.Get(k) != nil {
		return ErrDuplicateKey
	}

	pos, err := db.appendValue(k, value)
	if err != nil {
		return err
	}
	db.index.Set(k, pos)

	db.sendWatcherEvent(watch.NewCreateWatcherEvent(k, pos))
	return nil
}

// Get 读取数据，不持有写锁。key 不存在时返回 ErrKeyNotFound
func (db *DB) Get(key []byte) ([]byte, error) {
	k, err := checkKey(key)
	if err != nil {
		return nil, err
	}
	if db.closed.Load() {
		return nil, ErrDBClosed
	}

	// 先持有读锁再查索引：段的回收总是在索引切换之后持写锁进行，
	// 读到旧位置时旧段一定还没有被删除
	db.lifeMu.RLock()
	defer db.lifeMu.RUnlock()

	pos := db.index.Get(k)
	if pos == nil {
		return nil, ErrKeyNotFound
	}

	// 从数据文件中获取value
	return db.getValueByPosition(pos)
}

// getValueByPosition 调用方持有 lifeMu 读锁
func (db *DB) getValueByPosition(pos *face.Location) ([]byte, error) {
	df := db.dataFiles[pos.Fid]
	if df == nil {
		logger.Warn("data file lost", "segment", pos.Fid, "offset", pos.Offset, "length", pos.Size)
		return nil, ErrKeyNotFound
	}

	value, err := df.Read(pos.Size, pos.Offset)
	if err != nil {
		return nil, err
	}
	if len(value) < int(pos.Size) {
		return nil, ErrValueCorrupted
	}
	return value, nil
}

// Remove 删除数据，key 不存在时返回 false
func (db *DB) Remove(key []byte) (bool, error) {
	k, err := checkKey(key)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return false, ErrDBClosed
	}

	pos := db.index.Get(k)
	if pos == nil {
		return false, nil
	}

	if err := db.writeDelete(k, pos); err != nil {
		return false, err
	}
	db.index.Delete(k)
	db.sendWatcherEvent(watch.NewDeleteWatcherEvent(k, pos))

	return true, db.tryReclaim(pos.Fid)
}

// Update 更新数据，key 不存在时返回 false。
// 新旧数据在同一个段中时不写删除日志，直接减少旧段的引用计数。
func (db *DB) Update(key []byte, value []byte) (bool, error) {
	k, err := checkParam(key, value)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return false, ErrDBClosed
	}

	old := db.index.Get(k)
	if old == nil {
		return false, nil
	}

	pos, err := db.appendValue(k, value)
	if err != nil {
		return false, err
	}
	db.index.Set(k, pos)
	db.sendWatcherEvent(watch.NewUpdateWatcherEvent(k, old, pos))

	if pos.Fid != old.Fid {
		if err := db.writeDelete(k, old); err != nil {
			return true, err
		}
		return true, db.tryReclaim(old.Fid)
	}
	db.dataFiles[old.Fid].Decrement()
	return true, nil
}

// Size 当前存储的 key 数量
func (db *DB) Size() int {
	return db.index.Size()
}

// Iterator 惰性遍历所有 key，遍历过程中的并发修改可能可见也可能不可见
func (db *DB) Iterator() iter.Seq[face.Key] {
	return func(yield func(face.Key) bool) {
		for k := range db.index.All() {
			if !yield(k) {
				return
			}
		}
	}
}

func (db *DB) Keys() []face.Key {
	return db.index.Keys()
}

// Sync 将当前段的数据文件和日志文件刷盘
func (db *DB) Sync() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return ErrDBClosed
	}
	return db.syncActive()
}

func (db *DB) syncActive() error {
	if err := db.activeData.Sync(); err != nil {
		return err
	}
	return db.activeLog.Sync()
}

// Backup 持有写锁，将数据目录拷贝到 dir
func (db *DB) Backup(dir string) error {
	if len(dir) == 0 {
		return ErrBackupDirIsEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return ErrDBClosed
	}
	if err := db.syncActive(); err != nil {
		return err
	}

	return utils.CopyDir(db.options.PersistentDir, dir, []string{lockFileName(db.options.Name)})
}

// NewWatch 返回订阅通道。通道满时事件被丢弃，不会阻塞写操作
func (db *DB) NewWatch() (<-chan watch.WatcherEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return nil, ErrDBClosed
	}
	if db.watcher == nil {
		size := db.options.WatchBufferSize
		if size == 0 {
			size = DefaultOptions.WatchBufferSize
		}
		db.watcher = make(chan watch.WatcherEvent, size)
	}
	return db.watcher, nil
}

func (db *DB) sendWatcherEvent(event watch.WatcherEvent) {
	if db.watcher == nil {
		return
	}
	select {
	case db.watcher <- event:
	default:
		logger.Debug("watcher is full, drop event", "type", event.EventType, "key", event.Key)
	}
}

// appendValue 写入数据文件和 ADD 日志，增加引用计数。调用方持有 mu
func (db *DB) appendValue(k face.Key, value []byte) (*face.Location, error) {
	size, err := db.activeData.Size()
	if err != nil {
		return nil, err
	}
	// 满了
	if size >= db.options.SegmentSizeThreshold {
		if err := db.rotate(); err != nil {
			return nil, err
		}
	}

	df, lf := db.activeData, db.activeLog
	offset, err := df.Write(value)
	if err != nil {
		return nil, err
	}
	op := &wal.OpItem{
		Key:    k,
		Op:     wal.OpAdd,
		Number: df.FileId,
		Offset: offset,
		Length: uint32(len(value)),
	}
	if err := lf.WriteOpItem(op); err != nil {
		return nil, err
	}
	df.Increment()
	return op.Location(), nil
}

// writeDelete 在 pos 所在段的日志文件中记录删除，并减少该段的引用计数
func (db *DB) writeDelete(k face.Key, pos *face.Location) error {
	df, lf := db.dataFiles[pos.Fid], db.logFiles[pos.Fid]
	if df == nil || lf == nil {
		logger.Warn("data file lost, skip delete op", "segment", pos.Fid, "key", k)
		return nil
	}
	op := &wal.OpItem{
		Key:    k,
		Op:     wal.OpDel,
		Number: pos.Fid,
		Offset: pos.Offset,
		Length: pos.Size,
	}
	if err := lf.WriteOpItem(op); err != nil {
		return err
	}
	df.Decrement()
	return nil
}

// tryReclaim 段已经写满且没有引用时，立即删除它的数据文件和日志文件。
// 如果是当前段，先生成新的段。
func (db *DB) tryReclaim(fid uint32) error {
	df := db.dataFiles[fid]
	if df == nil {
		return nil
	}
	size, err := df.Size()
	if err != nil {
		return err
	}
	if size < db.options.SegmentSizeThreshold || !df.IsUnused() {
		return nil
	}
	if df == db.activeData {
		if err := db.rotate(); err != nil {
			return err
		}
	}
	return db.deleteSegment(fid)
}

func (db *DB) deleteSegment(fid uint32) error {
	db.lifeMu.Lock()
	defer db.lifeMu.Unlock()

	df, lf := db.dataFiles[fid], db.logFiles[fid]
	delete(db.dataFiles, fid)
	delete(db.logFiles, fid)

	logger.Info("delete segment", "segment", df.String())
	var errs []error
	if err := df.Delete(); err != nil {
		errs = append(errs, err)
	}
	if lf != nil {
		if err := lf.Delete(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// rotate 将当前段刷盘后封存，生成新的当前段
func (db *DB) rotate() error {
	if db.activeData != nil && !db.options.SyncWrites {
		if err := db.syncActive(); err != nil {
			return err
		}
	}
	return db.newDataFile()
}

// newDataFile 生成编号加一的新段并设为当前段
func (db *DB) newDataFile() error {
	n := db.number.Load() + 1
	df, err := data.OpenDataFile(db.options.PersistentDir, db.options.Name, n, db.options.SyncWrites, store.StandardFIO)
	if err != nil {
		return err
	}
	lf, err := wal.OpenLogFile(db.options.PersistentDir, db.options.Name, n, db.options.SyncWrites, store.StandardFIO)
	if err != nil {
		_ = df.Close()
		return err
	}

	db.lifeMu.Lock()
	db.dataFiles[n] = df
	db.logFiles[n] = lf
	db.activeData = df
	db.activeLog = lf
	db.lifeMu.Unlock()
	db.number.Store(n)

	logger.Info("create new segment", "segment", df.String())
	return nil
}

func checkKey(key []byte) (face.Key, error) {
	if key == nil {
		return face.Key{}, ErrKeyIsNil
	}
	k, err := face.KeyFromBytes(key)
	if err != nil {
		return k, ErrInvalidKeyLength
	}
	return k, nil
}

func checkParam(key []byte, value []byte) (face.Key, error) {
	if key == nil {
		return face.Key{}, ErrKeyIsNil
	}
	if value == nil {
		return face.Key{}, ErrValueIsNil
	}
	if uint64(len(value)) > math.MaxUint32 {
		return face.Key{}, ErrValueTooLarge
	}
	return checkKey(key)
}
