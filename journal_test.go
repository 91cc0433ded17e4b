package journalDB

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/paranoidxc/JournalDB/face"
	"github.com/paranoidxc/JournalDB/impl/manage"
	"github.com/paranoidxc/JournalDB/inter/watch"
	"github.com/paranoidxc/JournalDB/wal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T, threshold int64) Options {
	opts := DefaultOptions
	opts.PersistentDir = t.TempDir()
	opts.SegmentSizeThreshold = threshold
	return opts
}

func openDB(t *testing.T, opts Options) *DB {
	db, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func testKey(i int) []byte {
	sum := md5.Sum([]byte(fmt.Sprintf("journal-key-%09d", i)))
	return sum[:]
}

func testValue(i int) []byte {
	return []byte(fmt.Sprintf("v%07d", i))
}

func segmentExists(opts Options, n uint32) bool {
	_, err := os.Stat(filepath.Join(opts.PersistentDir, fmt.Sprintf("%s.%d", opts.Name, n)))
	_, lerr := os.Stat(wal.GetLogFileName(opts.PersistentDir, opts.Name, n))
	return err == nil && lerr == nil
}

// checkSegments 每个段的引用计数等于索引中指向它的 key 数，非当前段都已写满且有引用
func checkSegments(t *testing.T, db *DB) {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()

	counts := make(map[uint32]int32)
	for _, pos := range db.index.All() {
		counts[pos.Fid]++
		_, ok := db.dataFiles[pos.Fid]
		assert.True(t, ok, "index points to missing segment %d", pos.Fid)
	}
	for n, df := range db.dataFiles {
		assert.Equal(t, counts[n], df.RefCount(), "segment %d", n)
		if df == db.activeData {
			continue
		}
		size, err := df.Size()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, size, db.options.SegmentSizeThreshold, "segment %d", n)
		assert.Greater(t, df.RefCount(), int32(0), "segment %d", n)
	}
	assert.LessOrEqual(t, db.activeData.FileId, db.number.Load())
}

func TestOpen_InvalidOptions(t *testing.T) {
	opts := testOptions(t, 50)
	opts.Name = ""
	_, err := Open(opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts = testOptions(t, 0)
	_, err = Open(opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts = testOptions(t, 50)
	opts.PersistentDir = ""
	_, err = Open(opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestOpen_Empty(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	assert.Equal(t, 0, db.Size())
	assert.Equal(t, uint32(1), db.Number())
	assert.True(t, segmentExists(opts, 1))
	checkSegments(t, db)
}

func TestDB_AddGet(t *testing.T) {
	db := openDB(t, testOptions(t, DefaultSegmentSizeThreshold))

	for i := 0; i < 100; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	assert.Equal(t, 100, db.Size())

	for i := 0; i < 100; i++ {
		val, err := db.Get(testKey(i))
		require.NoError(t, err)
		assert.Equal(t, testValue(i), val)
	}

	_, err := db.Get(testKey(100))
	assert.ErrorIs(t, err, ErrKeyNotFound)
	checkSegments(t, db)
}

func TestDB_AddDuplicate(t *testing.T) {
	db := openDB(t, testOptions(t, 50))

	require.NoError(t, db.Add(testKey(1), []byte("aaaaaaaa")))
	err := db.Add(testKey(1), []byte("bbbbbbbb"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	val, err := db.Get(testKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaaaaaa"), val)
	assert.Equal(t, 1, db.Size())
}

func TestDB_EmptyValue(t *testing.T) {
	db := openDB(t, testOptions(t, 50))

	require.NoError(t, db.Add(testKey(1), []byte{}))
	val, err := db.Get(testKey(1))
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestDB_InvalidArgument(t *testing.T) {
	db := openDB(t, testOptions(t, 50))

	err := db.Add(nil, []byte("x"))
	assert.ErrorIs(t, err, ErrKeyIsNil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = db.Add(testKey(1), nil)
	assert.ErrorIs(t, err, ErrValueIsNil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = db.Add([]byte("short"), []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, face.ErrInvalidKeyLength)

	_, err = db.Get(make([]byte, 17))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
	_, err = db.Get(nil)
	assert.ErrorIs(t, err, ErrKeyIsNil)

	_, err = db.Remove(nil)
	assert.ErrorIs(t, err, ErrKeyIsNil)

	_, err = db.Update(testKey(1), nil)
	assert.ErrorIs(t, err, ErrValueIsNil)
	_, err = db.Update(make([]byte, 15), []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	assert.Equal(t, 0, db.Size())
}

func TestDB_Remove(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	ok, err := db.Remove(testKey(1))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Add(testKey(1), testValue(1)))
	require.NoError(t, db.Add(testKey(2), testValue(2)))

	ok, err = db.Remove(testKey(1))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = db.Get(testKey(1))
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, 1, db.Size())

	ok, err = db.Remove(testKey(1))
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除后可以重新添加
	require.NoError(t, db.Add(testKey(1), testValue(11)))
	val, err := db.Get(testKey(1))
	require.NoError(t, err)
	assert.Equal(t, testValue(11), val)

	// 段未满，删除不会回收
	assert.True(t, segmentExists(opts, 1))
	checkSegments(t, db)
}

func TestDB_UpdateSameSegment(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	ok, err := db.Update(testKey(1), testValue(1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, db.Size())

	require.NoError(t, db.Add(testKey(1), testValue(1)))
	ok, err = db.Update(testKey(1), testValue(2))
	require.NoError(t, err)
	assert.True(t, ok)

	val, err := db.Get(testKey(1))
	require.NoError(t, err)
	assert.Equal(t, testValue(2), val)
	assert.Equal(t, 1, db.Size())
	assert.Equal(t, int32(1), db.activeData.RefCount())

	// 同一个段中更新不写删除日志
	b, err := os.ReadFile(wal.GetLogFileName(opts.PersistentDir, opts.Name, 1))
	require.NoError(t, err)
	require.Len(t, b, 2*wal.OpItemSize)
	assert.Equal(t, wal.OpAdd, b[16])
	assert.Equal(t, wal.OpAdd, b[wal.OpItemSize+16])
	checkSegments(t, db)
}

func TestDB_UpdateCrossSegment(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	// 第 1 个段写入 7 个 8 字节的值，达到 56 字节
	for i := 0; i < 7; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	assert.Equal(t, uint32(1), db.Number())

	ok, err := db.Update(testKey(0), testValue(100))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), db.Number())

	val, err := db.Get(testKey(0))
	require.NoError(t, err)
	assert.Equal(t, testValue(100), val)
	assert.Equal(t, uint32(2), db.index.Get(face.Key(testKey(0))).Fid)

	// 旧段的日志末尾是一条删除记录
	b, err := os.ReadFile(wal.GetLogFileName(opts.PersistentDir, opts.Name, 1))
	require.NoError(t, err)
	require.Len(t, b, 8*wal.OpItemSize)
	last := b[7*wal.OpItemSize:]
	assert.Equal(t, testKey(0), last[:16])
	assert.Equal(t, wal.OpDel, last[16])
	assert.Equal(t, []byte{0, 0, 0, 1}, last[17:21])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, last[21:29])
	assert.Equal(t, []byte{0, 0, 0, 8}, last[29:33])

	assert.Equal(t, int32(6), db.dataFiles[1].RefCount())
	assert.Equal(t, int32(1), db.dataFiles[2].RefCount())
	checkSegments(t, db)
}

func TestDB_Rotation(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	for i := 0; i < 7; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	size, err := db.activeData.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(56), size)
	assert.Equal(t, uint32(1), db.Number())

	// 当前段已满，下一次添加生成新段
	require.NoError(t, db.Add(testKey(7), testValue(7)))
	assert.Equal(t, uint32(2), db.Number())
	assert.Equal(t, uint32(2), db.index.Get(face.Key(testKey(7))).Fid)
	checkSegments(t, db)
}

func TestDB_ReclaimSealedSegment(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	for i := 0; i < 8; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	require.True(t, segmentExists(opts, 1))

	for i := 0; i < 6; i++ {
		ok, err := db.Remove(testKey(i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, segmentExists(opts, 1))
	}

	// 最后一个引用删除后立即回收
	ok, err := db.Remove(testKey(6))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, segmentExists(opts, 1))
	_, exists := db.dataFiles[1]
	assert.False(t, exists)

	val, err := db.Get(testKey(7))
	require.NoError(t, err)
	assert.Equal(t, testValue(7), val)
	checkSegments(t, db)
}

func TestDB_ReclaimByUpdate(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	for i := 0; i < 7; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	for i := 0; i < 7; i++ {
		ok, err := db.Update(testKey(i), testValue(i+100))
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.False(t, segmentExists(opts, 1))

	for i := 0; i < 7; i++ {
		val, err := db.Get(testKey(i))
		require.NoError(t, err)
		assert.Equal(t, testValue(i+100), val)
	}
	checkSegments(t, db)
}

// 同一个 key 反复添加删除：段在写满之前不回收，写满后最后一次删除触发滚动并回收
func TestDB_AddRemoveCycle(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)
	key := testKey(1)

	for i := 0; i < 6; i++ {
		require.NoError(t, db.Add(key, testValue(i)))
		ok, err := db.Remove(key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(1), db.Number())
		assert.True(t, segmentExists(opts, 1))
	}

	// 48 字节，未满，仍然写入第 1 个段
	require.NoError(t, db.Add(key, testValue(6)))
	pos := db.index.Get(face.Key(key))
	require.NotNil(t, pos)
	assert.Equal(t, uint32(1), pos.Fid)
	assert.Equal(t, int64(48), pos.Offset)

	// 56 字节且没有引用，当前段先滚动再删除
	ok, err := db.Remove(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, segmentExists(opts, 1))
	assert.True(t, segmentExists(opts, 2))
	assert.Equal(t, uint32(2), db.Number())

	require.NoError(t, db.Add(key, testValue(7)))
	pos = db.index.Get(face.Key(key))
	require.NotNil(t, pos)
	assert.Equal(t, uint32(2), pos.Fid)
	assert.Equal(t, int64(0), pos.Offset)
	checkSegments(t, db)
}

func TestDB_ValueCorrupted(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	require.NoError(t, db.Add(testKey(1), testValue(1)))
	require.NoError(t, os.Truncate(filepath.Join(opts.PersistentDir, opts.Name+".1"), 4))

	_, err := db.Get(testKey(1))
	assert.ErrorIs(t, err, ErrValueCorrupted)
}

func TestDB_GetLostSegment(t *testing.T) {
	db := openDB(t, testOptions(t, 50))

	k := face.Key(testKey(1))
	db.index.Set(k, &face.Location{Fid: 99, Offset: 0, Size: 8})
	_, err := db.Get(k[:])
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDB_Iterator(t *testing.T) {
	db := openDB(t, testOptions(t, 64))

	want := make([]face.Key, 0, 20)
	for i := 0; i < 20; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
		want = append(want, face.Key(testKey(i)))
	}

	var got []face.Key
	for k := range db.Iterator() {
		got = append(got, k)
	}
	assert.ElementsMatch(t, want, got)
	assert.ElementsMatch(t, want, db.Keys())

	n := 0
	for range db.Iterator() {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
}

func TestDB_Close(t *testing.T) {
	opts := testOptions(t, 50)
	db, err := Open(opts)
	require.NoError(t, err)
	require.NoError(t, db.Add(testKey(1), testValue(1)))

	require.NoError(t, db.Close())
	assert.ErrorIs(t, db.Close(), ErrDBClosed)

	assert.ErrorIs(t, db.Add(testKey(2), testValue(2)), ErrDBClosed)
	_, err = db.Get(testKey(1))
	assert.ErrorIs(t, err, ErrDBClosed)
	_, err = db.Remove(testKey(1))
	assert.ErrorIs(t, err, ErrDBClosed)
	_, err = db.Update(testKey(1), testValue(2))
	assert.ErrorIs(t, err, ErrDBClosed)
	assert.ErrorIs(t, db.Sync(), ErrDBClosed)
	assert.ErrorIs(t, db.Backup(t.TempDir()), ErrDBClosed)
	_, err = db.NewWatch()
	assert.ErrorIs(t, err, ErrDBClosed)
	_, err = db.Stat()
	assert.ErrorIs(t, err, ErrDBClosed)
}

func TestDB_FileLock(t *testing.T) {
	opts := testOptions(t, 50)
	db, err := Open(opts)
	require.NoError(t, err)

	_, err = Open(opts)
	assert.ErrorIs(t, err, ErrDatabaseIsUsing)

	// 不同名字的存储可以共用一个目录
	other := opts
	other.Name = "other"
	db2 := openDB(t, other)
	require.NoError(t, db2.Add(testKey(1), testValue(1)))

	require.NoError(t, db.Close())
	db = openDB(t, opts)
	_, err = db.Get(testKey(1))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDB_Sync(t *testing.T) {
	opts := testOptions(t, 50)
	opts.SyncWrites = true
	db := openDB(t, opts)

	require.NoError(t, db.Add(testKey(1), testValue(1)))
	require.NoError(t, db.Sync())
}

func TestDB_Watch(t *testing.T) {
	db := openDB(t, testOptions(t, 50))

	ch, err := db.NewWatch()
	require.NoError(t, err)
	ch2, err := db.NewWatch()
	require.NoError(t, err)
	assert.Equal(t, ch, ch2)

	require.NoError(t, db.Add(testKey(1), testValue(1)))
	_, err = db.Update(testKey(1), testValue(2))
	require.NoError(t, err)
	_, err = db.Remove(testKey(1))
	require.NoError(t, err)
	// 不存在的 key 不产生事件
	_, err = db.Remove(testKey(1))
	require.NoError(t, err)

	event := <-ch
	assert.Equal(t, watch.Create, event.EventType)
	assert.Equal(t, face.Key(testKey(1)), event.Key)
	assert.Nil(t, event.OldPos)
	require.NotNil(t, event.NewPos)

	event = <-ch
	assert.Equal(t, watch.Update, event.EventType)
	require.NotNil(t, event.OldPos)
	require.NotNil(t, event.NewPos)
	assert.Equal(t, int64(0), event.OldPos.Offset)
	assert.Equal(t, int64(8), event.NewPos.Offset)

	event = <-ch
	assert.Equal(t, watch.Delete, event.EventType)
	assert.Nil(t, event.NewPos)

	require.NoError(t, db.Close())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestDB_WatchBufferFull(t *testing.T) {
	opts := testOptions(t, 1024)
	opts.WatchBufferSize = 2
	db := openDB(t, opts)

	ch, err := db.NewWatch()
	require.NoError(t, err)

	// 缓冲满时丢弃事件，写操作不阻塞
	for i := 0; i < 10; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	assert.Len(t, ch, 2)
	assert.Equal(t, 10, db.Size())
}

func TestDB_Backup(t *testing.T) {
	opts := testOptions(t, 50)
	db := openDB(t, opts)

	assert.ErrorIs(t, db.Backup(""), ErrBackupDirIsEmpty)

	for i := 0; i < 20; i++ {
		require.NoError(t, db.Add(testKey(i), testValue(i)))
	}
	for i := 0; i < 5; i++ {
		_, err := db.Remove(testKey(i))
		require.NoError(t, err)
	}

	backupDir := filepath.Join(t.TempDir(), "backup")
	require.NoError(t, db.Backup(backupDir))
	_, err := os.Stat(filepath.Join(backupDir, lockFileName(opts.Name)))
	assert.True(t, os.IsNotExist(err))

	backupOpts := opts
	backupOpts.PersistentDir = backupDir
	backup := openDB(t, backupOpts)
	assert.Equal(t, 15, backup.Size())
	for i := 5; i < 20; i++ {
		val, err := backup.Get(testKey(i))
		require.NoError(t, err)
		assert.Equal(t, testValue(i), val)
	}
	checkSegments(t, backup)
}

func TestDB_Management(t *testing.T) {
	registry := manage.NewRegistry()
	opts := testOptions(t, 50)
	opts.Registrar = registry
	db, err := Open(opts)
	require.NoError(t, err)

	m, ok := registry.Get(opts.Name)
	require.True(t, ok)
	assert.Equal(t, opts.Name, m.Name())
	assert.Equal(t, opts.PersistentDir, m.Path())

	require.NoError(t, db.Add(testKey(1), testValue(1)))
	assert.Equal(t, "{1=journal.1 , length = 8 refCount = 1 position: 8}", m.DataFilesInfo())
	assert.Equal(t, "{1=journal.1.log , length = 33 refCount = 0 position: 33}", m.LogFilesInfo())
	assert.Equal(t, "journal.1 , length = 8 refCount = 1 position: 8", m.DataFileInfo())
	assert.Equal(t, "journal.1.log , length = 33 refCount = 0 position: 33", m.LogFileInfo())
	assert.Equal(t, fmt.Sprintf("{%x=1:0:8}", testKey(1)), m.ViewIndexMap())
	assert.Equal(t, uint32(1), m.Number())
	assert.Equal(t, 1, m.Size())

	stat, err := m.Stat()
	require.NoError(t, err)
	assert.Equal(t, 1, stat.KeyNum)
	assert.Equal(t, 1, stat.SegmentNum)
	assert.Equal(t, uint32(1), stat.CurrentSegment)
	assert.GreaterOrEqual(t, stat.DiskSize, int64(8+wal.OpItemSize))

	require.NoError(t, db.Close())
	_, ok = registry.Get(opts.Name)
	assert.False(t, ok)
}

func TestDB_Concurrent(t *testing.T) {
	opts := testOptions(t, 256)
	db := openDB(t, opts)

	const workers = 8
	const perWorker = 200

	// added[id] 在 Add 返回后置位
	added := make([]atomic.Bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := w*perWorker + j
				if err := db.Add(testKey(id), testValue(id)); err != nil {
					t.Errorf("add failed: %v", err)
					return
				}
				added[id].Store(true)
				switch j % 4 {
				case 1:
					if _, err := db.Update(testKey(id), testValue(id+1_000_000)); err != nil {
						t.Errorf("update failed: %v", err)
					}
				case 2:
					if _, err := db.Remove(testKey(id)); err != nil {
						t.Errorf("remove failed: %v", err)
					}
				}
			}
		}(w)
	}

	// 读操作不持有写锁，只能读到旧值、新值或者不存在
	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func(seed int64) {
			defer readers.Done()
			rnd := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				id := rnd.Intn(workers * perWorker)
				// 添加完成且从不删除的 key 必须一直可见
				mustExist := added[id].Load() && id%perWorker%4 != 2
				val, err := db.Get(testKey(id))
				if err != nil {
					if err != ErrKeyNotFound {
						t.Errorf("get failed: %v", err)
					} else if mustExist {
						t.Errorf("live key %d reported absent", id)
					}
					continue
				}
				if !bytes.Equal(val, testValue(id)) && !bytes.Equal(val, testValue(id+1_000_000)) {
					t.Errorf("unexpected value %q for %d", val, id)
				}
			}
		}(int64(r))
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	expected := 0
	for id := 0; id < workers*perWorker; id++ {
		val, err := db.Get(testKey(id))
		switch id % perWorker % 4 {
		case 1:
			require.NoError(t, err)
			assert.Equal(t, testValue(id+1_000_000), val)
			expected++
		case 2:
			assert.ErrorIs(t, err, ErrKeyNotFound)
		default:
			require.NoError(t, err)
			assert.Equal(t, testValue(id), val)
			expected++
		}
	}
	assert.Equal(t, expected, db.Size())
	checkSegments(t, db)

	require.NoError(t, db.Close())
	db = openDB(t, opts)
	assert.Equal(t, expected, db.Size())
	checkSegments(t, db)
}

// 阈值为 1 时每次更新都会滚动并回收旧段，并发读只能读到旧值或新值
func TestDB_GetDuringCrossSegmentUpdate(t *testing.T) {
	db := openDB(t, testOptions(t, 1))
	key := testKey(1)
	require.NoError(t, db.Add(key, testValue(0)))

	const updates = 2000
	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 8; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				val, err := db.Get(key)
				if err != nil {
					t.Errorf("get live key failed: %v", err)
					return
				}
				if len(val) != 8 || val[0] != 'v' {
					t.Errorf("unexpected value %q", val)
					return
				}
			}
		}()
	}

	for i := 1; i <= updates; i++ {
		ok, err := db.Update(key, testValue(i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	close(stop)
	readers.Wait()

	val, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, testValue(updates), val)
	assert.Equal(t, uint32(updates+1), db.Number())
	checkSegments(t, db)
}
