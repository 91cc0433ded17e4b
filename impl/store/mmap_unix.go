//go:build unix

package store

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// MMap 只读的内存映射 IO，启动时回放日志文件使用
type MMap struct {
	fd   *os.File
	data []byte
}

func NewMMapIOMgr(fileName string) (*MMap, error) {
	fd, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDONLY, DataFilePerm)
	if err != nil {
		return nil, err
	}
	stat, err := fd.Stat()
	if err != nil {
		_ = fd.Close()
		return nil, err
	}

	mmap := &MMap{fd: fd}
	// 空文件不能映射
	if size := stat.Size(); size > 0 {
		data, err := unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			_ = fd.Close()
			return nil, err
		}
		mmap.data = data
	}
	return mmap, nil
}

func (mmap *MMap) Read(b []byte, offset int64) (int, error) {
	if offset < 0 || offset >= int64(len(mmap.data)) {
		return 0, io.EOF
	}
	n := copy(b, mmap.data[offset:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (mmap *MMap) Write([]byte) (int, error) {
	return 0, ErrReadOnly
}

func (mmap *MMap) Sync() error {
	return nil
}

func (mmap *MMap) Truncate(int64) error {
	return ErrReadOnly
}

func (mmap *MMap) Close() error {
	if mmap.data != nil {
		if err := unix.Munmap(mmap.data); err != nil {
			return err
		}
		mmap.data = nil
	}
	return mmap.fd.Close()
}

func (mmap *MMap) Size() (int64, error) {
	return int64(len(mmap.data)), nil
}
