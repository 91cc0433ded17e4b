//go:build !unix

package store

import "github.com/paranoidxc/JournalDB/interface/storeer"

// 非 unix 平台没有 mmap，退回标准文件 IO
func NewMMapIOMgr(fileName string) (storeer.IOMgr, error) {
	return NewFileIOMgr(fileName)
}
