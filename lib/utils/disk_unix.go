//go:build linux || darwin || freebsd

package utils

import (
	"os"

	"golang.org/x/sys/unix"
)

// AvailableDiskSize 获取磁盘剩余可用空间大小
func AvailableDiskSize() (uint64, error) {
	wd, err := os.Getwd()
	if err != nil {
		return 0, err
	}
	return AvailableDiskSizeOf(wd)
}

// AvailableDiskSizeOf 获取 path 所在磁盘的剩余可用空间大小
func AvailableDiskSizeOf(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
