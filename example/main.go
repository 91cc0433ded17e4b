package main

import (
	"crypto/md5"
	"fmt"
	"os"

	journalDB "github.com/paranoidxc/JournalDB"
)

func main() {
	opt := journalDB.DefaultOptions
	dir, err := os.MkdirTemp("", "journalDB-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	opt.PersistentDir = dir
	// 小阈值，演示段的滚动和回收
	opt.SegmentSizeThreshold = 64

	db, err := journalDB.Open(opt)
	if err != nil {
		panic(err)
	}

	keys := make([][]byte, 0, 8)
	for i := 0; i < 8; i++ {
		sum := md5.Sum([]byte(fmt.Sprintf("key-%d", i)))
		keys = append(keys, sum[:])
		if err := db.Add(sum[:], []byte(fmt.Sprintf("value-%02d", i))); err != nil {
			panic(err)
		}
	}
	fmt.Println("after add:", db.DataFilesInfo())

	for _, key := range keys[:4] {
		if _, err := db.Update(key, []byte("updated!")); err != nil {
			panic(err)
		}
	}
	fmt.Println("after update:", db.DataFilesInfo())

	for _, key := range keys[4:] {
		if _, err := db.Remove(key); err != nil {
			panic(err)
		}
	}
	fmt.Println("after remove:", db.DataFilesInfo())

	val, err := db.Get(keys[0])
	if err != nil {
		panic(err)
	}
	fmt.Printf("get %x = %s, size = %d\n", keys[0], val, db.Size())

	if err := db.Close(); err != nil {
		panic(err)
	}

	// 重新打开，从日志文件恢复
	db, err = journalDB.Open(opt)
	if err != nil {
		panic(err)
	}
	defer db.Close()
	fmt.Println("after reopen:", db.DataFilesInfo(), "size =", db.Size())
}
