package storeer

// IOMgr 抽象的文件读写接口，可以有不同的实现
type IOMgr interface {
	// Read 从文件的给定位置读取对应的数据
	Read([]byte, int64) (int, error)

	// Write 追加写入字节数组到文件中
	Write([]byte) (int, error)

	// Sync 持久化数据
	Sync() error

	// Truncate 截断文件到给定长度
	Truncate(int64) error

	// Close 关闭文件
	Close() error

	// Size 获取到文件大小
	Size() (int64, error)
}
