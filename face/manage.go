package face

// Stat 存储实例的统计信息
type Stat struct {
	KeyNum          int
	SegmentNum      int
	CurrentSegment  uint32
	DiskSize        int64
	AvailableOnDisk uint64
}

// Management 只读的管理查询接口
type Management interface {
	DataFilesInfo() string
	LogFilesInfo() string
	DataFileInfo() string
	LogFileInfo() string
	Number() uint32
	Path() string
	Name() string
	ViewIndexMap() string
	Size() int
	Stat() (*Stat, error)
}

// Registrar 由调用方注入，Open 时注册，Close 时注销
type Registrar interface {
	Register(name string, m Management) error
	Unregister(name string)
}
