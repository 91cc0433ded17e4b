//go:build !linux && !darwin && !freebsd

package utils

func AvailableDiskSize() (uint64, error) {
	return 0, ErrUnsupportedPlatform
}

func AvailableDiskSizeOf(string) (uint64, error) {
	return 0, ErrUnsupportedPlatform
}
