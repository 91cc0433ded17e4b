package utils

import "errors"

var ErrUnsupportedPlatform = errors.New("DISK USAGE IS NOT SUPPORTED ON THIS PLATFORM")
