//go:build !(darwin || freebsd || linux || windows)

package canal

import (
	"fmt"
	"runtime"
)

const DefaultLibrary = "libcanal.so"

func openSharedLibrary(path string) (sharedLibrary, error) {
	return nil, fmt.Errorf("loading CANAL drivers is not supported on %v", runtime.GOOS)
}
