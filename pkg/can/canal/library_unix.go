//go:build darwin || freebsd || linux

package canal

import (
	"github.com/ebitengine/purego"
)

const DefaultLibrary = "libcanal.so"

type dlLibrary struct {
	handle uintptr
}

func openSharedLibrary(path string) (sharedLibrary, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}
	return &dlLibrary{handle: handle}, nil
}

func (l *dlLibrary) lookup(symbol string) (uintptr, error) {
	return purego.Dlsym(l.handle, symbol)
}

func (l *dlLibrary) release() error {
	return purego.Dlclose(l.handle)
}
