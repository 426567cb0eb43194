//go:build windows

package canal

import (
	"golang.org/x/sys/windows"
)

const DefaultLibrary = "canal.dll"

type dllLibrary struct {
	dll *windows.DLL
}

func openSharedLibrary(path string) (sharedLibrary, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}
	return &dllLibrary{dll: dll}, nil
}

func (l *dllLibrary) lookup(symbol string) (uintptr, error) {
	proc, err := l.dll.FindProc(symbol)
	if err != nil {
		return 0, err
	}
	return proc.Addr(), nil
}

func (l *dllLibrary) release() error {
	return l.dll.Release()
}
