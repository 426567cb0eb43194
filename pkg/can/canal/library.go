package canal

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
	log "github.com/sirupsen/logrus"
)

// Library is a CANAL driver loaded at runtime from a shared library
type Library struct {
	path   string
	shared sharedLibrary

	canalOpen    func(config string, flags cULong) cLong
	canalClose   func(handle cLong) cLong
	canalSend    func(handle cLong, msg *Msg) cLong
	canalReceive func(handle cLong, msg *Msg) cLong
}

// Platform specific dynamic loader
type sharedLibrary interface {
	lookup(symbol string) (uintptr, error)
	release() error
}

// Load the driver at path and resolve the four CANAL entry points
func Load(path string) (*Library, error) {
	if path == "" {
		path = DefaultLibrary
	}
	shared, err := openSharedLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load CANAL driver %v : %w", path, err)
	}
	return bind(path, shared)
}

// Resolves the entry points, shared is released when one is missing
func bind(path string, shared sharedLibrary) (*Library, error) {
	lib := &Library{path: path, shared: shared}
	symbols := []struct {
		name string
		fptr any
	}{
		{"CanalOpen", &lib.canalOpen},
		{"CanalClose", &lib.canalClose},
		{"CanalSend", &lib.canalSend},
		{"CanalReceive", &lib.canalReceive},
	}
	for _, sym := range symbols {
		addr, err := shared.lookup(sym.name)
		if err != nil {
			_ = shared.release()
			return nil, fmt.Errorf("CANAL driver %v has no %v : %w", path, sym.name, err)
		}
		purego.RegisterFunc(sym.fptr, addr)
	}
	log.WithField("path", path).Debug("[CANAL] driver loaded")
	return lib, nil
}

func (lib *Library) Path() string {
	return lib.path
}

func (lib *Library) Open(config string, flags uint32) Handle {
	return Handle(lib.canalOpen(config, cULong(flags)))
}

func (lib *Library) Close(handle Handle) Status {
	return Status(lib.canalClose(cLong(handle)))
}

func (lib *Library) Send(handle Handle, msg *Msg) Status {
	status := lib.canalSend(cLong(handle), msg)
	runtime.KeepAlive(msg)
	return Status(status)
}

func (lib *Library) Receive(handle Handle, msg *Msg) Status {
	status := lib.canalReceive(cLong(handle), msg)
	runtime.KeepAlive(msg)
	return Status(status)
}

// Release unloads the shared library, no call may be made afterwards
func (lib *Library) Release() error {
	if lib.shared == nil {
		return nil
	}
	err := lib.shared.release()
	lib.shared = nil
	return err
}
