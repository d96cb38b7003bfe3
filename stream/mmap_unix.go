//go:build unix

package stream

import (
	"os"

	"golang.org/x/sys/unix"
)

func openMapped(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := info.Size()
	if size == 0 {
		// Zero-length mappings are rejected by the kernel.
		f.Close()
		return &Source{data: nil, kind: sourceOwned}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}

	return &Source{data: data, kind: sourceMapped, f: f}, nil
}

func (s *Source) unmap() error {
	if s.data == nil {
		return nil
	}

	return unix.Munmap(s.data)
}
