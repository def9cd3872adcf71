package user

import (
	"fmt"
	"os"
	"syscall"

	"github.com/blevesearch/vellum"
)

// mmapFST is one memory-mapped, on-disk FST, opened read-only. Backing
// pages are owned by the OS page cache, not the Go heap, which matters
// when a day's union spans many batch files at once.
type mmapFST struct {
	data []byte
	file *os.File
	fst  *vellum.FST
}

// openMmapFST memory-maps path and parses it as an FST.
func openMmapFST(path string) (*mmapFST, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fst file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("stat fst file %s: %w", path, err)
	}

	size := info.Size()
	if size == 0 {
		file.Close()

		return nil, fmt.Errorf("fst file %s is empty", path)
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("mmap fst file %s: %w", path, err)
	}

	fst, err := vellum.Load(data)
	if err != nil {
		syscall.Munmap(data)
		file.Close()

		return nil, fmt.Errorf("parse fst file %s: %w", path, err)
	}

	return &mmapFST{data: data, file: file, fst: fst}, nil
}

// Close unmaps the file, releases the FST, and closes the descriptor.
func (m *mmapFST) Close() error {
	closeErr := m.fst.Close()

	var munmapErr error
	if m.data != nil {
		munmapErr = syscall.Munmap(m.data)
	}

	fileErr := m.file.Close()

	if closeErr != nil {
		return fmt.Errorf("close fst: %w", closeErr)
	}

	if munmapErr != nil {
		return fmt.Errorf("munmap fst file %s: %w", m.file.Name(), munmapErr)
	}

	if fileErr != nil {
		return fmt.Errorf("close fst file %s: %w", m.file.Name(), fileErr)
	}

	return nil
}

// closeAllMmapFSTs closes every FST in fsts, returning the first error
// encountered while still attempting to close the rest.
func closeAllMmapFSTs(fsts []*mmapFST) error {
	var firstErr error

	for _, f := range fsts {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
