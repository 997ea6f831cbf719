package logging

import (
	"os"
	"sync"
)

// cappedFile keeps at most maxBytes in the live file; the previous
// generation is moved to path+".1" when the cap is hit.
type cappedFile struct {
	path     string
	maxBytes int64

	mu   sync.Mutex
	f    *os.File
	size int64
}

func openCappedFile(path string, maxMB int) (*cappedFile, error) {
	if maxMB <= 0 {
		maxMB = 10
	}
	f, size, err := appendOpen(path)
	if err != nil {
		return nil, err
	}
	return &cappedFile{
		path:     path,
		maxBytes: int64(maxMB) * 1024 * 1024,
		f:        f,
		size:     size,
	}, nil
}

func (c *cappedFile) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		f, size, err := appendOpen(c.path)
		if err != nil {
			return 0, err
		}
		c.f, c.size = f, size
	}
	if c.size > 0 && c.size+int64(len(p)) > c.maxBytes {
		if err := c.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := c.f.Write(p)
	c.size += int64(n)
	return n, err
}

func (c *cappedFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	return err
}

func (c *cappedFile) rotate() error {
	_ = c.f.Close()
	c.f = nil
	if err := os.Rename(c.path, c.path+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	c.f, c.size = f, 0
	return nil
}

func appendOpen(path string) (*os.File, int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
