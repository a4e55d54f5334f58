package disk

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-mfstool/util"
)

var _ Disk = (*fileDisk)(nil)

type fileDisk struct {
	fd   int
	size uint64
}

// NewFileDisk creates (or grows) the image at path so it holds numBlocks
// blocks.
func NewFileDisk(path string, numBlocks uint64) (*fileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	want := numBlocks * BlockSize
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if (stat.Mode&unix.S_IFMT) == unix.S_IFREG && uint64(stat.Size) != want {
		if err := unix.Ftruncate(fd, int64(want)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("truncate %s to %d bytes: %w", path, want, err)
		}
	}
	return &fileDisk{fd: fd, size: want}, nil
}

// OpenFileDisk opens an existing image read-write.
func OpenFileDisk(path string) (*fileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &fileDisk{fd: fd, size: uint64(stat.Size)}, nil
}

func (d *fileDisk) ReadAt(off uint64, n uint64) ([]byte, error) {
	if err := checkBounds("read", off, n, d.size); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	for done := uint64(0); done < n; {
		m, err := unix.Pread(d.fd, buf[done:], int64(off+done))
		if err != nil {
			return nil, fmt.Errorf("read at %d: %w", off+done, err)
		}
		if m == 0 {
			return nil, checkBounds("read", off, n, off+done)
		}
		done += uint64(m)
	}
	util.DPrintf(20, "read: %d+%d\n", off, n)
	return buf, nil
}

func (d *fileDisk) WriteAt(off uint64, data []byte) error {
	if err := checkBounds("write", off, uint64(len(data)), d.size); err != nil {
		return err
	}
	for done := 0; done < len(data); {
		m, err := unix.Pwrite(d.fd, data[done:], int64(off)+int64(done))
		if err != nil {
			return fmt.Errorf("write at %d: %w", off+uint64(done), err)
		}
		done += m
	}
	util.DPrintf(20, "write: %d+%d\n", off, len(data))
	return nil
}

func (d *fileDisk) Size() (uint64, error) {
	return d.size, nil
}

func (d *fileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	if err := unix.Fsync(d.fd); err != nil {
		return fmt.Errorf("file sync failed: %w", err)
	}
	util.DPrintf(10, "barrier\n")
	return nil
}

func (d *fileDisk) Close() error {
	if err := unix.Close(d.fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

/////////////////////////
/////////////////////////
/////////////////////////
/////////////////////////

var _ Disk = (*memDisk)(nil)

type memDisk struct {
	l    *sync.RWMutex
	data []byte
}

func NewMemDisk(numBlocks uint64) *memDisk {
	return &memDisk{l: new(sync.RWMutex), data: make([]byte, numBlocks*BlockSize)}
}

// NewMemDiskFrom wraps a copy of an existing image.
func NewMemDiskFrom(img []byte) *memDisk {
	data := make([]byte, len(img))
	copy(data, img)
	return &memDisk{l: new(sync.RWMutex), data: data}
}

func (d *memDisk) ReadAt(off uint64, n uint64) ([]byte, error) {
	d.l.RLock()
	defer d.l.RUnlock()
	if err := checkBounds("read", off, n, uint64(len(d.data))); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	copy(buf, d.data[off:off+n])
	return buf, nil
}

func (d *memDisk) WriteAt(off uint64, data []byte) error {
	d.l.Lock()
	defer d.l.Unlock()
	if err := checkBounds("write", off, uint64(len(data)), uint64(len(d.data))); err != nil {
		return err
	}
	copy(d.data[off:], data)
	return nil
}

func (d *memDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.data)), nil
}

// Bytes returns a snapshot of the whole image.
func (d *memDisk) Bytes() []byte {
	d.l.RLock()
	defer d.l.RUnlock()
	return append([]byte(nil), d.data...)
}

func (d *memDisk) Barrier() error { return nil }

func (d *memDisk) Close() error { return nil }
