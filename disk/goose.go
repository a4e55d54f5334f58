package disk

import (
	"fmt"
	"os"

	goosedisk "github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-mfstool/util"
)

var _ Disk = (*gooseDisk)(nil)

// gooseDisk presents a goose block device (4096-byte pages) as a
// byte-addressed image. Partial pages are read, patched and written back.
type gooseDisk struct {
	d    goosedisk.Disk
	size uint64
}

// NewGooseDisk wraps d; size is the logical image size in bytes and must fit
// in d's pages.
func NewGooseDisk(d goosedisk.Disk, size uint64) *gooseDisk {
	return &gooseDisk{d: d, size: size}
}

// LoadGooseMemDisk copies the image at path into a goose in-memory disk.
// Writes through the result never reach the file.
func LoadGooseMemDisk(path string) (*gooseDisk, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	size := uint64(len(img))
	mem := goosedisk.NewMemDisk(util.RoundUp(size, goosedisk.BlockSize))
	gd := NewGooseDisk(mem, size)
	if err := gd.WriteAt(0, img); err != nil {
		return nil, err
	}
	return gd, nil
}

func (g *gooseDisk) ReadAt(off uint64, n uint64) ([]byte, error) {
	if err := checkBounds("read", off, n, g.size); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, n)
	for pos := off; pos < off+n; {
		page := pos / goosedisk.BlockSize
		poff := pos % goosedisk.BlockSize
		m := util.Min(goosedisk.BlockSize-poff, off+n-pos)
		blk := g.d.Read(page)
		buf = append(buf, blk[poff:poff+m]...)
		pos += m
	}
	return buf, nil
}

func (g *gooseDisk) WriteAt(off uint64, data []byte) error {
	n := uint64(len(data))
	if err := checkBounds("write", off, n, g.size); err != nil {
		return err
	}
	for pos := off; pos < off+n; {
		page := pos / goosedisk.BlockSize
		poff := pos % goosedisk.BlockSize
		m := util.Min(goosedisk.BlockSize-poff, off+n-pos)
		var blk goosedisk.Block
		if m == goosedisk.BlockSize {
			blk = make(goosedisk.Block, goosedisk.BlockSize)
		} else {
			blk = g.d.Read(page)
		}
		copy(blk[poff:], data[pos-off:pos-off+m])
		g.d.Write(page, blk)
		pos += m
	}
	return nil
}

func (g *gooseDisk) Size() (uint64, error) {
	return g.size, nil
}

func (g *gooseDisk) Barrier() error {
	g.d.Barrier()
	return nil
}

func (g *gooseDisk) Close() error {
	g.d.Close()
	return nil
}
