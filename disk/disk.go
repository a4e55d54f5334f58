package disk

import (
	"fmt"
	"io"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/util"
)

// Block is a 1024-byte buffer
type Block = []byte

const BlockSize uint64 = common.BLOCKSIZE

// Disk provides byte-addressed access to a filesystem image
type Disk interface {
	// ReadAt reads n bytes starting at byte offset off
	//
	// Expects off+n <= Size().
	ReadAt(off uint64, n uint64) ([]byte, error)

	// WriteAt stores data starting at byte offset off
	//
	// Expects off+len(data) <= Size().
	WriteAt(off uint64, data []byte) error

	// Size reports how big the image is, in bytes
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

// ReadBlock reads block a
func ReadBlock(d Disk, a uint64) (Block, error) {
	return d.ReadAt(a*BlockSize, BlockSize)
}

// ReadBlocks reads n consecutive blocks starting at a into one buffer
func ReadBlocks(d Disk, a uint64, n uint64) ([]byte, error) {
	return d.ReadAt(a*BlockSize, n*BlockSize)
}

// WriteBlock updates block a
func WriteBlock(d Disk, a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		panic(fmt.Errorf("v is not block-sized (%d bytes)", len(v)))
	}
	return d.WriteAt(a*BlockSize, v)
}

// NumBlocks reports the number of whole blocks in the image
func NumBlocks(d Disk) (uint64, error) {
	sz, err := d.Size()
	if err != nil {
		return 0, err
	}
	return sz / BlockSize, nil
}

func checkBounds(op string, off, n, size uint64) error {
	if util.SumOverflows(off, n) || off+n > size {
		return fmt.Errorf("out-of-bounds %s at %d+%d (image is %d bytes): %w",
			op, off, n, size, io.ErrUnexpectedEOF)
	}
	return nil
}
