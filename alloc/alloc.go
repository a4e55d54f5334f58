// Package alloc implements first-fit allocation over the on-disk inode and
// zone bitmaps.
//
// A Bitmap is an explicit in-memory copy of a bitmap region: Load reads the
// whole region, FindFree/Set/Clear operate on the copy, and Store writes the
// whole region back. Nothing is shared between calls, so the read-modify-write
// is visible at every call site. There is no locking and no atomicity; a crash
// between Set and Store loses the allocation, and two concurrent writers can
// hand out the same number.
package alloc

import (
	"fmt"

	"github.com/mit-pdos/go-mfstool/addr"
	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/super"
	"github.com/mit-pdos/go-mfstool/util"
)

// Bitmap uses a bit map to allocate and free numbers. Bit n corresponds to
// number n; bit 0 is never allocated.
type Bitmap struct {
	start   common.Bnum // first block of the region
	nblocks uint64
	max     uint64 // highest allocatable number
	data    []byte
}

// MkBitmap wraps an in-memory region of nblocks blocks. Numbers above max are
// never handed out.
func MkBitmap(start common.Bnum, nblocks uint64, max uint64, data []byte) *Bitmap {
	if uint64(len(data)) != nblocks*common.BLOCKSIZE {
		panic(fmt.Errorf("bitmap data is %d bytes, want %d blocks", len(data), nblocks))
	}
	if nblocks == 0 {
		max = 0
	} else if max >= nblocks*common.NBITBLOCK {
		max = nblocks*common.NBITBLOCK - 1
	}
	return &Bitmap{start: start, nblocks: nblocks, max: max, data: data}
}

// Load reads the whole bitmap region from d.
func Load(d disk.Disk, start common.Bnum, nblocks uint64, max uint64) (*Bitmap, error) {
	data, err := disk.ReadBlocks(d, start, nblocks)
	if err != nil {
		return nil, fmt.Errorf("read bitmap at block %d: %w", start, err)
	}
	return MkBitmap(start, nblocks, max, data), nil
}

// Store writes the whole region back.
func (bm *Bitmap) Store(d disk.Disk) error {
	if err := d.WriteAt(bm.start*common.BLOCKSIZE, bm.data); err != nil {
		return fmt.Errorf("write bitmap at block %d: %w", bm.start, err)
	}
	return nil
}

func (bm *Bitmap) Max() uint64 {
	return bm.max
}

func (bm *Bitmap) locate(n uint64) (uint64, byte) {
	a := addr.MkBitAddr(bm.start, n)
	return a.ByteOff() - bm.start*common.BLOCKSIZE, a.Mask()
}

func (bm *Bitmap) IsSet(n uint64) bool {
	i, mask := bm.locate(n)
	return bm.data[i]&mask != 0
}

func (bm *Bitmap) Set(n uint64) {
	i, mask := bm.locate(n)
	bm.data[i] |= mask
}

func (bm *Bitmap) Clear(n uint64) {
	i, mask := bm.locate(n)
	bm.data[i] &^= mask
}

// FindFree returns the lowest clear bit in [1, max].
func (bm *Bitmap) FindFree() (uint64, bool) {
	for n := uint64(1); n <= bm.max; n++ {
		i, mask := bm.locate(n)
		if bm.data[i] == 0xff {
			// skip the rest of a full byte
			n += 7 - n%8
			continue
		}
		if bm.data[i]&mask == 0 {
			util.DPrintf(15, "findFree: bitmap %d bit %d byte 0x%x\n", bm.start, n, bm.data[i])
			return n, true
		}
	}
	return 0, false
}

// NumFree counts the clear bits in [1, max].
func (bm *Bitmap) NumFree() uint64 {
	var free uint64
	for n := uint64(1); n <= bm.max; n++ {
		if !bm.IsSet(n) {
			free++
		}
	}
	return free
}

// LoadInodeMap reads the inode bitmap described by sb.
func LoadInodeMap(d disk.Disk, sb *super.Superblock) (*Bitmap, error) {
	return Load(d, sb.InodeMapStart(), uint64(sb.ImapBlocks), uint64(sb.Ninodes))
}

// LoadZoneMap reads the zone bitmap described by sb.
func LoadZoneMap(d disk.Disk, sb *super.Superblock) (*Bitmap, error) {
	return Load(d, sb.ZoneMapStart(), uint64(sb.ZmapBlocks), sb.DataZones())
}

func allocNum(d disk.Disk, bm *Bitmap) (uint64, bool, error) {
	n, ok := bm.FindFree()
	if !ok {
		return 0, false, nil
	}
	bm.Set(n)
	if err := bm.Store(d); err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// AllocInode claims the first free inode number.
func AllocInode(d disk.Disk, sb *super.Superblock) (common.Inum, error) {
	bm, err := LoadInodeMap(d, sb)
	if err != nil {
		return common.NULLINUM, err
	}
	n, ok, err := allocNum(d, bm)
	if err != nil {
		return common.NULLINUM, err
	}
	if !ok {
		return common.NULLINUM, fmt.Errorf("%d inodes in use: %w", bm.Max(), common.ErrNoFreeInode)
	}
	util.DPrintf(5, "AllocInode: %d\n", n)
	return common.Inum(n), nil
}

// AllocZone claims the first free data zone and returns its zone number.
func AllocZone(d disk.Disk, sb *super.Superblock) (common.Znum, error) {
	bm, err := LoadZoneMap(d, sb)
	if err != nil {
		return common.NULLZNUM, err
	}
	n, ok, err := allocNum(d, bm)
	if err != nil {
		return common.NULLZNUM, err
	}
	if !ok {
		return common.NULLZNUM, fmt.Errorf("%d zones in use: %w", bm.Max(), common.ErrNoFreeZone)
	}
	z := common.Znum(n + uint64(sb.FirstDataZone) - 1)
	util.DPrintf(5, "AllocZone: bit %d zone %d\n", n, z)
	return z, nil
}

// FreeInode releases inum.
func FreeInode(d disk.Disk, sb *super.Superblock, inum common.Inum) error {
	if inum == common.NULLINUM {
		panic("FreeInode")
	}
	bm, err := LoadInodeMap(d, sb)
	if err != nil {
		return err
	}
	bm.Clear(uint64(inum))
	return bm.Store(d)
}

// FreeZone releases data zone z.
func FreeZone(d disk.Disk, sb *super.Superblock, z common.Znum) error {
	if uint64(z) < uint64(sb.FirstDataZone) {
		panic("FreeZone")
	}
	bm, err := LoadZoneMap(d, sb)
	if err != nil {
		return err
	}
	bm.Clear(uint64(z) - uint64(sb.FirstDataZone) + 1)
	return bm.Store(d)
}
