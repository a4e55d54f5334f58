// Package mkfs lays down an empty Minix v1 filesystem: superblock, both
// bitmaps, the inode table and a root directory holding "." and "..".
package mkfs

import (
	"fmt"

	"github.com/mit-pdos/go-mfstool/alloc"
	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/dir"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/inode"
	"github.com/mit-pdos/go-mfstool/super"
	"github.com/mit-pdos/go-mfstool/util"
)

const (
	DefaultBlocks uint64 = 1440
	MaxBlocks     uint64 = 0xffff
	MaxInodes     uint64 = 0xffff

	// s_max_size of a v1 volume with 1 KiB zones: 7 direct, one indirect
	// and one double-indirect zone.
	v1MaxSize uint32 = (7 + 512 + 512*512) * 1024

	RootMode uint16 = common.I_DIRECTORY | 0o755
)

type Options struct {
	Blocks    uint64 // image size in blocks; DefaultBlocks if 0
	Inodes    uint64 // Blocks/3 rounded up to a full inode block if 0
	NameWidth uint64 // 14 or 30; 14 if 0
	Mtime     uint32 // root directory timestamp
}

func (o Options) withDefaults() Options {
	if o.Blocks == 0 {
		o.Blocks = DefaultBlocks
	}
	if o.Inodes == 0 {
		o.Inodes = util.RoundUp(o.Blocks/3, common.INODEBLK) * common.INODEBLK
		if o.Inodes > MaxInodes {
			o.Inodes = MaxInodes
		}
	}
	if o.NameWidth == 0 {
		o.NameWidth = common.SHORTNAME
	}
	return o
}

// Layout computes the superblock for an image described by opts without
// touching any disk.
func Layout(opts Options) (*super.Superblock, error) {
	o := opts.withDefaults()
	var magic uint16
	switch o.NameWidth {
	case common.SHORTNAME:
		magic = common.MAGIC14
	case common.LONGNAME:
		magic = common.MAGIC30
	default:
		return nil, fmt.Errorf("name width %d: want 14 or 30: %w", o.NameWidth, common.ErrUsage)
	}
	if o.Blocks > MaxBlocks {
		return nil, fmt.Errorf("%d blocks exceeds %d: %w", o.Blocks, MaxBlocks, common.ErrUsage)
	}
	if o.Inodes > MaxInodes {
		return nil, fmt.Errorf("%d inodes exceeds %d: %w", o.Inodes, MaxInodes, common.ErrUsage)
	}

	imap := util.RoundUp(o.Inodes+1, common.NBITBLOCK)
	zmap := util.RoundUp(o.Blocks, common.NBITBLOCK)
	itable := util.RoundUp(o.Inodes, common.INODEBLK)
	fdz := common.IMAPSTART + imap + zmap + itable
	if fdz >= o.Blocks {
		return nil, fmt.Errorf("%d blocks cannot hold %d inodes and a root directory: %w",
			o.Blocks, o.Inodes, common.ErrUsage)
	}
	return &super.Superblock{
		Ninodes:       uint16(o.Inodes),
		Nzones:        uint16(o.Blocks),
		ImapBlocks:    uint16(imap),
		ZmapBlocks:    uint16(zmap),
		FirstDataZone: uint16(fdz),
		LogZoneSize:   0,
		MaxSize:       v1MaxSize,
		Magic:         magic,
		State:         common.STATEVALID,
	}, nil
}

// markTail sets every bit above bm.Max() so the kernel never allocates past
// the end of the volume.
func markTail(bm *alloc.Bitmap, nblocks uint64) {
	for n := bm.Max() + 1; n < nblocks*common.NBITBLOCK; n++ {
		bm.Set(n)
	}
}

func zeroBlocks(d disk.Disk, start common.Bnum, n uint64) error {
	if n == 0 {
		return nil
	}
	return d.WriteAt(start*common.BLOCKSIZE, make([]byte, n*common.BLOCKSIZE))
}

// Format writes a fresh filesystem to d, which must hold at least
// opts.Blocks blocks. Everything up to and including the root directory zone
// is overwritten; the remaining data zones are left as they are.
func Format(d disk.Disk, opts Options) (*super.Superblock, error) {
	sb, err := Layout(opts)
	if err != nil {
		return nil, err
	}
	nb, err := disk.NumBlocks(d)
	if err != nil {
		return nil, err
	}
	if nb < uint64(sb.Nzones) {
		return nil, fmt.Errorf("image has %d blocks, need %d: %w", nb, sb.Nzones, common.ErrUsage)
	}
	width, err := sb.NameWidth()
	if err != nil {
		return nil, err
	}
	util.DPrintf(1, "mkfs: %v\n", sb)

	rootZone := common.Znum(sb.FirstDataZone)
	if err := zeroBlocks(d, 0, uint64(rootZone)+1); err != nil {
		return nil, fmt.Errorf("clear metadata: %w", err)
	}
	if err := sb.Write(d); err != nil {
		return nil, err
	}

	imap := alloc.MkBitmap(sb.InodeMapStart(), uint64(sb.ImapBlocks), uint64(sb.Ninodes),
		make([]byte, uint64(sb.ImapBlocks)*common.BLOCKSIZE))
	imap.Set(0)
	imap.Set(uint64(common.ROOTINUM))
	markTail(imap, uint64(sb.ImapBlocks))
	if err := imap.Store(d); err != nil {
		return nil, err
	}

	zmap := alloc.MkBitmap(sb.ZoneMapStart(), uint64(sb.ZmapBlocks), sb.DataZones(),
		make([]byte, uint64(sb.ZmapBlocks)*common.BLOCKSIZE))
	zmap.Set(0)
	zmap.Set(1)
	markTail(zmap, uint64(sb.ZmapBlocks))
	if err := zmap.Store(d); err != nil {
		return nil, err
	}

	blk, err := dir.NewBlock([]dir.Entry{
		{Inum: common.ROOTINUM, Name: []byte(".")},
		{Inum: common.ROOTINUM, Name: []byte("..")},
	}, width, sb.ZoneSize())
	if err != nil {
		return nil, err
	}
	if err := d.WriteAt(sb.ZoneOffset(rootZone), blk); err != nil {
		return nil, fmt.Errorf("write root directory: %w", err)
	}

	root := inode.New(RootMode, 2, opts.Mtime)
	root.Size = uint32(2 * common.DirEntrySize(width))
	root.Zone[0] = uint16(rootZone)
	if err := inode.Write(d, sb.InodeTableStart(), common.ROOTINUM, root); err != nil {
		return nil, err
	}
	return sb, nil
}
