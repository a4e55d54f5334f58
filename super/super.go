// Package super decodes the Minix v1 superblock and derives the volume
// geometry from it.
package super

import (
	"encoding/binary"
	"fmt"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
)

// Superblock is the fixed header stored at the start of block 1.
type Superblock struct {
	Ninodes       uint16 `yaml:"ninodes"`
	Nzones        uint16 `yaml:"nzones"`
	ImapBlocks    uint16 `yaml:"imap_blocks"`
	ZmapBlocks    uint16 `yaml:"zmap_blocks"`
	FirstDataZone uint16 `yaml:"first_data_zone"`
	LogZoneSize   uint16 `yaml:"log_zone_size"`
	MaxSize       uint32 `yaml:"max_size"`
	Magic         uint16 `yaml:"magic"`
	State         uint16 `yaml:"state"`
}

// Decode unpacks the header from b. Only the length is checked; the magic
// number is validated by NameWidth.
func Decode(b []byte) (*Superblock, error) {
	if uint64(len(b)) < common.SUPERSZ {
		return nil, fmt.Errorf("superblock is %d bytes, need %d: %w",
			len(b), common.SUPERSZ, common.ErrFormat)
	}
	le := binary.LittleEndian
	return &Superblock{
		Ninodes:       le.Uint16(b[0:]),
		Nzones:        le.Uint16(b[2:]),
		ImapBlocks:    le.Uint16(b[4:]),
		ZmapBlocks:    le.Uint16(b[6:]),
		FirstDataZone: le.Uint16(b[8:]),
		LogZoneSize:   le.Uint16(b[10:]),
		MaxSize:       le.Uint32(b[12:]),
		Magic:         le.Uint16(b[16:]),
		State:         le.Uint16(b[18:]),
	}, nil
}

// Encode packs the header into its 20-byte on-disk form.
func (sb *Superblock) Encode() []byte {
	b := make([]byte, common.SUPERSZ)
	le := binary.LittleEndian
	le.PutUint16(b[0:], sb.Ninodes)
	le.PutUint16(b[2:], sb.Nzones)
	le.PutUint16(b[4:], sb.ImapBlocks)
	le.PutUint16(b[6:], sb.ZmapBlocks)
	le.PutUint16(b[8:], sb.FirstDataZone)
	le.PutUint16(b[10:], sb.LogZoneSize)
	le.PutUint32(b[12:], sb.MaxSize)
	le.PutUint16(b[16:], sb.Magic)
	le.PutUint16(b[18:], sb.State)
	return b
}

// Read loads the superblock from block 1 of d.
func Read(d disk.Disk) (*Superblock, error) {
	blk, err := disk.ReadBlock(d, common.SUPERBLK)
	if err != nil {
		return nil, fmt.Errorf("read superblock: %w", err)
	}
	return Decode(blk)
}

// Write stores the header at the start of block 1, leaving the rest of the
// block as it is.
func (sb *Superblock) Write(d disk.Disk) error {
	if err := d.WriteAt(common.SUPERBLK*common.BLOCKSIZE, sb.Encode()); err != nil {
		return fmt.Errorf("write superblock: %w", err)
	}
	return nil
}

// NameWidth is the directory filename width selected by the magic number.
func (sb *Superblock) NameWidth() (uint64, error) {
	switch sb.Magic {
	case common.MAGIC14:
		return common.SHORTNAME, nil
	case common.MAGIC30:
		return common.LONGNAME, nil
	}
	return 0, fmt.Errorf("unrecognized magic 0x%04x: %w", sb.Magic, common.ErrFormat)
}

func (sb *Superblock) InodeMapStart() common.Bnum {
	return common.IMAPSTART
}

func (sb *Superblock) ZoneMapStart() common.Bnum {
	return common.IMAPSTART + common.Bnum(sb.ImapBlocks)
}

// InodeTableStart is the byte offset of inode 1.
func (sb *Superblock) InodeTableStart() uint64 {
	return (common.IMAPSTART + uint64(sb.ImapBlocks) + uint64(sb.ZmapBlocks)) * common.BLOCKSIZE
}

// InodeTableBlocks is the number of blocks the inode table spans.
func (sb *Superblock) InodeTableBlocks() uint64 {
	return (uint64(sb.Ninodes) + common.INODEBLK - 1) / common.INODEBLK
}

// ZoneSize is the size of one zone in bytes.
func (sb *Superblock) ZoneSize() uint64 {
	return common.BLOCKSIZE << sb.LogZoneSize
}

// ZoneOffset is the byte offset of zone z.
func (sb *Superblock) ZoneOffset(z common.Znum) uint64 {
	return (uint64(z) << sb.LogZoneSize) * common.BLOCKSIZE
}

// DataZones is the number of zones available for file data, which is also
// the highest usable bit of the zone bitmap.
func (sb *Superblock) DataZones() uint64 {
	if sb.Nzones < sb.FirstDataZone {
		return 0
	}
	return uint64(sb.Nzones) - uint64(sb.FirstDataZone)
}

func (sb *Superblock) String() string {
	return fmt.Sprintf("ninodes %d nzones %d imap %d zmap %d firstdatazone %d logzone %d maxsize %d magic 0x%x state %d",
		sb.Ninodes, sb.Nzones, sb.ImapBlocks, sb.ZmapBlocks, sb.FirstDataZone,
		sb.LogZoneSize, sb.MaxSize, sb.Magic, sb.State)
}
