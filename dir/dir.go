// Package dir reads and edits the fixed-width directory tables stored in a
// directory inode's zones.
//
// An entry is a little-endian inode number followed by a NUL-padded name of
// the width chosen by the superblock magic. Inode number 0 marks a free slot.
// Entries are packed from the start of each zone and never cross a zone
// boundary.
package dir

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/inode"
	"github.com/mit-pdos/go-mfstool/super"
	"github.com/mit-pdos/go-mfstool/util"
)

type Entry struct {
	Inum common.Inum
	Name []byte
}

func (e Entry) String() string {
	return fmt.Sprintf("%d:%q", e.Inum, e.Name)
}

// EncodeEntry packs e into a slot of the given name width.
func EncodeEntry(e Entry, width uint64) ([]byte, error) {
	if uint64(len(e.Name)) > width {
		return nil, fmt.Errorf("%q is longer than %d bytes: %w", e.Name, width, common.ErrNameTooLong)
	}
	b := make([]byte, common.DirEntrySize(width))
	binary.LittleEndian.PutUint16(b, uint16(e.Inum))
	copy(b[common.INUMSZ:], e.Name)
	return b, nil
}

// DecodeEntry unpacks one slot; the name loses its NUL padding.
func DecodeEntry(b []byte) Entry {
	return Entry{
		Inum: common.Inum(binary.LittleEndian.Uint16(b)),
		Name: append([]byte(nil), util.CStr(b[common.INUMSZ:])...),
	}
}

func slotsPerZone(sb *super.Superblock, width uint64) uint64 {
	return sb.ZoneSize() / common.DirEntrySize(width)
}

func readZone(d disk.Disk, sb *super.Superblock, z common.Znum) ([]byte, error) {
	b, err := d.ReadAt(sb.ZoneOffset(z), sb.ZoneSize())
	if err != nil {
		return nil, fmt.Errorf("read zone %d: %w", z, err)
	}
	return b, nil
}

// List returns the used entries of directory ip in zone order, then slot
// order.
func List(d disk.Disk, sb *super.Superblock, ip *inode.Inode, width uint64) ([]Entry, error) {
	esz := common.DirEntrySize(width)
	var ents []Entry
	for _, z := range ip.Zones() {
		blk, err := readZone(d, sb, z)
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < slotsPerZone(sb, width); i++ {
			e := DecodeEntry(blk[i*esz : (i+1)*esz])
			if e.Inum == common.NULLINUM {
				continue
			}
			ents = append(ents, e)
		}
	}
	return ents, nil
}

// Lookup finds the first entry whose name equals name byte for byte.
func Lookup(d disk.Disk, sb *super.Superblock, ip *inode.Inode, name []byte, width uint64) (common.Inum, bool, error) {
	ents, err := List(d, sb, ip, width)
	if err != nil {
		return common.NULLINUM, false, err
	}
	for _, e := range ents {
		if bytes.Equal(e.Name, name) {
			return e.Inum, true, nil
		}
	}
	return common.NULLINUM, false, nil
}

// Add stores (inum, name) in the first free slot of directory dinum, whose
// inode is ip. Only zones the directory already owns are searched; when they
// are all full Add fails with ErrDirectoryFull. On success the directory's
// size grows by one entry and ip is written back. If that write fails the slot
// is cleared again; if clearing fails too, the error wraps ErrInconsistent and
// the entry still names inum.
func Add(d disk.Disk, sb *super.Superblock, dinum common.Inum, ip *inode.Inode, name []byte, inum common.Inum, width uint64) error {
	ent, err := EncodeEntry(Entry{Inum: inum, Name: name}, width)
	if err != nil {
		return err
	}
	esz := common.DirEntrySize(width)
	for _, z := range ip.Zones() {
		blk, err := readZone(d, sb, z)
		if err != nil {
			return err
		}
		for i := uint64(0); i < slotsPerZone(sb, width); i++ {
			if binary.LittleEndian.Uint16(blk[i*esz:]) != 0 {
				continue
			}
			off := sb.ZoneOffset(z) + i*esz
			if err := d.WriteAt(off, ent); err != nil {
				return fmt.Errorf("write entry %q: %w", name, err)
			}
			util.DPrintf(5, "dir %d: add %v in zone %d slot %d\n", dinum, Entry{Inum: inum, Name: name}, z, i)
			ip.Size += uint32(esz)
			if err := inode.Write(d, sb.InodeTableStart(), dinum, ip); err != nil {
				ip.Size -= uint32(esz)
				if cerr := d.WriteAt(off, make([]byte, esz)); cerr != nil {
					return errors.Join(err, fmt.Errorf("entry %q left in directory %d: %v: %w",
						name, dinum, cerr, common.ErrInconsistent))
				}
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("directory %d: %w", dinum, common.ErrDirectoryFull)
}

// NewBlock lays out entries from the start of an otherwise zeroed zone of
// size bytes.
func NewBlock(entries []Entry, width uint64, size uint64) ([]byte, error) {
	esz := common.DirEntrySize(width)
	if uint64(len(entries))*esz > size {
		return nil, fmt.Errorf("%d entries do not fit in %d bytes: %w", len(entries), size, common.ErrDirectoryFull)
	}
	blk := make([]byte, size)
	for i, e := range entries {
		b, err := EncodeEntry(e, width)
		if err != nil {
			return nil, err
		}
		copy(blk[uint64(i)*esz:], b)
	}
	return blk, nil
}
