// Package inode encodes and decodes the 32-byte Minix v1 inode record and
// locates it in the inode table.
package inode

import (
	"encoding/binary"
	"fmt"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/util"
)

// Inode is the in-memory form of one inode record. Zone holds direct zone
// numbers only; 0 marks an unused slot.
type Inode struct {
	Mode   uint16
	Uid    uint16
	Size   uint32
	Mtime  uint32
	Gid    uint8
	Nlinks uint8
	Zone   [common.NZONES]uint16
}

// New returns an inode with no zones owned by uid/gid 0.
func New(mode uint16, nlinks uint8, mtime uint32) *Inode {
	return &Inode{Mode: mode, Nlinks: nlinks, Mtime: mtime}
}

// Decode unpacks a record. Field ranges are not checked.
func Decode(b []byte) (*Inode, error) {
	if uint64(len(b)) != common.INODESZ {
		return nil, fmt.Errorf("inode record is %d bytes, want %d: %w",
			len(b), common.INODESZ, common.ErrFormat)
	}
	le := binary.LittleEndian
	ip := &Inode{
		Mode:   le.Uint16(b[0:]),
		Uid:    le.Uint16(b[2:]),
		Size:   le.Uint32(b[4:]),
		Mtime:  le.Uint32(b[8:]),
		Gid:    b[12],
		Nlinks: b[13],
	}
	for i := range ip.Zone {
		ip.Zone[i] = le.Uint16(b[14+2*i:])
	}
	return ip, nil
}

// Encode packs the inode into its on-disk form; it is the exact inverse of
// Decode.
func (ip *Inode) Encode() []byte {
	b := make([]byte, common.INODESZ)
	le := binary.LittleEndian
	le.PutUint16(b[0:], ip.Mode)
	le.PutUint16(b[2:], ip.Uid)
	le.PutUint32(b[4:], ip.Size)
	le.PutUint32(b[8:], ip.Mtime)
	b[12] = ip.Gid
	b[13] = ip.Nlinks
	for i, z := range ip.Zone {
		le.PutUint16(b[14+2*i:], z)
	}
	return b
}

// Offset is the byte position of inode inum in a table starting at
// tableStart. Inode numbers start at 1.
func Offset(tableStart uint64, inum common.Inum) uint64 {
	if inum == common.NULLINUM {
		panic("inode.Offset: inode 0")
	}
	return tableStart + (uint64(inum)-1)*common.INODESZ
}

// Read loads inode inum.
func Read(d disk.Disk, tableStart uint64, inum common.Inum) (*Inode, error) {
	b, err := d.ReadAt(Offset(tableStart, inum), common.INODESZ)
	if err != nil {
		return nil, fmt.Errorf("read inode %d: %w", inum, err)
	}
	util.DPrintf(15, "read inode %d: %v\n", inum, b)
	return Decode(b)
}

// Write stores ip as inode inum.
func Write(d disk.Disk, tableStart uint64, inum common.Inum, ip *Inode) error {
	if err := d.WriteAt(Offset(tableStart, inum), ip.Encode()); err != nil {
		return fmt.Errorf("write inode %d: %w", inum, err)
	}
	util.DPrintf(10, "write inode %d: mode %o size %d nlinks %d zones %v\n",
		inum, ip.Mode, ip.Size, ip.Nlinks, ip.Zone)
	return nil
}

func (ip *Inode) IsDir() bool {
	return ip.Mode&common.I_TYPE == common.I_DIRECTORY
}

func (ip *Inode) IsRegular() bool {
	return ip.Mode&common.I_TYPE == common.I_REGULAR
}

// Zones returns the nonzero zone numbers in slot order.
func (ip *Inode) Zones() []common.Znum {
	var zs []common.Znum
	for _, z := range ip.Zone {
		if z != 0 {
			zs = append(zs, common.Znum(z))
		}
	}
	return zs
}

var l_ifmt = []byte("?pc?d?b?-?l?s???")

// ModeString renders the mode the way ls -l does.
func (ip *Inode) ModeString() string {
	rwx := []byte("----------")
	rwx[0] = l_ifmt[(ip.Mode>>12)&0xF]

	mode := ip.Mode & common.RWX_MODES
	for i := 0; i < 3; i++ {
		bits := mode >> (6 - 3*uint(i))
		if bits&4 != 0 {
			rwx[1+3*i] = 'r'
		}
		if bits&2 != 0 {
			rwx[2+3*i] = 'w'
		}
		if bits&1 != 0 {
			rwx[3+3*i] = 'x'
		}
	}

	if ip.Mode&common.I_SETUID != 0 {
		rwx[3] = setBit(rwx[3], 's')
	}
	if ip.Mode&common.I_SETGID != 0 {
		rwx[6] = setBit(rwx[6], 's')
	}
	if ip.Mode&common.I_STICKY != 0 {
		rwx[9] = setBit(rwx[9], 't')
	}
	return string(rwx)
}

// setBit shows a special bit over an execute slot: lower case when the slot
// is executable, upper case otherwise.
func setBit(cur byte, c byte) byte {
	if cur == 'x' {
		return c
	}
	return c - 'a' + 'A'
}
