package addr

import (
	"github.com/mit-pdos/go-mfstool/common"
)

// Addr identifies one bit of an on-disk bitmap.
//
// Blkno is the block number containing the bit, and Off is the location of
// the bit within the block (expressed as a bit offset).
type Addr struct {
	Blkno common.Bnum
	Off   uint64 // offset in bits
}

// ByteOff is the absolute image offset of the byte holding the bit.
func (a Addr) ByteOff() uint64 {
	return uint64(a.Blkno)*common.BLOCKSIZE + a.Off/8
}

// Mask selects the bit within the byte at ByteOff.
func (a Addr) Mask() byte {
	return 1 << (a.Off % 8)
}

func MkAddr(blkno common.Bnum, off uint64) Addr {
	return Addr{Blkno: blkno, Off: off}
}

// MkBitAddr locates bit n of a bitmap that starts at block start.
func MkBitAddr(start common.Bnum, n uint64) Addr {
	bit := n % common.NBITBLOCK
	i := n / common.NBITBLOCK
	addr := MkAddr(start+common.Bnum(i), bit)
	return addr
}
