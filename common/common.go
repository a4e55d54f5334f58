package common

const (
	BLOCKSIZE uint64 = 1024
	NBITBLOCK uint64 = BLOCKSIZE * 8

	SUPERBLK   uint64 = 1  // block holding the superblock
	IMAPSTART  uint64 = 2  // first block of the inode bitmap
	SUPERSZ    uint64 = 20 // on-disk bytes of the superblock we interpret
	INODESZ    uint64 = 32 // on-disk size
	INODEBLK   uint64 = BLOCKSIZE / INODESZ
	NZONES     uint64 = 9 // zone slots per inode, all direct
	INUMSZ     uint64 = 2 // inode number in a directory entry
	SHORTNAME  uint64 = 14
	LONGNAME   uint64 = 30
	MAGIC14    uint16 = 0x137F
	MAGIC30    uint16 = 0x138F
	STATEVALID uint16 = 1
)

// Mode bits as stored in the inode.
const (
	I_TYPE      uint16 = 0o170000
	I_REGULAR   uint16 = 0o100000
	I_DIRECTORY uint16 = 0o040000
	I_CHAR      uint16 = 0o020000
	I_BLOCK     uint16 = 0o060000
	I_FIFO      uint16 = 0o010000
	I_SYMLINK   uint16 = 0o120000
	I_SETUID    uint16 = 0o4000
	I_SETGID    uint16 = 0o2000
	I_STICKY    uint16 = 0o1000
	RWX_MODES   uint16 = 0o777
)

type Inum uint64
type Znum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	ROOTINUM Inum = 1
	NULLZNUM Znum = 0
	NULLBNUM Bnum = 0
)

// DirEntrySize is the width of one directory slot for the given name width.
func DirEntrySize(nameWidth uint64) uint64 {
	return INUMSZ + nameWidth
}
