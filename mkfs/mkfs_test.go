package mkfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-mfstool/alloc"
	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/dir"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/inode"
	"github.com/mit-pdos/go-mfstool/super"
)

func TestLayoutDefaults(t *testing.T) {
	sb, err := Layout(Options{})
	require.NoError(t, err)
	assert.Equal(t, &super.Superblock{
		Ninodes: 480, Nzones: 1440, ImapBlocks: 1, ZmapBlocks: 1,
		FirstDataZone: 19, MaxSize: 268966912,
		Magic: common.MAGIC14, State: common.STATEVALID,
	}, sb)
}

func TestLayoutLongNames(t *testing.T) {
	sb, err := Layout(Options{Blocks: 20000, Inodes: 9000, NameWidth: 30})
	require.NoError(t, err)
	assert.Equal(t, common.MAGIC30, sb.Magic)
	assert.Equal(t, uint16(2), sb.ImapBlocks)
	assert.Equal(t, uint16(3), sb.ZmapBlocks)
	assert.Equal(t, uint16(2+2+3+282), sb.FirstDataZone)
}

func TestLayoutRejects(t *testing.T) {
	for name, o := range map[string]Options{
		"width":     {NameWidth: 20},
		"blocks":    {Blocks: 70000},
		"inodes":    {Inodes: 70000},
		"too small": {Blocks: 10, Inodes: 1000},
		"no root":   {Blocks: 19, Inodes: 32 * 15},
	} {
		_, err := Layout(o)
		assert.ErrorIs(t, err, common.ErrUsage, name)
	}
}

func TestFormat(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(200)
	sb, err := Format(d, Options{Blocks: 200, Inodes: 64, Mtime: 1234})
	require.NoError(t, err)

	onDisk, err := super.Read(d)
	require.NoError(t, err)
	assert.Equal(sb, onDisk)
	assert.Equal(uint16(2+1+1+2), sb.FirstDataZone)

	root, err := inode.Read(d, sb.InodeTableStart(), common.ROOTINUM)
	require.NoError(t, err)
	assert.True(root.IsDir())
	assert.Equal(RootMode, root.Mode)
	assert.Equal(uint8(2), root.Nlinks)
	assert.Equal(uint32(32), root.Size)
	assert.Equal(uint32(1234), root.Mtime)
	assert.Equal([]common.Znum{common.Znum(sb.FirstDataZone)}, root.Zones())

	ents, err := dir.List(d, sb, root, 14)
	require.NoError(t, err)
	assert.Equal([]dir.Entry{
		{Inum: 1, Name: []byte(".")},
		{Inum: 1, Name: []byte("..")},
	}, ents)

	imap, err := alloc.LoadInodeMap(d, sb)
	require.NoError(t, err)
	assert.True(imap.IsSet(0))
	assert.True(imap.IsSet(1))
	assert.Equal(uint64(63), imap.NumFree())
	assert.True(imap.IsSet(65), "tail past ninodes")

	zmap, err := alloc.LoadZoneMap(d, sb)
	require.NoError(t, err)
	assert.Equal(sb.DataZones()-1, zmap.NumFree())
	assert.True(zmap.IsSet(sb.DataZones() + 1))
}

func TestFormatAllocatesAfterRoot(t *testing.T) {
	d := disk.NewMemDisk(100)
	sb, err := Format(d, Options{Blocks: 100, Inodes: 32, NameWidth: 30})
	require.NoError(t, err)

	inum, err := alloc.AllocInode(d, sb)
	require.NoError(t, err)
	assert.Equal(t, common.Inum(2), inum)

	z, err := alloc.AllocZone(d, sb)
	require.NoError(t, err)
	assert.Equal(t, common.Znum(sb.FirstDataZone)+1, z)
}

func TestFormatSmallDisk(t *testing.T) {
	d := disk.NewMemDisk(50)
	_, err := Format(d, Options{Blocks: 100})
	assert.ErrorIs(t, err, common.ErrUsage)
}

func TestFormatOverwrites(t *testing.T) {
	d := disk.NewMemDisk(64)
	garbage := make([]byte, 64*common.BLOCKSIZE)
	for i := range garbage {
		garbage[i] = 0xa5
	}
	require.NoError(t, d.WriteAt(0, garbage))

	sb, err := Format(d, Options{Blocks: 64, Inodes: 32})
	require.NoError(t, err)

	ip, err := inode.Read(d, sb.InodeTableStart(), 2)
	require.NoError(t, err)
	assert.Equal(t, &inode.Inode{}, ip, "inode table cleared")
}
