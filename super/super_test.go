package super

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
)

// header of a 1440-block image made by mkfs.minix -n 14
var floppy = []byte{
	0xe0, 0x01, // ninodes 480
	0xa0, 0x05, // nzones 1440
	0x01, 0x00, // imap_blocks
	0x01, 0x00, // zmap_blocks
	0x13, 0x00, // firstdatazone 19
	0x00, 0x00, // log_zone_size
	0x00, 0x1c, 0x08, 0x10, // max_size 268966912
	0x7f, 0x13, // magic
	0x01, 0x00, // state
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)
	sb, err := Decode(floppy)
	require.NoError(t, err)
	assert.Equal(uint16(480), sb.Ninodes)
	assert.Equal(uint16(1440), sb.Nzones)
	assert.Equal(uint16(1), sb.ImapBlocks)
	assert.Equal(uint16(1), sb.ZmapBlocks)
	assert.Equal(uint16(19), sb.FirstDataZone)
	assert.Equal(uint16(0), sb.LogZoneSize)
	assert.Equal(uint32(268966912), sb.MaxSize)
	assert.Equal(common.MAGIC14, sb.Magic)
	assert.Equal(common.STATEVALID, sb.State)

	assert.Equal(floppy, sb.Encode())
}

func TestDecodeShort(t *testing.T) {
	_, err := Decode(floppy[:19])
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	blk := make([]byte, common.BLOCKSIZE)
	copy(blk, floppy)
	blk[500] = 0xff
	sb, err := Decode(blk)
	require.NoError(t, err)
	assert.Equal(t, floppy, sb.Encode())
}

func TestGeometry(t *testing.T) {
	assert := assert.New(t)
	sb, err := Decode(floppy)
	require.NoError(t, err)

	assert.Equal(common.Bnum(2), sb.InodeMapStart())
	assert.Equal(common.Bnum(3), sb.ZoneMapStart())
	assert.Equal(4*common.BLOCKSIZE, sb.InodeTableStart())
	assert.Equal(uint64(15), sb.InodeTableBlocks())
	assert.Equal(common.BLOCKSIZE, sb.ZoneSize())
	assert.Equal(19*common.BLOCKSIZE, sb.ZoneOffset(19))
	assert.Equal(uint64(1421), sb.DataZones())

	sb.LogZoneSize = 1
	assert.Equal(2*common.BLOCKSIZE, sb.ZoneSize())
	assert.Equal(38*common.BLOCKSIZE, sb.ZoneOffset(19))
}

func TestNameWidth(t *testing.T) {
	sb := &Superblock{Magic: common.MAGIC14}
	w, err := sb.NameWidth()
	require.NoError(t, err)
	assert.Equal(t, uint64(14), w)

	sb.Magic = common.MAGIC30
	w, err = sb.NameWidth()
	require.NoError(t, err)
	assert.Equal(t, uint64(30), w)

	sb.Magic = 0xef53
	_, err = sb.NameWidth()
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestReadWrite(t *testing.T) {
	d := disk.NewMemDisk(4)
	sb, err := Decode(floppy)
	require.NoError(t, err)
	require.NoError(t, sb.Write(d))

	raw, err := d.ReadAt(common.BLOCKSIZE, common.SUPERSZ)
	require.NoError(t, err)
	assert.Equal(t, floppy, raw)

	got, err := Read(d)
	require.NoError(t, err)
	assert.Equal(t, sb, got)
}

func TestReadTruncatedImage(t *testing.T) {
	d := disk.NewMemDiskFrom(make([]byte, 1500))
	_, err := Read(d)
	assert.Error(t, err)
}
