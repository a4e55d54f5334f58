// Package file reads regular file content through an inode's direct zones.
package file

import (
	"fmt"

	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/inode"
	"github.com/mit-pdos/go-mfstool/super"
	"github.com/mit-pdos/go-mfstool/util"
)

// Read returns the first ip.Size bytes of the concatenation of ip's nonzero
// zones. If the zones hold fewer bytes than Size, only what they hold is
// returned.
func Read(d disk.Disk, sb *super.Superblock, ip *inode.Inode) ([]byte, error) {
	size := uint64(ip.Size)
	data := make([]byte, 0, size)
	for _, z := range ip.Zones() {
		if uint64(len(data)) >= size {
			break
		}
		n := util.Min(sb.ZoneSize(), size-uint64(len(data)))
		b, err := d.ReadAt(sb.ZoneOffset(z), n)
		if err != nil {
			return nil, fmt.Errorf("read zone %d: %w", z, err)
		}
		data = append(data, b...)
	}
	return data, nil
}
