// Package mfs runs single commands against a Minix v1 image.
//
// An FS is opened once per invocation. The superblock and the root inode are
// read at Open; bitmaps and every other inode are re-read by the operation
// that needs them and written back before it returns.
package mfs

import (
	"fmt"
	"time"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/inode"
	"github.com/mit-pdos/go-mfstool/super"
	"github.com/mit-pdos/go-mfstool/util"
)

type FS struct {
	d      disk.Disk
	sb     *super.Superblock
	width  uint64 // directory entry name width
	itable uint64 // byte offset of the inode table
	root   *inode.Inode

	now   func() time.Time
	color bool
}

type Option func(*FS)

// WithClock replaces time.Now as the source of new inode timestamps.
func WithClock(now func() time.Time) Option {
	return func(fs *FS) { fs.now = now }
}

// WithColor enables ANSI colour in ls --long output.
func WithColor(on bool) Option {
	return func(fs *FS) { fs.color = on }
}

func Open(d disk.Disk, opts ...Option) (*FS, error) {
	sb, err := super.Read(d)
	if err != nil {
		return nil, err
	}
	width, err := sb.NameWidth()
	if err != nil {
		return nil, err
	}
	root, err := inode.Read(d, sb.InodeTableStart(), common.ROOTINUM)
	if err != nil {
		return nil, fmt.Errorf("read root inode: %w", err)
	}
	fs := &FS{
		d:      d,
		sb:     sb,
		width:  width,
		itable: sb.InodeTableStart(),
		root:   root,
		now:    time.Now,
	}
	for _, o := range opts {
		o(fs)
	}
	util.DPrintf(1, "Open: %v name width %d\n", sb, width)
	return fs, nil
}

func (fs *FS) Super() *super.Superblock {
	return fs.sb
}

func (fs *FS) NameWidth() uint64 {
	return fs.width
}

// Root returns the in-memory root inode; mutating commands keep it in sync
// with the image.
func (fs *FS) Root() *inode.Inode {
	return fs.root
}

func (fs *FS) readInode(inum common.Inum) (*inode.Inode, error) {
	return inode.Read(fs.d, fs.itable, inum)
}

func (fs *FS) writeInode(inum common.Inum, ip *inode.Inode) error {
	return inode.Write(fs.d, fs.itable, inum, ip)
}

func (fs *FS) mtime() uint32 {
	return uint32(fs.now().Unix())
}
