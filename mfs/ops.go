package mfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/mit-pdos/go-mfstool/alloc"
	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/dir"
	"github.com/mit-pdos/go-mfstool/file"
	"github.com/mit-pdos/go-mfstool/inode"
	"github.com/mit-pdos/go-mfstool/util"
)

const (
	FileMode uint16 = common.I_REGULAR | 0o700
	DirMode  uint16 = common.I_DIRECTORY | 0o700
)

// Ls writes the name of every root directory entry, one per line. With long
// set each line also carries the entry's mode, link count and size.
func (fs *FS) Ls(w io.Writer, long bool) error {
	ents, err := dir.List(fs.d, fs.sb, fs.root, fs.width)
	if err != nil {
		return err
	}
	dirColor := color.New(color.FgBlue, color.Bold)
	if fs.color {
		dirColor.EnableColor()
	} else {
		dirColor.DisableColor()
	}
	for _, e := range ents {
		if !long {
			if _, err := w.Write(append(e.Name, '\n')); err != nil {
				return err
			}
			continue
		}
		ip, err := fs.readInode(e.Inum)
		if err != nil {
			return err
		}
		name := string(e.Name)
		if ip.IsDir() {
			name = dirColor.Sprint(name)
		}
		if _, err := fmt.Fprintf(w, "%s %3d %8d %s\n", ip.ModeString(), ip.Nlinks, ip.Size, name); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FS) lookup(dp *inode.Inode, name string) (common.Inum, error) {
	inum, ok, err := dir.Lookup(fs.d, fs.sb, dp, []byte(name), fs.width)
	if err != nil {
		return common.NULLINUM, err
	}
	if !ok {
		return common.NULLINUM, fmt.Errorf("%q: %w", name, common.ErrNotFound)
	}
	return inum, nil
}

// resolve walks a name or dir/name path from the root.
func (fs *FS) resolve(p string) (*inode.Inode, error) {
	segs, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	dp := fs.root
	for i, seg := range segs {
		inum, err := fs.lookup(dp, seg)
		if err != nil {
			return nil, err
		}
		ip, err := fs.readInode(inum)
		if err != nil {
			return nil, err
		}
		if i < len(segs)-1 && !ip.IsDir() {
			return nil, fmt.Errorf("%q is not a directory: %w", seg, common.ErrNotFound)
		}
		dp = ip
	}
	return dp, nil
}

// Cat writes the raw content of the file at p.
func (fs *FS) Cat(w io.Writer, p string) error {
	ip, err := fs.resolve(p)
	if err != nil {
		return err
	}
	data, err := file.Read(fs.d, fs.sb, ip)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// checkNew validates a name for a new root entry.
func (fs *FS) checkNew(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("invalid name %q: %w", name, common.ErrUsage)
	}
	if uint64(len(name)) > fs.width {
		return fmt.Errorf("%q is longer than %d bytes: %w", name, fs.width, common.ErrNameTooLong)
	}
	_, ok, err := dir.Lookup(fs.d, fs.sb, fs.root, []byte(name), fs.width)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%q: %w", name, common.ErrAlreadyExists)
	}
	return nil
}

// release undoes the allocations of a create that failed with cause. The
// inode record is cleared and its bit freed, then the zone bit if any. If
// any of that fails, the returned error joins cause with the failures.
// Nothing is released when cause reports an entry left on disk.
func (fs *FS) release(cause error, inum common.Inum, z common.Znum) error {
	if errors.Is(cause, common.ErrInconsistent) {
		// an entry still names inum, so it must stay allocated
		slog.Error("create left a directory entry behind", "inode", inum, "zone", z, "err", cause)
		return cause
	}
	var errs []error
	if inum != common.NULLINUM {
		if err := fs.writeInode(inum, &inode.Inode{}); err != nil {
			errs = append(errs, err)
		}
		if err := alloc.FreeInode(fs.d, fs.sb, inum); err != nil {
			errs = append(errs, err)
		}
	}
	if z != common.NULLZNUM {
		if err := alloc.FreeZone(fs.d, fs.sb, z); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		slog.Error("could not release allocation", "inode", inum, "zone", z, "err", errors.Join(errs...))
		return errors.Join(append([]error{cause}, errs...)...)
	}
	slog.Warn("released allocation after failed create", "inode", inum, "zone", z, "cause", cause)
	return cause
}

// Touch creates an empty regular file in the root directory and returns its
// inode number.
func (fs *FS) Touch(name string) (common.Inum, error) {
	if err := fs.checkNew(name); err != nil {
		return common.NULLINUM, err
	}
	inum, err := alloc.AllocInode(fs.d, fs.sb)
	if err != nil {
		return common.NULLINUM, err
	}
	ip := inode.New(FileMode, 1, fs.mtime())
	if err := fs.writeInode(inum, ip); err != nil {
		return common.NULLINUM, fs.release(err, inum, common.NULLZNUM)
	}
	if err := dir.Add(fs.d, fs.sb, common.ROOTINUM, fs.root, []byte(name), inum, fs.width); err != nil {
		return common.NULLINUM, fs.release(err, inum, common.NULLZNUM)
	}
	util.DPrintf(1, "touch %q: inode %d\n", name, inum)
	return inum, nil
}

// Mkdir creates a directory in the root holding "." and "..", and returns
// its inode number. The root gains one link.
func (fs *FS) Mkdir(name string) (common.Inum, error) {
	if err := fs.checkNew(name); err != nil {
		return common.NULLINUM, err
	}
	if fs.root.Nlinks == 0xff {
		return common.NULLINUM, fmt.Errorf("root link count saturated at %d: %w", fs.root.Nlinks, common.ErrTooManyLinks)
	}
	inum, err := alloc.AllocInode(fs.d, fs.sb)
	if err != nil {
		return common.NULLINUM, err
	}
	z, err := alloc.AllocZone(fs.d, fs.sb)
	if err != nil {
		return common.NULLINUM, fs.release(err, inum, common.NULLZNUM)
	}

	blk, err := dir.NewBlock([]dir.Entry{
		{Inum: inum, Name: []byte(".")},
		{Inum: common.ROOTINUM, Name: []byte("..")},
	}, fs.width, fs.sb.ZoneSize())
	if err != nil {
		return common.NULLINUM, fs.release(err, inum, z)
	}
	if err := fs.d.WriteAt(fs.sb.ZoneOffset(z), blk); err != nil {
		return common.NULLINUM, fs.release(fmt.Errorf("write zone %d: %w", z, err), inum, z)
	}

	ip := inode.New(DirMode, 2, fs.mtime())
	ip.Size = uint32(2 * common.DirEntrySize(fs.width))
	ip.Zone[0] = uint16(z)
	if err := fs.writeInode(inum, ip); err != nil {
		return common.NULLINUM, fs.release(err, inum, z)
	}

	// dir.Add writes the root inode, carrying the new link with it.
	fs.root.Nlinks++
	if err := dir.Add(fs.d, fs.sb, common.ROOTINUM, fs.root, []byte(name), inum, fs.width); err != nil {
		fs.root.Nlinks--
		return common.NULLINUM, fs.release(err, inum, z)
	}
	util.DPrintf(1, "mkdir %q: inode %d zone %d\n", name, inum, z)
	return inum, nil
}
