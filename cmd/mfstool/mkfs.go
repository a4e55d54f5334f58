package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/mit-pdos/go-mfstool/common"
	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/mkfs"
)

func parseMkfs(args []string, stdout io.Writer) (mkfs.Options, error) {
	var opts mkfs.Options
	fl := pflag.NewFlagSet("mkfs", pflag.ContinueOnError)
	fl.SetOutput(io.Discard)
	fl.Uint64Var(&opts.Blocks, "blocks", mkfs.DefaultBlocks, "image size in 1 KiB blocks")
	fl.Uint64Var(&opts.Inodes, "inodes", 0, "number of inodes (default blocks/3)")
	fl.Uint64Var(&opts.NameWidth, "namelen", common.SHORTNAME, "maximum file name length, 14 or 30")
	if err := fl.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(stdout, "Usage: mfstool <image> mkfs [options]\n%s", fl.FlagUsages())
			return opts, err
		}
		return opts, fmt.Errorf("mkfs: %v: %w", err, common.ErrUsage)
	}
	if fl.NArg() != 0 {
		return opts, fmt.Errorf("mkfs takes no operands: %w", common.ErrUsage)
	}
	return opts, nil
}

func runMkfs(path string, args []string, o *rootOptions, stdout io.Writer) (err error) {
	opts, err := parseMkfs(args, stdout)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	opts.Mtime = uint32(time.Now().Unix())
	sb, err := mkfs.Layout(opts)
	if err != nil {
		return err
	}

	var d disk.Disk
	if o.dryRun {
		d = disk.NewMemDisk(uint64(sb.Nzones))
	} else {
		fd, err := disk.NewFileDisk(path, uint64(sb.Nzones))
		if err != nil {
			return err
		}
		d = fd
	}
	defer func() {
		if cerr := d.Close(); err == nil {
			err = cerr
		}
	}()

	sb, err = mkfs.Format(d, opts)
	if err != nil {
		return err
	}
	if err := d.Barrier(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%d inodes\n%d blocks\nFirstdatazone=%d\nZonesize=%d\nMaxsize=%d\n",
		sb.Ninodes, sb.Nzones, sb.FirstDataZone, sb.ZoneSize(), sb.MaxSize)
	return err
}
