package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mit-pdos/go-mfstool/disk"
	"github.com/mit-pdos/go-mfstool/mfs"
	"github.com/mit-pdos/go-mfstool/util"
)

type rootOptions struct {
	verbose int
	dryRun  bool
	noColor bool
}

// traceLevels maps the number of -v flags to util.Debug.
var traceLevels = []uint64{0, 1, 5, 15}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func setupLogging(w io.Writer, o *rootOptions) {
	util.Debug = traceLevels[min(o.verbose, len(traceLevels)-1)]
	level := slog.LevelWarn
	if o.verbose > 0 {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    o.noColor || !isTerminal(w),
		}),
	))
}

func openImage(path string, dryRun bool) (disk.Disk, error) {
	if dryRun {
		d, err := disk.LoadGooseMemDisk(path)
		if err != nil {
			return nil, err
		}
		slog.Info("dry run: changes are discarded", "image", path)
		return d, nil
	}
	d, err := disk.OpenFileDisk(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func runCommand(path string, c mfs.Command, o *rootOptions, stdout io.Writer) (err error) {
	d, err := openImage(path, o.dryRun)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); err == nil {
			err = cerr
		}
	}()

	fs, err := mfs.Open(d, mfs.WithColor(!o.noColor && isTerminal(stdout)))
	if err != nil {
		return err
	}
	if err := fs.Run(c, stdout); err != nil {
		return err
	}
	if c.Mutates() {
		return d.Barrier()
	}
	return nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "mfstool [flags] <image> <command> [args]",
		Short: "Inspect and edit Minix v1 filesystem images",
		Long: `mfstool reads and edits a Minix v1 image directly.

Commands:
  ls [--long]        list the root directory
  cat [dir/]name     print a file from the root or one directory below it
  touch name         create an empty file in the root directory
  mkdir name         create a directory in the root directory
  info               print the superblock, layout and free counts
  mkfs [options]     create a new image (see mkfs --help)

Flags must come before the image path.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(stderr, o)
			path := args[0]
			if args[1] == "mkfs" {
				return runMkfs(path, args[2:], o, stdout)
			}
			c, err := mfs.ParseCommand(args[1:])
			if err != nil {
				return err
			}
			return runCommand(path, c, o, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.SetInterspersed(false)
	f.CountVarP(&o.verbose, "verbose", "v", "log debug traces (repeat for more detail)")
	f.BoolVar(&o.dryRun, "dry-run", false, "work on an in-memory copy and leave the image untouched")
	f.BoolVar(&o.noColor, "no-color", false, "disable coloured output")
	return cmd
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "mfstool: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
