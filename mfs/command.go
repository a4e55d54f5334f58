package mfs

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mit-pdos/go-mfstool/common"
)

// Command is one parsed invocation. The set of implementations is closed:
// Ls, Cat, Touch, Mkdir and Info.
type Command interface {
	// Mutates reports whether the command may write to the image.
	Mutates() bool
	isCommand()
}

type Ls struct {
	Long bool
}

type Cat struct {
	Path string
}

type Touch struct {
	Name string
}

type Mkdir struct {
	Name string
}

type Info struct{}

func (Ls) Mutates() bool    { return false }
func (Cat) Mutates() bool   { return false }
func (Touch) Mutates() bool { return true }
func (Mkdir) Mutates() bool { return true }
func (Info) Mutates() bool  { return false }

func (Ls) isCommand()    {}
func (Cat) isCommand()   {}
func (Touch) isCommand() {}
func (Mkdir) isCommand() {}
func (Info) isCommand()  {}

func usage(format string, a ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), common.ErrUsage)
}

// oneArg returns the single operand of args[0]. An empty operand or any
// number other than one is a usage error; operands starting with '-' are
// taken literally.
func oneArg(args []string, operand string) (string, error) {
	if len(args) != 2 || args[1] == "" {
		return "", usage("usage: %s %s", args[0], operand)
	}
	return args[1], nil
}

// ParseCommand turns the words following the image path into a Command.
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, usage("missing command")
	}
	switch args[0] {
	case "ls":
		fl := pflag.NewFlagSet("ls", pflag.ContinueOnError)
		fl.SetOutput(io.Discard)
		long := fl.BoolP("long", "l", false, "show mode, links and size")
		if err := fl.Parse(args[1:]); err != nil {
			return nil, usage("ls: %v", err)
		}
		if fl.NArg() != 0 {
			return nil, usage("usage: ls [--long]")
		}
		return Ls{Long: *long}, nil
	case "cat":
		p, err := oneArg(args, "[dir/]name")
		if err != nil {
			return nil, err
		}
		return Cat{Path: p}, nil
	case "touch":
		n, err := oneArg(args, "name")
		if err != nil {
			return nil, err
		}
		return Touch{Name: n}, nil
	case "mkdir":
		n, err := oneArg(args, "name")
		if err != nil {
			return nil, err
		}
		return Mkdir{Name: n}, nil
	case "info":
		if len(args) != 1 {
			return nil, usage("usage: info")
		}
		return Info{}, nil
	}
	return nil, usage("unknown command %q", args[0])
}

// Run executes cmd, writing any output to w.
func (fs *FS) Run(cmd Command, w io.Writer) error {
	switch c := cmd.(type) {
	case Ls:
		return fs.Ls(w, c.Long)
	case Cat:
		return fs.Cat(w, c.Path)
	case Touch:
		_, err := fs.Touch(c.Name)
		return err
	case Mkdir:
		_, err := fs.Mkdir(c.Name)
		return err
	case Info:
		return fs.Info(w)
	}
	panic(fmt.Sprintf("Run: unhandled command %T", cmd))
}

// splitPath breaks a cat operand into at most two segments.
func splitPath(p string) ([]string, error) {
	segs := strings.Split(p, "/")
	if len(segs) > 2 {
		return nil, fmt.Errorf("%q: only files in the root or one directory below it: %w",
			p, common.ErrUnsupportedPath)
	}
	return segs, nil
}
