package mfs

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mit-pdos/go-mfstool/alloc"
	"github.com/mit-pdos/go-mfstool/super"
)

type geometry struct {
	InodeMapStart    uint64 `yaml:"inode_map_block"`
	ZoneMapStart     uint64 `yaml:"zone_map_block"`
	InodeTableStart  uint64 `yaml:"inode_table_offset"`
	InodeTableBlocks uint64 `yaml:"inode_table_blocks"`
	ZoneSize         uint64 `yaml:"zone_size"`
	DataZones        uint64 `yaml:"data_zones"`
	NameWidth        uint64 `yaml:"name_width"`
}

type counts struct {
	FreeInodes uint64 `yaml:"free_inodes"`
	FreeZones  uint64 `yaml:"free_zones"`
}

// Report is the document printed by the info command.
type Report struct {
	Superblock *super.Superblock `yaml:"superblock"`
	Geometry   geometry          `yaml:"geometry"`
	Usage      counts            `yaml:"usage"`
}

// Stat gathers the superblock, derived layout and free counts.
func (fs *FS) Stat() (*Report, error) {
	imap, err := alloc.LoadInodeMap(fs.d, fs.sb)
	if err != nil {
		return nil, err
	}
	zmap, err := alloc.LoadZoneMap(fs.d, fs.sb)
	if err != nil {
		return nil, err
	}
	return &Report{
		Superblock: fs.sb,
		Geometry: geometry{
			InodeMapStart:    fs.sb.InodeMapStart(),
			ZoneMapStart:     fs.sb.ZoneMapStart(),
			InodeTableStart:  fs.sb.InodeTableStart(),
			InodeTableBlocks: fs.sb.InodeTableBlocks(),
			ZoneSize:         fs.sb.ZoneSize(),
			DataZones:        fs.sb.DataZones(),
			NameWidth:        fs.width,
		},
		Usage: counts{
			FreeInodes: imap.NumFree(),
			FreeZones:  zmap.NumFree(),
		},
	}, nil
}

// Info writes Stat as YAML.
func (fs *FS) Info(w io.Writer) error {
	r, err := fs.Stat()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode info: %w", err)
	}
	return enc.Close()
}
