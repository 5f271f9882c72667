package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/c20h30o2/rvos/kernel/layout"
	"github.com/c20h30o2/rvos/kernel/mem"
)

// board is one entry of the board file.
type board struct {
	Description   string `yaml:"description"`
	Base          uint64 `yaml:"base"`
	Align         uint64 `yaml:"align"`
	BootStackSize uint64 `yaml:"boot_stack_size"`
}

// boardFile is the top-level document of arch/riscv64/boards.yaml.
type boardFile struct {
	Boards map[string]board `yaml:"boards"`
}

func loadBoards(path string) (*boardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bf boardFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if len(bf.Boards) == 0 {
		return nil, fmt.Errorf("%s: no boards defined", path)
	}

	return &bf, nil
}

// names returns the board names in sorted order.
func (bf *boardFile) names() []string {
	names := make([]string, 0, len(bf.Boards))
	for name := range bf.Boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// descriptor returns the validated layout descriptor for the named board.
// Zero values fall back to the defaults of the QEMU layout.
func (bf *boardFile) descriptor(name string) (layout.Descriptor, error) {
	b, ok := bf.Boards[name]
	if !ok {
		return layout.Descriptor{}, fmt.Errorf("unknown board %q (known boards: %v)", name, bf.names())
	}

	d := layout.DefaultDescriptor()
	d.Board = name
	if b.Base != 0 {
		d.Base = uintptr(b.Base)
	}
	if b.Align != 0 {
		d.Align = mem.Size(b.Align)
	}
	if b.BootStackSize != 0 {
		d.BootStackSize = mem.Size(b.BootStackSize)
	}

	if err := d.Validate(); err != nil {
		return layout.Descriptor{}, fmt.Errorf("board %q: %w", name, err)
	}

	return d, nil
}
