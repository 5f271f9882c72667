package main

import (
	"debug/elf"
	"fmt"
)

// image is the subset of a linked kernel ELF file that the checks inspect.
type image struct {
	class   elf.Class
	machine elf.Machine
	entry   uint64

	symbols  map[string]uint64
	sections map[string]elf.SectionHeader
}

// loadImage reads the header, the symbol table and the section headers of
// the ELF file at path.
func loadImage(path string) (*image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img := &image{
		class:    f.Class,
		machine:  f.Machine,
		entry:    f.Entry,
		symbols:  make(map[string]uint64),
		sections: make(map[string]elf.SectionHeader, len(f.Sections)),
	}

	symbols, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, sym := range symbols {
		img.symbols[sym.Name] = sym.Value
	}

	for _, section := range f.Sections {
		img.sections[section.Name] = section.SectionHeader
	}

	return img, nil
}
