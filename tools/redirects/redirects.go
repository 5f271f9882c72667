// Command redirects wires the //go:redirect-from annotations of the kernel
// sources into a linked kernel image.
//
// Usage:
//
//	redirects count
//	redirects populate-table kernel.elf
//
// The count command prints the number of annotated functions so the build
// can size the redirect table. The populate-table command resolves the
// source and target addresses of every redirect and writes them as
// little-endian (src, dst) uint64 pairs into the .goredirectstbl section
// of the image. The runtime bring-up code patches the source functions with
// jumps to their targets.
package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"k8s.io/klog/v2"
)

const (
	redirectDirective = "//go:redirect-from"
	redirectSection   = ".goredirectstbl"
	redirectEntrySize = 16
)

type redirect struct {
	src string
	dst string

	srcVMA uint64
	dstVMA uint64
}

func exit(err error) {
	klog.Errorf("[redirects] error: %v", err)
	klog.Flush()
	os.Exit(1)
}

// modulePath returns the module path declared by the go.mod file in root.
func modulePath(root string) (string, error) {
	goMod := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(goMod)
	if err != nil {
		return "", err
	}

	modPath := modfile.ModulePath(data)
	if modPath == "" {
		return "", fmt.Errorf("%s: missing module directive", goMod)
	}

	return modPath, nil
}

func collectGoFiles(root string) ([]string, error) {
	var goFiles []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		if filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
			goFiles = append(goFiles, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return goFiles, nil
}

// findRedirects parses goFiles (paths relative to the module root) and
// returns a redirect for every function carrying a redirect directive.
func findRedirects(modPath string, goFiles []string) ([]*redirect, error) {
	var redirects []*redirect

	for _, goFile := range goFiles {
		fset := token.NewFileSet()

		f, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}

		pkgPath := path.Join(modPath, filepath.ToSlash(filepath.Dir(goFile)))
		for _, decl := range f.Decls {
			fnDecl, ok := decl.(*ast.FuncDecl)
			if !ok || fnDecl.Doc == nil || fnDecl.Recv != nil {
				continue
			}

			for _, comment := range fnDecl.Doc.List {
				if !strings.HasPrefix(comment.Text, redirectDirective) {
					continue
				}

				// build qualified name to fn
				fqName := pkgPath + "." + fnDecl.Name.Name

				fields := strings.Fields(comment.Text)
				if len(fields) != 2 || fields[0] != redirectDirective {
					return nil, fmt.Errorf("%s: malformed go:redirect-from syntax for %q", fset.Position(comment.Pos()), fqName)
				}

				redirects = append(redirects, &redirect{
					src: fields[1],
					dst: fqName,
				})
			}
		}
	}

	return redirects, nil
}

func elfResolveRedirectSymbols(redirects []*redirect, f *elf.File) error {
	symbols, err := f.Symbols()
	if err != nil {
		return err
	}

	vma := make(map[string]uint64, len(symbols))
	for _, symbol := range symbols {
		vma[symbol.Name] = symbol.Value
	}

	for _, redirect := range redirects {
		redirect.srcVMA, redirect.dstVMA = vma[redirect.src], vma[redirect.dst]

		switch {
		case redirect.srcVMA == 0:
			return fmt.Errorf("could not locate address of %q", redirect.src)
		case redirect.dstVMA == 0:
			return fmt.Errorf("could not locate address of %q", redirect.dst)
		}
	}

	return nil
}

// encodeTable serializes redirects into a table of the given capacity in
// bytes. Unused entries stay zero; the first zero entry ends the table.
func encodeTable(redirects []*redirect, capacity uint64) ([]byte, error) {
	if uint64(len(redirects))*redirectEntrySize > capacity {
		return nil, fmt.Errorf("%s holds %d entries; need %d", redirectSection, capacity/redirectEntrySize, len(redirects))
	}

	var buf bytes.Buffer
	for _, redirect := range redirects {
		binary.Write(&buf, binary.LittleEndian, redirect.srcVMA)
		binary.Write(&buf, binary.LittleEndian, redirect.dstVMA)
	}
	buf.Write(make([]byte, capacity-uint64(buf.Len())))

	return buf.Bytes(), nil
}

func populateTable(redirects []*redirect, imgFile string) error {
	f, err := elf.Open(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	section := f.Section(redirectSection)
	if section == nil {
		return fmt.Errorf("%s: missing %s section", imgFile, redirectSection)
	}

	if err = elfResolveRedirectSymbols(redirects, f); err != nil {
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	table, err := encodeTable(redirects, section.Size)
	if err != nil {
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	// Open kernel image file and write at the table offset
	out, err := os.OpenFile(imgFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = out.WriteAt(table, int64(section.Offset)); err != nil {
		return err
	}

	for _, redirect := range redirects {
		klog.V(1).Infof("[redirects] %s (%#x) -> %s (%#x)", redirect.src, redirect.srcVMA, redirect.dst, redirect.dstVMA)
	}

	return out.Close()
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if matches, _ := filepath.Glob("kernel/"); len(matches) != 1 {
		exit(errors.New("this tool must be run from the module root folder"))
	}

	if len(flag.Args()) == 0 {
		exit(errors.New("missing command"))
	}

	cmd := flag.Arg(0)
	var imgFile string
	switch cmd {
	case "count":
	case "populate-table":
		if len(flag.Args()) != 2 {
			exit(errors.New("populate-table requires the path to the kernel image as an argument"))
		}
		imgFile = flag.Arg(1)
	default:
		exit(fmt.Errorf("unknown command %q", cmd))
	}

	modPath, err := modulePath(".")
	if err != nil {
		exit(err)
	}

	goFiles, err := collectGoFiles("kernel")
	if err != nil {
		exit(err)
	}

	redirects, err := findRedirects(modPath, goFiles)
	if err != nil {
		exit(err)
	}

	if cmd == "count" {
		fmt.Printf("%d", len(redirects))
		return
	}

	if err = populateTable(redirects, imgFile); err != nil {
		exit(err)
	}
}
