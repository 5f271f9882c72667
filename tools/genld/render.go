package main

import (
	"fmt"
	"io"
	"text/template"

	"github.com/c20h30o2/rvos/kernel/layout"
)

var scriptTemplate = template.Must(template.New("linker.ld").Funcs(template.FuncMap{
	"hex": func(v interface{}) string { return fmt.Sprintf("%#x", v) },
}).Parse(`/* Code generated by tools/genld for board {{.Board}}; DO NOT EDIT. */
OUTPUT_ARCH(riscv)
ENTRY(_start)
BASE_ADDRESS = {{hex .Base}};

SECTIONS
{
    . = BASE_ADDRESS;
    {{.KernelStart}} = .;
{{range .Regions}}
    . = ALIGN({{hex $.Align}});
    {{.StartSymbol}} = .;
{{- range .Placements}}
{{- if .StartSymbol}}
    {{.StartSymbol}} = .;
{{- end}}
    {{.Section}} : {
{{- range .Inputs}}
        *({{.}})
{{- end}}
{{- if .Reserve}}
        . += {{hex .Reserve}};
{{- end}}
    }
{{- if .EndSymbol}}
    {{.EndSymbol}} = .;
{{- end}}
{{- end}}
    {{.EndSymbol}} = .;
{{end}}
    . = ALIGN({{hex .Align}});
    {{.KernelEnd}} = .;

    /DISCARD/ : {
{{- range .Discard}}
        *({{.}})
{{- end}}
    }
}
`))

// scriptData is the input of scriptTemplate.
type scriptData struct {
	layout.Descriptor

	KernelStart string
	KernelEnd   string
	Regions     []layout.RegionLayout
	Discard     []string
}

// render writes the GNU ld script for d to w.
func render(w io.Writer, d layout.Descriptor) error {
	start, end := layout.KernelSymbols()
	return scriptTemplate.Execute(w, scriptData{
		Descriptor:  d,
		KernelStart: start,
		KernelEnd:   end,
		Regions:     d.RegionLayouts(),
		Discard:     layout.DiscardedSections(),
	})
}
