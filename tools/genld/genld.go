// Command genld renders the kernel linker script from the layout descriptor
// of a board.
//
// Usage:
//
//	genld [-board qemu] [-boards arch/riscv64/boards.yaml] [-o arch/riscv64/script/linker.ld]
package main

import (
	"bytes"
	"flag"
	"os"

	"k8s.io/klog/v2"
)

func exit(err error) {
	klog.Errorf("[genld] error: %v", err)
	klog.Flush()
	os.Exit(1)
}

func main() {
	var (
		boardName = flag.String("board", "qemu", "board to generate the linker script for")
		boardsYML = flag.String("boards", "arch/riscv64/boards.yaml", "path to the board file")
		outFile   = flag.String("o", "arch/riscv64/script/linker.ld", `output file or "-" for stdout`)
	)

	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	boards, err := loadBoards(*boardsYML)
	if err != nil {
		exit(err)
	}

	d, err := boards.descriptor(*boardName)
	if err != nil {
		exit(err)
	}

	var buf bytes.Buffer
	if err = render(&buf, d); err != nil {
		exit(err)
	}

	if *outFile == "-" {
		_, err = os.Stdout.Write(buf.Bytes())
	} else {
		err = os.WriteFile(*outFile, buf.Bytes(), 0o644)
	}
	if err != nil {
		exit(err)
	}

	klog.V(1).Infof("[genld] wrote layout for board %q (base %#x) to %s", d.Board, d.Base, *outFile)
}
