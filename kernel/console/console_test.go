package console

import (
	"bytes"
	"testing"

	"github.com/c20h30o2/rvos/kernel/sbi"
)

func TestDeviceWrite(t *testing.T) {
	defer func() {
		putcharFn = sbi.ConsolePutchar
	}()

	var buf bytes.Buffer
	putcharFn = func(c byte) {
		buf.WriteByte(c)
	}

	specs := []string{
		"",
		"x",
		"Panicked at core.rs:10 boom\n",
		"\x1b[34m[INFO ] .text [0x80200000, 0x80202000)\x1b[0m\n",
	}

	for specIndex, spec := range specs {
		buf.Reset()

		n, err := SBI.Write([]byte(spec))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		}

		if n != len(spec) {
			t.Errorf("[spec %d] expected to write %d bytes; wrote %d", specIndex, len(spec), n)
		}

		if got := buf.String(); got != spec {
			t.Errorf("[spec %d] expected putchar sequence %q; got %q", specIndex, spec, got)
		}
	}
}

func TestDeviceWriteByte(t *testing.T) {
	defer func() {
		putcharFn = sbi.ConsolePutchar
	}()

	var got []byte
	putcharFn = func(c byte) {
		got = append(got, c)
	}

	for _, c := range []byte("ok\n") {
		if err := SBI.WriteByte(c); err != nil {
			t.Fatal(err)
		}
	}

	if exp := "ok\n"; string(got) != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}
