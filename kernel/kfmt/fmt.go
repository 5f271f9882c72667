// Package kfmt implements allocation-free formatted output for the kernel.
//
// Nothing in this package may allocate: the Go allocator is never set up on
// this kernel. Output is produced one resolved byte at a time and handed to
// the active output sink (the SBI console once kmain attaches it).
package kfmt

import (
	"io"
	"unsafe"

	"github.com/c20h30o2/rvos/kernel"
)

// maxBufSize defines the buffer size for formatting numbers. It fits a
// 64-bit value in base 2 plus sign and prefix; it also caps the width.
const maxBufSize = 80

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")
	nilValue        = []byte("<nil>")
	newline         = []byte("\n")

	numFmtBuf [maxBufSize]byte

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte [1]byte

	// earlyPrintBuffer stores Printf output produced before an output
	// sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		earlyPrintBuffer.WriteTo(w)
	}
}

// Reset detaches the output sink, empties the early print buffer and turns
// logging off. It makes the package usable when its state lives in memory
// that was never cleared, such as a .bss section that bring-up failed to
// zero.
func Reset() {
	outputSink = nil
	earlyPrintBuffer.rIndex, earlyPrintBuffer.wIndex = 0, 0
	logLevel = LevelOff
	logWriter = PrefixWriter{}
}

// fmtSpec describes a single resolved placeholder.
type fmtSpec struct {
	// verb is one of 'v', 'd', 'x', 'o', 'b', 's', 't' or 0 for an
	// unparsable placeholder.
	verb byte

	width   int
	zeroPad bool

	// alt requests a 0x/0o/0b prefix for integers.
	alt bool

	// padAfter pads strings on the right instead of the left. Integers
	// are always right-aligned.
	padAfter bool
}

// Printf provides a minimal Printf implementation that can be safely used
// before the Go runtime has been properly initialized. This implementation
// does not allocate any memory.
//
// Two placeholder syntaxes are understood. Brace placeholders:
//
//	{}       the default representation of the argument
//	{:x}     base 16 (also :o base 8, :b base 2, :d base 10)
//	{:#x}    base 16 with a 0x prefix (0o and 0b for :#o and :#b)
//	{:8}     an 8 byte wide field; strings are left-aligned, integers right-aligned
//	{:#010x} zero padded to 10 bytes, prefix included
//	{{ }}    literal braces
//
// and a subset of the fmt verbs:
//
//	%s the uninterpreted bytes of the string or byte slice
//	%d %o %x %b integers in base 10, 8, 16 and 2
//	%t "true" or "false"
//	%v the default representation
//	%% a literal percent sign
//
// A '%' that is not followed by a known verb is printed as-is, so log text
// such as "50% done" needs no escaping.
//
// Width is specified by an optional decimal number immediately preceding the
// verb. Integers formatted with %o, %x or %b are padded with zeroes, all other
// values with spaces. The default representation of integers is base 10, of
// strings, byte slices and *kernel.Error values their bytes and message.
//
// Printf supports all built-in string and integer types but assumes that the
// Go itables have not been initialized yet so it will not check whether its
// arguments support io.Stringer or error if they don't match one of the
// supported types.
//
// Printf does not append a line terminator; see Println.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Println behaves like Printf and then emits a single '\n'.
func Println(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
	doWrite(outputSink, newline)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextCh               byte
		nextArgIndex         int
		blockStart, blockEnd int
		specEnd              int
		spec                 fmtSpec
		fmtLen               = len(format)
	)

	for blockEnd < fmtLen {
		nextCh = format[blockEnd]
		if nextCh != '%' && nextCh != '{' && nextCh != '}' {
			blockEnd++
			continue
		}

		writeString(w, format, blockStart, blockEnd)

		switch nextCh {
		case '}':
			// "}}" is an escaped brace; a lone '}' is printed as-is.
			writeByte(w, '}')
			blockEnd++
			if blockEnd < fmtLen && format[blockEnd] == '}' {
				blockEnd++
			}
		case '{':
			if blockEnd+1 < fmtLen && format[blockEnd+1] == '{' {
				writeByte(w, '{')
				blockEnd += 2
				break
			}

			blockEnd, spec = parseBraceSpec(format, blockEnd+1)
			nextArgIndex = fmtArg(w, spec, args, nextArgIndex)
		case '%':
			if blockEnd+1 < fmtLen && format[blockEnd+1] == '%' {
				writeByte(w, '%')
				blockEnd += 2
				break
			}

			specEnd, spec = parsePercentSpec(format, blockEnd+1)
			if spec.verb == 0 {
				// Not a verb; the '%' is ordinary text.
				writeByte(w, '%')
				blockEnd++
				break
			}

			blockEnd = specEnd
			nextArgIndex = fmtArg(w, spec, args, nextArgIndex)
		}

		blockStart = blockEnd
	}

	writeString(w, format, blockStart, fmtLen)

	// Check for unused args
	for ; nextArgIndex < len(args); nextArgIndex++ {
		doWrite(w, errExtraArg)
	}
}

// parseBraceSpec parses the placeholder that starts right after a '{' at
// index start. It returns the index of the first byte after the placeholder.
func parseBraceSpec(format string, start int) (int, fmtSpec) {
	var (
		spec   = fmtSpec{verb: 'v', padAfter: true}
		index  = start
		fmtLen = len(format)
	)

	if index < fmtLen && format[index] == ':' {
		index++

		if index < fmtLen && format[index] == '#' {
			spec.alt = true
			index++
		}

		if index < fmtLen && format[index] == '0' {
			spec.zeroPad = true
			index++
		}

		for ; index < fmtLen && format[index] >= '0' && format[index] <= '9'; index++ {
			spec.width = (spec.width * 10) + int(format[index]-'0')
		}

		if index < fmtLen {
			switch format[index] {
			case 'x', 'o', 'b', 'd', 's', 't', 'v':
				spec.verb = format[index]
				index++
			}
		}
	}

	if index < fmtLen && format[index] == '}' {
		return index + 1, spec
	}

	// Malformed placeholder: skip to the closing brace (or the end of the
	// template) and report it.
	for ; index < fmtLen && format[index] != '}'; index++ {
	}
	if index < fmtLen {
		index++
	}

	return index, fmtSpec{}
}

// parsePercentSpec parses a fmt-style verb that starts right after a '%' at
// index start. It returns the index of the first byte after the verb.
func parsePercentSpec(format string, start int) (int, fmtSpec) {
	var (
		spec   fmtSpec
		index  = start
		fmtLen = len(format)
	)

	for ; index < fmtLen && format[index] >= '0' && format[index] <= '9'; index++ {
		spec.width = (spec.width * 10) + int(format[index]-'0')
	}

	if index >= fmtLen {
		return index, fmtSpec{}
	}

	switch nextCh := format[index]; nextCh {
	case 'o', 'x', 'b':
		spec.zeroPad = true
		spec.verb = nextCh
	case 'd', 's', 't', 'v':
		spec.verb = nextCh
	default:
		// reached a character that is not a verb
		return index + 1, fmtSpec{}
	}

	return index + 1, spec
}

// fmtArg formats args[argIndex] according to spec and returns the index of
// the next argument to be consumed.
func fmtArg(w io.Writer, spec fmtSpec, args []interface{}, argIndex int) int {
	switch {
	case spec.verb == 0:
		doWrite(w, errNoVerb)
		return argIndex
	case argIndex >= len(args):
		// Run out of args to print
		doWrite(w, errMissingArg)
		return argIndex
	}

	v := args[argIndex]
	switch spec.verb {
	case 'o':
		fmtInt(w, v, 8, spec)
	case 'd':
		fmtInt(w, v, 10, spec)
	case 'x':
		fmtInt(w, v, 16, spec)
	case 'b':
		fmtInt(w, v, 2, spec)
	case 's':
		fmtString(w, v, spec)
	case 't':
		fmtBool(w, v)
	case 'v':
		fmtValue(w, v, spec)
	}

	return argIndex + 1
}

// fmtValue prints the default representation of v.
func fmtValue(w io.Writer, v interface{}, spec fmtSpec) {
	switch v.(type) {
	case nil:
		doWrite(w, nilValue)
	case bool:
		fmtBool(w, v)
	case string, []byte, *kernel.Error:
		fmtString(w, v, spec)
	default:
		fmtInt(w, v, 10, spec)
	}
}

// fmtBool prints a formatted version of boolean value v.
func fmtBool(w io.Writer, v interface{}) {
	switch bVal := v.(type) {
	case bool:
		switch bVal {
		case true:
			doWrite(w, trueValue)
		case false:
			doWrite(w, falseValue)
		}
	default:
		doWrite(w, errWrongArgType)
		return
	}
}

// fmtString prints a formatted version of a string, byte slice or
// *kernel.Error value v, padded with spaces to spec.width.
func fmtString(w io.Writer, v interface{}, spec fmtSpec) {
	var padLen int

	switch castedVal := v.(type) {
	case string:
		padLen = spec.width - len(castedVal)
		if !spec.padAfter {
			fmtRepeat(w, ' ', padLen)
		}
		writeString(w, castedVal, 0, len(castedVal))
	case []byte:
		padLen = spec.width - len(castedVal)
		if !spec.padAfter {
			fmtRepeat(w, ' ', padLen)
		}
		doWrite(w, castedVal)
	case *kernel.Error:
		if castedVal == nil {
			doWrite(w, nilValue)
			return
		}
		padLen = spec.width - len(castedVal.Message)
		if !spec.padAfter {
			fmtRepeat(w, ' ', padLen)
		}
		writeString(w, castedVal.Message, 0, len(castedVal.Message))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if spec.padAfter {
		fmtRepeat(w, ' ', padLen)
	}
}

// fmtRepeat writes count bytes with value ch.
func fmtRepeat(w io.Writer, ch byte, count int) {
	for i := 0; i < count; i++ {
		writeByte(w, ch)
	}
}

// fmtInt prints out a formatted version of v in the requested base, applying
// the width, padding and prefix requested by spec. This function supports
// all built-in signed and unsigned integer types.
func fmtInt(w io.Writer, v interface{}, base uint64, spec fmtSpec) {
	var (
		sval        int64
		uval        uint64
		remainder   uint64
		neg         bool
		left, right int
		prefixLen   int
		width       = spec.width
	)

	if width > maxBufSize {
		width = maxBufSize
	}

	switch castedVal := v.(type) {
	case uint8:
		uval = uint64(castedVal)
	case uint16:
		uval = uint64(castedVal)
	case uint32:
		uval = uint64(castedVal)
	case uint64:
		uval = castedVal
	case uint:
		uval = uint64(castedVal)
	case uintptr:
		uval = uint64(castedVal)
	case int8:
		sval = int64(castedVal)
	case int16:
		sval = int64(castedVal)
	case int32:
		sval = int64(castedVal)
	case int64:
		sval = castedVal
	case int:
		sval = int64(castedVal)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	// Handle signs
	if sval < 0 {
		neg = true
		uval = uint64(-sval)
	} else if sval > 0 {
		uval = uint64(sval)
	}

	for {
		remainder = uval % base
		if remainder < 10 {
			numFmtBuf[right] = byte(remainder) + '0'
		} else {
			// map values from 10 to 15 -> a-f
			numFmtBuf[right] = byte(remainder-10) + 'a'
		}

		right++

		uval /= base
		if uval == 0 {
			break
		}
	}

	alt := spec.alt && base != 10
	if alt {
		prefixLen = 2
	}
	if neg {
		prefixLen++
	}

	// Zero padding goes between the sign/prefix and the digits
	if spec.zeroPad {
		for ; right+prefixLen < width; right++ {
			numFmtBuf[right] = '0'
		}
	}

	if alt {
		switch base {
		case 16:
			numFmtBuf[right] = 'x'
		case 8:
			numFmtBuf[right] = 'o'
		case 2:
			numFmtBuf[right] = 'b'
		}
		numFmtBuf[right+1] = '0'
		right += 2
	}

	if neg {
		numFmtBuf[right] = '-'
		right++
	}

	// Space padding goes in front of everything
	for ; right < width; right++ {
		numFmtBuf[right] = ' '
	}

	// Reverse in place
	end := right
	for right = right - 1; left < right; left, right = left+1, right-1 {
		numFmtBuf[left], numFmtBuf[right] = numFmtBuf[right], numFmtBuf[left]
	}

	doWrite(w, numFmtBuf[0:end])
}

// writeString writes s[from:to] one byte at a time; converting the string to
// a byte slice would trigger a memory allocation.
func writeString(w io.Writer, s string, from, to int) {
	for i := from; i < to; i++ {
		writeByte(w, s[i])
	}
}

func writeByte(w io.Writer, ch byte) {
	singleByte[0] = ch
	doWrite(w, singleByte[:])
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without this hack, the compiler cannot properly
// detect that p does not escape (due to the call to the yet unknown outputSink
// io.Writer) and plays it safe by flagging it as escaping. This causes all
// calls to Printf to call runtime.convT which triggers a memory allocation
// causing the kernel to crash.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
