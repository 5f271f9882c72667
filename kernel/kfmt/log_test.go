package kfmt

import (
	"bytes"
	"testing"
)

func TestParseLevel(t *testing.T) {
	specs := []struct {
		input string
		exp   Level
		expOK bool
	}{
		{"", LevelOff, true},
		{"OFF", LevelOff, true},
		{"ERROR", LevelError, true},
		{"warn", LevelWarn, true},
		{"Info", LevelInfo, true},
		{"dEbUg", LevelDebug, true},
		{"TRACE", LevelTrace, true},
		{"verbose", LevelOff, false},
		{"INFO ", LevelOff, false},
	}

	for specIndex, spec := range specs {
		got, ok := ParseLevel(spec.input)
		if got != spec.exp || ok != spec.expOK {
			t.Errorf("[spec %d] expected ParseLevel(%q) to return (%v, %t); got (%v, %t)", specIndex, spec.input, spec.exp, spec.expOK, got, ok)
		}
	}
}

func TestInitLogLevel(t *testing.T) {
	defer func(origBuild string, origLevel Level) {
		BuildLogLevel = origBuild
		logLevel = origLevel
	}(BuildLogLevel, logLevel)

	BuildLogLevel = "debug"
	InitLogLevel()
	if got := LogLevel(); got != LevelDebug {
		t.Fatalf("expected level %v; got %v", LevelDebug, got)
	}

	BuildLogLevel = "bogus"
	InitLogLevel()
	if got := LogLevel(); got != LevelOff {
		t.Fatalf("expected unknown level to resolve to %v; got %v", LevelOff, got)
	}
}

func TestLevelString(t *testing.T) {
	if got := LevelWarn.String(); got != "WARN" {
		t.Errorf("expected WARN; got %q", got)
	}

	if got := Level(42).String(); got != "UNKNOWN" {
		t.Errorf("expected UNKNOWN; got %q", got)
	}
}

func TestLogFiltering(t *testing.T) {
	defer func(origLevel Level) {
		logLevel = origLevel
		outputSink = nil
	}(logLevel)

	var buf bytes.Buffer
	SetOutputSink(&buf)

	emitAll := func() {
		Error("e")
		Warn("w")
		Info("i")
		Debug("d")
		Trace("t")
	}

	specs := []struct {
		level     Level
		expOutput string
	}{
		{LevelOff, ""},
		{
			LevelError,
			"\x1b[31m[ERROR] e\x1b[0m\n",
		},
		{
			LevelInfo,
			"\x1b[31m[ERROR] e\x1b[0m\n" +
				"\x1b[93m[WARN ] w\x1b[0m\n" +
				"\x1b[34m[INFO ] i\x1b[0m\n",
		},
		{
			LevelTrace,
			"\x1b[31m[ERROR] e\x1b[0m\n" +
				"\x1b[93m[WARN ] w\x1b[0m\n" +
				"\x1b[34m[INFO ] i\x1b[0m\n" +
				"\x1b[32m[DEBUG] d\x1b[0m\n" +
				"\x1b[90m[TRACE] t\x1b[0m\n",
		},
	}

	for specIndex, spec := range specs {
		buf.Reset()
		logLevel = spec.level
		emitAll()

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected to get\n%q\ngot:\n%q", specIndex, spec.expOutput, got)
		}
	}
}

func TestEnabled(t *testing.T) {
	defer func(origLevel Level) {
		logLevel = origLevel
	}(logLevel)

	logLevel = LevelWarn
	specs := []struct {
		lvl Level
		exp bool
	}{
		{LevelOff, false},
		{LevelError, true},
		{LevelWarn, true},
		{LevelInfo, false},
		{LevelTrace, false},
	}

	for specIndex, spec := range specs {
		if got := Enabled(spec.lvl); got != spec.exp {
			t.Errorf("[spec %d] expected Enabled(%v) to be %t", specIndex, spec.lvl, spec.exp)
		}
	}
}

func TestLogRecordFormat(t *testing.T) {
	defer func(origLevel Level) {
		logLevel = origLevel
		outputSink = nil
	}(logLevel)

	var buf bytes.Buffer
	SetOutputSink(&buf)
	logLevel = LevelInfo

	specs := []struct {
		fn        func()
		expOutput string
	}{
		{
			func() { Info(".text [{:#x}, {:#x})", uintptr(0x80200000), uintptr(0x80202000)) },
			"\x1b[34m[INFO ] .text [0x80200000, 0x80202000)\x1b[0m\n",
		},
		{
			func() { Info("") },
			"\x1b[34m[INFO ] \x1b[0m\n",
		},
		{
			func() { Warn("first\nsecond") },
			"\x1b[93m[WARN ] first\n\x1b[93m[WARN ] second\x1b[0m\n",
		},
		{
			func() { Error("value={}", 7) },
			"\x1b[31m[ERROR] value=7\x1b[0m\n",
		},
		{
			func() { Info("progress 50% done, {} left", 3) },
			"\x1b[34m[INFO ] progress 50% done, 3 left\x1b[0m\n",
		},
	}

	for specIndex, spec := range specs {
		buf.Reset()
		spec.fn()

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected to get\n%q\ngot:\n%q", specIndex, spec.expOutput, got)
		}
	}
}

func TestLogBeforeSinkIsBuffered(t *testing.T) {
	defer func(origLevel Level) {
		logLevel = origLevel
		outputSink = nil
	}(logLevel)

	outputSink = nil
	earlyPrintBuffer.rIndex, earlyPrintBuffer.wIndex = 0, 0
	logLevel = LevelError

	Error("early")

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "\x1b[31m[ERROR] early\x1b[0m\n", buf.String(); got != exp {
		t.Fatalf("expected to get\n%q\ngot:\n%q", exp, got)
	}
}
