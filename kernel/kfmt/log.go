package kfmt

// Level is the severity of a log record. Levels are ordered; a record is
// emitted when its level is not above the configured level.
type Level uint8

const (
	// LevelOff disables logging. It is the level used when no level was
	// selected at build time.
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	// BuildLogLevel is set at link time with
	//
	//	-ldflags "-X github.com/c20h30o2/rvos/kernel/kfmt.BuildLogLevel=INFO"
	//
	// Valid values are OFF, ERROR, WARN, INFO, DEBUG and TRACE in any case.
	BuildLogLevel string

	// logLevel is the level resolved by InitLogLevel. It lives in .bss so it
	// reads as LevelOff until bring-up has run.
	logLevel Level

	levelNames = [...]string{
		LevelOff:   "OFF",
		LevelError: "ERROR",
		LevelWarn:  "WARN",
		LevelInfo:  "INFO",
		LevelDebug: "DEBUG",
		LevelTrace: "TRACE",
	}

	// levelTags hold the colour escape and the padded tag that start every
	// line of a record.
	levelTags = [...][]byte{
		LevelError: []byte("\x1b[31m[ERROR] "),
		LevelWarn:  []byte("\x1b[93m[WARN ] "),
		LevelInfo:  []byte("\x1b[34m[INFO ] "),
		LevelDebug: []byte("\x1b[32m[DEBUG] "),
		LevelTrace: []byte("\x1b[90m[TRACE] "),
	}

	recordEnd = []byte("\x1b[0m\n")

	logWriter PrefixWriter
)

// String returns the upper-case level name.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel maps a level name to a Level. Matching is case-insensitive. The
// empty string maps to LevelOff; unknown names map to LevelOff and false.
func ParseLevel(name string) (Level, bool) {
	if len(name) == 0 {
		return LevelOff, true
	}

	for lvl, levelName := range levelNames {
		if equalFold(name, levelName) {
			return Level(lvl), true
		}
	}

	return LevelOff, false
}

// equalFold reports whether s equals the upper-case ASCII string upper,
// ignoring case.
func equalFold(s, upper string) bool {
	if len(s) != len(upper) {
		return false
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch != upper[i] {
			return false
		}
	}

	return true
}

// InitLogLevel resolves the level selected at build time. It must run after
// .bss has been cleared.
func InitLogLevel() {
	logLevel, _ = ParseLevel(BuildLogLevel)
}

// LogLevel returns the configured level.
func LogLevel() Level {
	return logLevel
}

// Enabled reports whether a record at lvl would be emitted.
func Enabled(lvl Level) bool {
	return lvl != LevelOff && lvl <= logLevel
}

// Error emits a record at LevelError.
func Error(format string, args ...interface{}) {
	logf(LevelError, format, args)
}

// Warn emits a record at LevelWarn.
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, format, args)
}

// Info emits a record at LevelInfo.
func Info(format string, args ...interface{}) {
	logf(LevelInfo, format, args)
}

// Debug emits a record at LevelDebug.
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, format, args)
}

// Trace emits a record at LevelTrace.
func Trace(format string, args ...interface{}) {
	logf(LevelTrace, format, args)
}

// logf writes a single record: every line starts with the level tag and the
// record ends with a colour reset and exactly one line feed.
func logf(lvl Level, format string, args []interface{}) {
	if !Enabled(lvl) {
		return
	}

	var sink = outputSink
	if sink == nil {
		sink = &earlyPrintBuffer
	}

	logWriter.Reset(sink, levelTags[lvl])

	// The tag is always written, even for an empty message.
	doWrite(sink, logWriter.Prefix)
	logWriter.midLine = true

	Fprintf(&logWriter, format, args...)
	doWrite(sink, recordEnd)
}
