package logger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI codes for one theme
type palette struct {
	fg      string
	time    string
	id      string
	number  string
	accentA string
	accentB string
	warn    string
	warnBg  string
	err     string
	errBg   string
}

// Gruvbox Dark (warm, muted)
var gruvbox = palette{
	fg:      "\x1b[38;5;223m",
	time:    "\x1b[38;5;108m",
	id:      "\x1b[38;5;109m",
	number:  "\x1b[38;5;175m",
	accentA: "\x1b[38;5;208m",
	accentB: "\x1b[38;5;214m",
	warn:    "\x1b[38;5;214m",
	warnBg:  "\x1b[48;5;58m",
	err:     "\x1b[38;5;167m",
	errBg:   "\x1b[48;5;88m",
}

// Everforest Dark (forest greens)
var everforest = palette{
	fg:      "\x1b[38;5;223m",
	time:    "\x1b[38;5;107m",
	id:      "\x1b[38;5;109m",
	number:  "\x1b[38;5;108m",
	accentA: "\x1b[38;5;108m",
	accentB: "\x1b[38;5;208m",
	warn:    "\x1b[38;5;179m",
	warnBg:  "\x1b[48;5;58m",
	err:     "\x1b[38;5;167m",
	errBg:   "\x1b[48;5;52m",
}

// Current active theme
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output
func SetTheme(theme string) {
	if theme == "everforest" || theme == "gruvbox" {
		currentTheme = theme
	}
}

func colors() palette {
	if currentTheme == "everforest" {
		return everforest
	}
	return gruvbox
}

// colorComponent hashes the component name so each one keeps a stable color
func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	p := colors()
	if hash%2 == 0 {
		return p.accentA
	}
	return p.accentB
}

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  s.invoker  Invocation finished  fog/3 exit=1 842ms"
type minimalEncoder struct {
	zapcore.Encoder // Embed a base encoder for field serialization
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := colors()
	final := buffer.NewPool().Get()

	final.AppendString(p.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only show for WARN/ERROR with bold + background
	if ent.Level > zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(p.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if values := extractFieldValues(fields); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	p := colors()
	switch level {
	case zapcore.WarnLevel:
		return colorBold + p.warnBg + p.warn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + p.errBg + p.err + "ERROR" + colorReset
	default:
		return colorBold + p.errBg + p.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: sweep.invoker -> s.invoker
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// getFieldValue extracts the value from a zap field, handling different field types
func getFieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.Float64Type:
		return strconv.FormatFloat(math.Float64frombits(uint64(field.Integer)), 'g', -1, 64)
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
		return ""
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// extractFieldValues renders structured fields compactly. Known sweep keys get
// dedicated formatting, everything else falls back to key=value.
// Input: {"corruption": "fog", "severity": 3, "exit_code": 1, "duration_ms": 842}
// Output: "fog/3 exit=1 842ms"
func extractFieldValues(fields []zapcore.Field) string {
	p := colors()
	var values []string
	var corruption, severity string

	for _, field := range fields {
		val := getFieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldRunID:
			values = append(values, p.id+shortID(val)+colorReset)
		case FieldCorruption:
			corruption = val
		case FieldSeverity:
			severity = val
		case FieldExitCode:
			values = append(values, "exit="+p.number+val+colorReset)
		case FieldDurationMS:
			values = append(values, p.number+val+colorReset+"ms")
		case FieldTotalCount, FieldCount:
			values = append(values, p.number+val+colorReset+" invocations")
		case FieldFailed:
			values = append(values, p.number+val+colorReset+" failed")
		case FieldError:
			values = append(values, p.err+val+colorReset)
		case FieldPath, FieldEvaluator:
			values = append(values, p.id+val+colorReset)
		default:
			// Never drop a field silently
			values = append(values, field.Key+"="+val)
		}
	}

	if corruption != "" {
		pair := corruption
		if severity != "" {
			pair += "/" + severity
		}
		values = append([]string{p.id + pair + colorReset}, values...)
	}

	return strings.Join(values, " ")
}

// shortID trims UUIDs to their first segment for display
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
