package logger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/pterm/pterm"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Formatter builds the zapcore.Encoder a Handler's core renders entries
// with (spec §4.5): plain text through a custom encoder in the shape of
// the teacher's minimalEncoder, JSON through zapcore's own encoder.
type Formatter interface {
	zapEncoder() zapcore.Encoder
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		TimeKey:     "ts",
		NameKey:     "category",
		EncodeLevel: ourLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}
}

// PlainFormatter renders "<ts> <L> <category> <file>:<line> <message>
// [key=value ...]" (spec §4.5). Coloring reuses pterm's color functions,
// the same ones the teacher reaches for everywhere it colors console
// text (e.g. ats/parser/error.go, code/github/github.go) rather than
// hand-rolled ANSI escapes.
type PlainFormatter struct {
	Colored bool
}

func (f PlainFormatter) zapEncoder() zapcore.Encoder {
	return newPlainEncoder(f.Colored)
}

// plainEncoder is a custom zapcore.Encoder shaped after the teacher's
// minimalEncoder (logger/minimal_encoder.go): it embeds a base JSON
// encoder purely to satisfy zapcore.Encoder's field-accumulation methods
// and Clone, and renders the line itself in EncodeEntry.
type plainEncoder struct {
	zapcore.Encoder
	colored bool
}

func newPlainEncoder(colored bool) *plainEncoder {
	return &plainEncoder{
		Encoder: zapcore.NewJSONEncoder(encoderConfig()),
		colored: colored,
	}
}

func (enc *plainEncoder) Clone() zapcore.Encoder {
	return &plainEncoder{Encoder: enc.Encoder.Clone(), colored: enc.colored}
}

func (enc *plainEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := buffer.NewPool().Get()

	ts := ent.Time.Format("15:04:05.000")
	if enc.colored {
		line.AppendString(pterm.Gray(ts))
	} else {
		line.AppendString(ts)
	}
	line.AppendByte(' ')

	lvl := levelFromZap(ent.Level)
	letter := lvl.Letter()
	if enc.colored {
		switch lvl {
		case LevelWarn:
			letter = pterm.Yellow(letter)
		case LevelError, LevelFatal:
			letter = pterm.Red(letter)
		}
	}
	line.AppendString(letter)
	line.AppendByte(' ')
	line.AppendString(ent.LoggerName)
	line.AppendByte(' ')

	file, lno, extra := splitCallSite(fields)
	if file != "" {
		line.AppendString(file)
		line.AppendByte(':')
		line.AppendString(strconv.Itoa(lno))
		line.AppendByte(' ')
	}

	line.AppendString(ent.Message)

	if len(extra) > 0 {
		line.AppendByte(' ')
		line.AppendByte('[')
		for i, fld := range extra {
			if i > 0 {
				line.AppendByte(' ')
			}
			kv := fld.Key + "=" + zapFieldString(fld)
			if enc.colored {
				kv = pterm.Gray(kv)
			}
			line.AppendString(kv)
		}
		line.AppendByte(']')
	}
	line.AppendByte('\n')
	return line, nil
}

// splitCallSite pulls the "file"/"line"/"func" fields Logger.Log always
// attaches out of fields, returning the rest for bracketed rendering.
func splitCallSite(fields []zapcore.Field) (file string, line int, rest []zapcore.Field) {
	rest = make([]zapcore.Field, 0, len(fields))
	for _, fld := range fields {
		switch fld.Key {
		case "file":
			file = fld.String
		case "line":
			line = int(fld.Integer)
		case "func":
			// rendered implicitly via file:line; dropped from the bracket.
		default:
			rest = append(rest, fld)
		}
	}
	return file, line, rest
}

// zapFieldString renders one zap field's value as text, operating on the
// zap field shape a zapcore.Encoder actually receives.
func zapFieldString(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.BoolType:
		return strconv.FormatBool(f.Integer == 1)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return strconv.FormatInt(f.Integer, 10)
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return strconv.FormatUint(uint64(f.Integer), 10)
	case zapcore.Float64Type:
		return strconv.FormatFloat(math.Float64frombits(uint64(f.Integer)), 'g', -1, 64)
	case zapcore.Float32Type:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(f.Integer))), 'g', -1, 32)
	case zapcore.BinaryType, zapcore.ByteStringType:
		if b, ok := f.Interface.([]byte); ok {
			return string(b)
		}
		return ""
	case zapcore.SkipType:
		return "null"
	default:
		if m, ok := f.Interface.(json.Marshaler); ok {
			if data, err := m.MarshalJSON(); err == nil {
				return string(data)
			}
		}
		if f.Interface != nil {
			return fmt.Sprintf("%v", f.Interface)
		}
		return ""
	}
}

// JSONFormatter renders one JSON object per line through zapcore's own
// JSON encoder; "func"/"file"/"line" and every other field Logger.Log
// attaches come through as ordinary top-level keys.
type JSONFormatter struct{}

func (f JSONFormatter) zapEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig())
}
