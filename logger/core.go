package logger

import "go.uber.org/zap/zapcore"

// matchingCore turns a Handler's Matcher into the Check-time gate
// SPEC_FULL's handler chain describes: it pre-filters every entry
// through the matcher before delegating encoding and writing to the
// wrapped core. Shaped after server/wslogs/core.go's WebSocketCore,
// which also wraps a plain zapcore.Core and decides in Check whether to
// AddCore itself onto the checked entry.
type matchingCore struct {
	matcher Matcher
	inner   zapcore.Core
}

// Enabled always reports true: a matchingCore's real admission decision
// needs the entry's category as well as its level, which Enabled never
// sees, so the actual filtering happens in Check against the full Entry.
func (c *matchingCore) Enabled(zapcore.Level) bool { return true }

func (c *matchingCore) With(fields []zapcore.Field) zapcore.Core {
	return &matchingCore{matcher: c.matcher, inner: c.inner.With(fields)}
}

func (c *matchingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.matcher.Match(ent.LoggerName, levelFromZap(ent.Level)) {
		return ce
	}
	return ce.AddCore(ent, c)
}

func (c *matchingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.inner.Write(ent, fields)
}

func (c *matchingCore) Sync() error { return c.inner.Sync() }
