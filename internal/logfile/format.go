package logfile

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"launchkit/pkg/logging"
)

// entryLayout is the timestamp format of every log line.
const entryLayout = "02-01-2006 15:04:05.000"

// maxCauseDepth bounds cause chain expansion.
const maxCauseDepth = 16

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type multiUnwrapper interface {
	Unwrap() []error
}

func prefix(ts time.Time, level logging.LogLevel) string {
	return fmt.Sprintf("[%s] [%s] ", ts.Format(entryLayout), level)
}

// formatEntry renders entry and, when it carries an error, the error with its
// stack frames, its cause chain and any joined errors.
func formatEntry(entry logging.LogEntry) string {
	var b strings.Builder
	b.WriteString(prefix(entry.Timestamp, entry.Level))
	if entry.Subsystem != "" {
		b.WriteString("[" + entry.Subsystem + "] ")
	}
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	if entry.Err != nil {
		writeError(&b, entry.Timestamp, entry.Level, "", entry.Err, 0)
	}
	return b.String()
}

func writeError(b *strings.Builder, ts time.Time, level logging.LogLevel, header string, err error, depth int) {
	if depth >= maxCauseDepth {
		b.WriteString(prefix(ts, level) + "... cause chain truncated\n")
		return
	}

	if header != "" {
		b.WriteString(prefix(ts, level) + header + "\n")
	}
	b.WriteString(prefix(ts, level) + err.Error() + "\n")

	stack, next, joined := collapse(err)
	for _, frame := range stack {
		fmt.Fprintf(b, "\tat %n (%s:%d)\n", frame, frame, frame)
	}

	if next != nil {
		writeError(b, ts, level, "Caused By:", next, depth+1)
	}
	for _, suppressed := range joined {
		if suppressed != nil {
			writeError(b, ts, level, "Contains suppressed error:", suppressed, depth+1)
		}
	}
}

// collapse walks the wrappers of err that share its message, such as the
// stack layers added by errors.WithStack. It returns the first stack found
// among them, the first wrapped error with a different message and the errors
// of a joined error.
func collapse(err error) (stack errors.StackTrace, next error, joined []error) {
	msg := err.Error()
	cur := err
	for i := 0; i < maxCauseDepth; i++ {
		if stack == nil {
			if st, ok := cur.(stackTracer); ok {
				stack = st.StackTrace()
			}
		}
		if m, ok := cur.(multiUnwrapper); ok {
			return stack, nil, m.Unwrap()
		}
		u := errors.Unwrap(cur)
		if u == nil {
			return stack, nil, nil
		}
		if u.Error() != msg {
			return stack, u, nil
		}
		cur = u
	}
	return stack, nil, nil
}
