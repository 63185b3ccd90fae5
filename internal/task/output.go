package task

import (
	"fmt"
	"strings"
)

// Output accumulates the lines a handler reports to the operator.
type Output struct {
	lines []string
}

// Printf appends one formatted line.
func (o *Output) Printf(format string, args ...any) {
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

// Lines returns the accumulated lines.
func (o *Output) Lines() []string { return o.lines }

// String renders the output as newline-terminated lines.
func (o *Output) String() string {
	if len(o.lines) == 0 {
		return ""
	}
	return strings.Join(o.lines, "\n") + "\n"
}
