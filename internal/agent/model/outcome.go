package model

import (
	"fmt"
	"strings"
)

// Field is one labeled value of a normalized tool result.
type Field struct {
	Label string
	Value string
}

// ToolOutcome is the single sum type every tool invocation resolves to:
// either a normalized set of labeled fields or a standardized failure
// message. It is always returned as data and never raised past the
// dispatch loop boundary.
type ToolOutcome struct {
	Tool    string
	Fields  []Field
	Failure string
}

// Success builds a successful outcome with the given labeled fields.
func Success(tool string, fields ...Field) ToolOutcome {
	return ToolOutcome{Tool: tool, Fields: fields}
}

// Failure builds a failed outcome. The message is phrased as a steering hint
// for the model, not as user-facing text.
func Failure(tool, message string) ToolOutcome {
	return ToolOutcome{Tool: tool, Failure: message}
}

// StandardFailure phrases a tool failure so the model can pick another tool
// or apologize, carrying the original query as context.
func StandardFailure(title, query string) string {
	return fmt.Sprintf("%s查询失败，请尝试使用其他工具回答用户的问题：%s", title, query)
}

// Failed reports whether the outcome represents a failure.
func (o ToolOutcome) Failed() bool {
	return o.Failure != ""
}

// Render serializes the outcome for injection into model context.
func (o ToolOutcome) Render() string {
	if o.Failed() {
		return o.Failure
	}
	var b strings.Builder
	for i, f := range o.Fields {
		if i > 0 {
			b.WriteString("\n")
		}
		if f.Label != "" {
			b.WriteString(f.Label)
			b.WriteString(": ")
		}
		b.WriteString(f.Value)
	}
	return b.String()
}
