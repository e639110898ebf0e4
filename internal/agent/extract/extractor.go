// Package extract turns free-text user utterances into the structured,
// string-valued parameter sets the divination endpoints expect. Each tool
// declares a fixed field schema; a single auxiliary model call fills it.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/banxian-ai/server/internal/agent/llm"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// FieldKind is the semantic type of an extraction field. Every value is
// still serialized as a string on the wire; the kind only guides coercion.
type FieldKind int

const (
	KindString FieldKind = iota
	KindEnum
	KindInt
)

// FieldSpec describes one extraction field of a tool schema.
type FieldSpec struct {
	Name     string
	Desc     string
	Kind     FieldKind
	Required bool
	Default  string
}

// Schema is the fixed argument schema of one tool.
type Schema struct {
	Tool   string
	Title  string
	Fields []FieldSpec
}

// MissingFields reports that required fields could not be extracted. It is a
// recoverable outcome, not an error: the dispatch loop converts it into a
// clarification the persona asks the user.
type MissingFields struct {
	Tool   string
	Title  string
	Fields []string
}

// Prompt renders the natural-language follow-up injected into model context
// so the persona asks the user for exactly the missing fields.
func (m *MissingFields) Prompt() string {
	return fmt.Sprintf("%s所需的信息不全，请直接向用户询问以下内容，一个都不能少：%s", m.Title, strings.Join(m.Fields, "、"))
}

// Extractor fills tool schemas from raw user text via one aux-model call.
type Extractor struct {
	aux llm.Generator
}

func NewExtractor(aux llm.Generator) *Extractor {
	return &Extractor{aux: aux}
}

const extractTemplate = `你是一个参数查询助手，根据用户输入的内容，找出相关的参数信息，并按 json 格式返回。
json字段如下:
%s只返回 json 格式的数据。不要返回其他内容。
用户输入: %s`

// Extract returns the fully coerced string-valued argument set, or a
// MissingFields outcome when the model output cannot be parsed or lacks
// required fields. It never returns a hard error.
func (e *Extractor) Extract(ctx context.Context, sc Schema, rawText string) (map[string]string, *MissingFields) {
	out, err := e.aux.Generate(ctx, []*schema.Message{
		schema.UserMessage(fmt.Sprintf(extractTemplate, renderFields(sc.Fields), rawText)),
	})
	if err != nil || out == nil {
		logx.Warn().Err(err).Str("tool", sc.Tool).Msg("argument extraction call failed")
		return nil, missingAll(sc)
	}

	parsed, err := parseObject(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("tool", sc.Tool).Msg("argument extraction returned malformed json")
		return nil, missingAll(sc)
	}

	args := make(map[string]string, len(sc.Fields))
	var missing []string
	for _, f := range sc.Fields {
		v, ok := parsed[f.Name]
		s := coerceString(v)
		if !ok || s == "" {
			if f.Default != "" {
				args[f.Name] = f.Default
				continue
			}
			if f.Required {
				missing = append(missing, fieldLabel(f))
			}
			continue
		}
		args[f.Name] = s
	}

	if len(missing) > 0 {
		logx.Debug().Str("tool", sc.Tool).Strs("missing", missing).Msg("required extraction fields missing")
		return nil, &MissingFields{Tool: sc.Tool, Title: sc.Title, Fields: missing}
	}
	return args, nil
}

func missingAll(sc Schema) *MissingFields {
	var fields []string
	for _, f := range sc.Fields {
		if f.Required {
			fields = append(fields, fieldLabel(f))
		}
	}
	return &MissingFields{Tool: sc.Tool, Title: sc.Title, Fields: fields}
}

func fieldLabel(f FieldSpec) string {
	if f.Desc != "" {
		return f.Desc
	}
	return f.Name
}

func renderFields(fields []FieldSpec) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(fmt.Sprintf("- %q: %q\n", f.Name, f.Desc))
	}
	return b.String()
}

// parseObject parses a single JSON object out of the model output, stripping
// any markdown code fences the model wraps it in.
func parseObject(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, fmt.Errorf("output is not a json object")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// coerceString converts any extracted value to its string representation,
// per the posted-form contract of the downstream endpoints.
func coerceString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(vv)
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
