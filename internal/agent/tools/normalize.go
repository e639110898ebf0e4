package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/banxian-ai/server/internal/agent/model"
	logx "github.com/banxian-ai/server/pkg/logger"
)

// Normalizers reshape raw endpoint payloads into compact labeled fields.
// Absent keys are skipped, never fabricated; any shape error converts to the
// standardized failure string so the model can steer to another tool.

type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func envelopeData(raw []byte) (json.RawMessage, error) {
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("missing data object")
	}
	return env.Data, nil
}

func dataObject(raw []byte) (map[string]any, error) {
	data, err := envelopeData(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode data object: %w", err)
	}
	return obj, nil
}

func dataArray(raw []byte) ([]any, error) {
	data, err := envelopeData(raw)
	if err != nil {
		return nil, err
	}
	var arr []any
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("decode data array: %w", err)
	}
	return arr, nil
}

func scalarString(v any) (string, bool) {
	switch vv := v.(type) {
	case string:
		return vv, true
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10), true
		}
		return strconv.FormatFloat(vv, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(vv), true
	default:
		return "", false
	}
}

// anyString renders scalars directly and compacts nested values to JSON.
func anyString(v any) string {
	if s, ok := scalarString(v); ok {
		return s
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		allScalar := true
		for _, item := range list {
			s, ok := scalarString(item)
			if !ok {
				allScalar = false
				break
			}
			parts = append(parts, s)
		}
		if allScalar {
			return strings.Join(parts, " ")
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// flattenObject turns an object into sorted labeled fields, skipping the
// named keys.
func flattenObject(obj map[string]any, skip ...string) []model.Field {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if skipped[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]model.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, model.Field{Label: k, Value: anyString(obj[k])})
	}
	return fields
}

func normalizeFailure(tool, title, query string, err error) model.ToolOutcome {
	logx.Warn().Err(err).Str("tool", tool).Msg("result normalization failed")
	return model.Failure(tool, model.StandardFailure(title, query))
}

// normalizeShengxiao keeps only the pairing description.
func normalizeShengxiao(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolShengxiao, "生肖配对", query, err)
	}
	desc, ok := obj["description"]
	s, scalar := scalarString(desc)
	if !ok || !scalar || s == "" {
		return normalizeFailure(ToolShengxiao, "生肖配对", query, fmt.Errorf("missing description"))
	}
	return model.Success(ToolShengxiao, model.Field{Label: "配对详解", Value: s})
}

// normalizeBazi keeps the full reading object, flattened.
func normalizeBazi(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolBazi, "八字测算", query, err)
	}
	fields := flattenObject(obj)
	if len(fields) == 0 {
		return normalizeFailure(ToolBazi, "八字测算", query, fmt.Errorf("empty data object"))
	}
	return model.Success(ToolBazi, fields...)
}

// normalizeYaogua drops the hexagram image and keeps the rest.
func normalizeYaogua(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolYaogua, "摇卦占卜", query, err)
	}
	fields := flattenObject(obj, "image")
	if len(fields) == 0 {
		return normalizeFailure(ToolYaogua, "摇卦占卜", query, fmt.Errorf("empty data object"))
	}
	return model.Success(ToolYaogua, fields...)
}

// normalizeJiemeng keeps only the last three matched dream entries.
func normalizeJiemeng(raw []byte, query string) model.ToolOutcome {
	arr, err := dataArray(raw)
	if err != nil {
		return normalizeFailure(ToolJiemeng, "周公解梦", query, err)
	}
	if len(arr) == 0 {
		return normalizeFailure(ToolJiemeng, "周公解梦", query, fmt.Errorf("no dream entries"))
	}
	if len(arr) > 3 {
		arr = arr[len(arr)-3:]
	}

	fields := make([]model.Field, 0, len(arr))
	for _, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			fields = append(fields, model.Field{Value: anyString(entry)})
			continue
		}
		label := ""
		for _, k := range []string{"title", "title_zhougong", "name"} {
			if s, ok := scalarString(obj[k]); ok && s != "" {
				label = s
				break
			}
		}
		value := ""
		for _, k := range []string{"des", "description", "content"} {
			if s, ok := scalarString(obj[k]); ok && s != "" {
				value = s
				break
			}
		}
		if value == "" {
			value = anyString(obj)
		}
		fields = append(fields, model.Field{Label: label, Value: value})
	}
	return model.Success(ToolJiemeng, fields...)
}

// hehunScores is the fixed set of compatibility sub-scores kept from the
// marriage reading; internal identifiers are dropped.
var hehunScores = []struct{ Key, Label string }{
	{"benminggua_score", "本命卦分数"},
	{"nianzhi_score", "年支同气分数"},
	{"yueling_score", "月令合分数"},
	{"rigan_score", "日干合分数"},
	{"tiangan_score", "天干五合分数"},
	{"wuxing_score", "五行分数"},
	{"shengxiao_score", "生肖分数"},
	{"rizhu_score", "日柱分数"},
	{"yinyuan_score", "姻缘分数"},
	{"zinv_score", "子女分数"},
	{"score", "综合分数"},
}

func normalizeHehun(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolHehun, "八字合婚", query, err)
	}

	fields := make([]model.Field, 0, len(hehunScores)+1)
	for _, sc := range hehunScores {
		if v, ok := obj[sc.Key]; ok {
			if s, scalar := scalarString(v); scalar {
				fields = append(fields, model.Field{Label: sc.Label, Value: s})
			}
		}
	}
	if s, ok := scalarString(obj["description"]); ok && s != "" {
		fields = append(fields, model.Field{Label: "合婚详解", Value: s})
	}
	if len(fields) == 0 {
		return normalizeFailure(ToolHehun, "八字合婚", query, fmt.Errorf("no score fields"))
	}
	return model.Success(ToolHehun, fields...)
}

// normalizeZeshi flattens candidate days into solar date, lunar date and
// the favorable/unfavorable activities of each.
func normalizeZeshi(raw []byte, query string) model.ToolOutcome {
	data, err := envelopeData(raw)
	if err != nil {
		return normalizeFailure(ToolZeshi, "择吉日", query, err)
	}

	var days []map[string]any
	var arr []any
	if err := json.Unmarshal(data, &arr); err != nil {
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return normalizeFailure(ToolZeshi, "择吉日", query, err)
		}
		list, ok := obj["list"].([]any)
		if !ok {
			return normalizeFailure(ToolZeshi, "择吉日", query, fmt.Errorf("missing day list"))
		}
		arr = list
	}
	for _, item := range arr {
		if day, ok := item.(map[string]any); ok {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return normalizeFailure(ToolZeshi, "择吉日", query, fmt.Errorf("no candidate days"))
	}

	fields := make([]model.Field, 0, len(days))
	for _, day := range days {
		solar, _ := scalarString(day["yangli"])
		lunar, _ := scalarString(day["nongli"])
		parts := make([]string, 0, 3)
		if lunar != "" {
			parts = append(parts, "农历 "+lunar)
		}
		if yi, ok := day["yi"]; ok {
			parts = append(parts, "宜 "+anyString(yi))
		}
		if ji, ok := day["ji"]; ok {
			parts = append(parts, "忌 "+anyString(ji))
		}
		fields = append(fields, model.Field{Label: solar, Value: strings.Join(parts, "｜")})
	}
	return model.Success(ToolZeshi, fields...)
}

// selectFields keeps the listed keys with their Chinese labels, in order,
// falling back to a plain flatten when none of them are present.
func selectFields(tool, title string, obj map[string]any, query string, keys []struct{ Key, Label string }) model.ToolOutcome {
	fields := make([]model.Field, 0, len(keys))
	for _, k := range keys {
		if v, ok := obj[k.Key]; ok {
			fields = append(fields, model.Field{Label: k.Label, Value: anyString(v)})
		}
	}
	if len(fields) == 0 {
		fields = flattenObject(obj)
	}
	if len(fields) == 0 {
		return normalizeFailure(tool, title, query, fmt.Errorf("empty data object"))
	}
	return model.Success(tool, fields...)
}

func normalizeWeilai(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolWeilai, "未来运势", query, err)
	}
	return selectFields(ToolWeilai, "未来运势", obj, query, []struct{ Key, Label string }{
		{"nianyun", "年运"},
		{"caiyun", "财运"},
		{"yuncheng", "运程"},
		{"yinyuan", "姻缘"},
		{"shiye", "事业"},
		{"xueye", "学业"},
		{"jiankang", "健康"},
	})
}

func normalizeJiuxing(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolJiuxing, "九星命理", query, err)
	}
	return selectFields(ToolJiuxing, "九星命理", obj, query, []struct{ Key, Label string }{
		{"jiuxing", "九星"},
		{"wuxing", "五行"},
		{"fangwei", "方位"},
		{"description", "详解"},
	})
}

func normalizeChenggu(raw []byte, query string) model.ToolOutcome {
	obj, err := dataObject(raw)
	if err != nil {
		return normalizeFailure(ToolChenggu, "称骨论命", query, err)
	}
	return selectFields(ToolChenggu, "称骨论命", obj, query, []struct{ Key, Label string }{
		{"guzhong", "骨重"},
		{"gege", "歌诀"},
		{"description", "解析"},
	})
}

// normalizeQiming flattens candidate names with their scores.
func normalizeQiming(raw []byte, query string) model.ToolOutcome {
	data, err := envelopeData(raw)
	if err != nil {
		return normalizeFailure(ToolQiming, "起名", query, err)
	}

	var arr []any
	if err := json.Unmarshal(data, &arr); err != nil {
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return normalizeFailure(ToolQiming, "起名", query, err)
		}
		list, ok := obj["list"].([]any)
		if !ok {
			return normalizeFailure(ToolQiming, "起名", query, fmt.Errorf("missing name list"))
		}
		arr = list
	}
	if len(arr) == 0 {
		return normalizeFailure(ToolQiming, "起名", query, fmt.Errorf("no candidate names"))
	}
	if len(arr) > 10 {
		arr = arr[:10]
	}

	fields := make([]model.Field, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			fields = append(fields, model.Field{Value: anyString(item)})
			continue
		}
		name := ""
		for _, k := range []string{"name", "xingming"} {
			if s, ok := scalarString(obj[k]); ok && s != "" {
				name = s
				break
			}
		}
		parts := make([]string, 0, 2)
		if s, ok := scalarString(obj["score"]); ok && s != "" {
			parts = append(parts, "评分 "+s)
		}
		if s, ok := scalarString(obj["wuxing"]); ok && s != "" {
			parts = append(parts, "五行 "+s)
		}
		value := strings.Join(parts, "｜")
		if value == "" {
			value = anyString(obj)
		}
		fields = append(fields, model.Field{Label: name, Value: value})
	}
	return model.Success(ToolQiming, fields...)
}
