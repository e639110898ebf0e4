// Package tools hosts the divination tool catalog: the fixed set of
// capabilities the dispatch model may call, their argument extraction
// schemas, the HTTP clients behind them and the normalizers that compress
// raw endpoint payloads into model-ready labeled fields.
package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/banxian-ai/server/internal/agent/extract"
	"github.com/banxian-ai/server/internal/agent/model"
	logx "github.com/banxian-ai/server/pkg/logger"
)

const (
	ToolKnowledgeBase = "knowledge_base"
	ToolWebSearch     = "web_search"
	ToolJiuxing       = "jiuxing"
	ToolBazi          = "bazi_cesuan"
	ToolShengxiao     = "shengxiao"
	ToolHehun         = "bazi_hehun"
	ToolWeilai        = "weilai"
	ToolChenggu       = "chenggu"
	ToolJiemeng       = "jiemeng"
	ToolZeshi         = "zeshi"
	ToolQiming        = "qiming"
	ToolYaogua        = "yaogua"
)

// Descriptor binds one tool name to its selection guard, optional extraction
// schema and invocation function.
type Descriptor struct {
	Name       string
	Title      string
	Guard      string
	Extraction *extract.Schema
	run        func(ctx context.Context, args map[string]string, rawQuery string) model.ToolOutcome
}

// Executor owns the catalog and performs tool invocations on behalf of the
// dispatch loop.
type Executor struct {
	descriptors map[string]Descriptor
	order       []string
	extractor   Extractor
}

// Extractor is the narrow extraction capability the executor needs.
type Extractor interface {
	Extract(ctx context.Context, sc extract.Schema, rawText string) (map[string]string, *extract.MissingFields)
}

func NewExecutor(config model.ToolsConfig, client *Client, search *SearchClient, kb KnowledgeBase, extractor Extractor) *Executor {
	e := &Executor{
		descriptors: make(map[string]Descriptor),
		extractor:   extractor,
	}

	e.register(Descriptor{
		Name:  ToolKnowledgeBase,
		Title: "本地知识库",
		Guard: "优先使用。查询周半仙的本地命理知识库，包含命理、风水、玄学相关的知识文档。",
		run: func(ctx context.Context, _ map[string]string, rawQuery string) model.ToolOutcome {
			docs, err := kb.Lookup(ctx, rawQuery)
			if err != nil || len(docs) == 0 {
				logx.Warn().Err(err).Msg("knowledge base lookup failed")
				return model.Failure(ToolKnowledgeBase, model.StandardFailure("本地知识库", rawQuery))
			}
			fields := make([]model.Field, 0, len(docs))
			for _, doc := range docs {
				fields = append(fields, model.Field{Value: doc})
			}
			return model.Success(ToolKnowledgeBase, fields...)
		},
	})

	e.register(Descriptor{
		Name:  ToolWebSearch,
		Title: "联网搜索",
		Guard: "当问题涉及实时信息、新闻或本地知识库没有答案时，联网搜索获取信息。",
		run: func(ctx context.Context, _ map[string]string, rawQuery string) model.ToolOutcome {
			digest, err := search.Search(ctx, rawQuery)
			if err != nil {
				logx.Warn().Err(err).Msg("web search failed")
				return model.Failure(ToolWebSearch, model.StandardFailure("联网搜索", rawQuery))
			}
			return model.Success(ToolWebSearch, model.Field{Value: digest})
		},
	})

	e.register(Descriptor{
		Name:       ToolBazi,
		Title:      "八字测算",
		Guard:      "根据用户的姓名、性别、出生年月日时进行八字排盘测算，分析命理。",
		Extraction: baziSchema(),
		run:        formTool(client, config.BaziURL, ToolBazi, "八字测算", normalizeBazi),
	})

	e.register(Descriptor{
		Name:       ToolShengxiao,
		Title:      "生肖配对",
		Guard:      "根据男女双方的生肖进行婚恋配对分析。",
		Extraction: shengxiaoSchema(),
		run:        formTool(client, config.ShengxiaoURL, ToolShengxiao, "生肖配对", normalizeShengxiao),
	})

	e.register(Descriptor{
		Name:       ToolHehun,
		Title:      "八字合婚",
		Guard:      "根据男女双方的出生年月日时进行八字合婚，评估婚姻契合度。",
		Extraction: hehunSchema(),
		run:        formTool(client, config.HehunURL, ToolHehun, "八字合婚", normalizeHehun),
	})

	e.register(Descriptor{
		Name:       ToolJiuxing,
		Title:      "九星命理",
		Guard:      "根据出生年月日计算九星命理与方位吉凶。",
		Extraction: jiuxingSchema(),
		run:        formTool(client, config.JiuxingURL, ToolJiuxing, "九星命理", normalizeJiuxing),
	})

	e.register(Descriptor{
		Name:       ToolWeilai,
		Title:      "未来运势",
		Guard:      "根据出生信息预测指定年份的运势，包括财运、事业、姻缘、健康。",
		Extraction: weilaiSchema(),
		run:        formTool(client, config.WeilaiURL, ToolWeilai, "未来运势", normalizeWeilai),
	})

	e.register(Descriptor{
		Name:       ToolChenggu,
		Title:      "称骨论命",
		Guard:      "根据出生年月日时进行袁天罡称骨论命。",
		Extraction: chengguSchema(),
		run:        formTool(client, config.ChengguURL, ToolChenggu, "称骨论命", normalizeChenggu),
	})

	e.register(Descriptor{
		Name:       ToolJiemeng,
		Title:      "周公解梦",
		Guard:      "根据用户梦境内容的关键词查询周公解梦。",
		Extraction: jiemengSchema(),
		run:        formTool(client, config.JiemengURL, ToolJiemeng, "周公解梦", normalizeJiemeng),
	})

	e.register(Descriptor{
		Name:       ToolZeshi,
		Title:      "择吉日",
		Guard:      "为搬家、嫁娶、开业等事项挑选黄道吉日。",
		Extraction: zeshiSchema(),
		run:        formTool(client, config.ZeshiURL, ToolZeshi, "择吉日", normalizeZeshi),
	})

	e.register(Descriptor{
		Name:       ToolQiming,
		Title:      "起名",
		Guard:      "根据姓氏、性别和出生信息为新生儿起名。",
		Extraction: qimingSchema(),
		run:        formTool(client, config.QimingURL, ToolQiming, "起名", normalizeQiming),
	})

	e.register(Descriptor{
		Name:  ToolYaogua,
		Title: "摇卦占卜",
		Guard: "当用户想占卜一件事情的吉凶时摇卦起卦，无需用户提供任何信息。",
		run: func(ctx context.Context, _ map[string]string, rawQuery string) model.ToolOutcome {
			body, err := client.PostForm(ctx, config.YaoguaURL, nil)
			if err != nil {
				logx.Warn().Err(err).Str("tool", ToolYaogua).Msg("tool call failed")
				return model.Failure(ToolYaogua, model.StandardFailure("摇卦占卜", rawQuery))
			}
			return normalizeYaogua(body, rawQuery)
		},
	})

	return e
}

// formTool builds the shared run path of the form-POST divination tools.
func formTool(client *Client, endpoint, tool, title string, normalize func([]byte, string) model.ToolOutcome) func(context.Context, map[string]string, string) model.ToolOutcome {
	return func(ctx context.Context, args map[string]string, rawQuery string) model.ToolOutcome {
		body, err := client.PostForm(ctx, endpoint, args)
		if err != nil {
			logx.Warn().Err(err).Str("tool", tool).Msg("tool call failed")
			return model.Failure(tool, model.StandardFailure(title, rawQuery))
		}
		return normalize(body, rawQuery)
	}
}

func (e *Executor) register(d Descriptor) {
	e.descriptors[d.Name] = d
	e.order = append(e.order, d.Name)
}

// SetExtractor wires the argument extractor after construction. The catalog
// is built before the models so its tool infos can bind the dispatch model;
// the extractor depends on the aux model and arrives second.
func (e *Executor) SetExtractor(extractor Extractor) {
	e.extractor = extractor
}

// Known reports whether the catalog contains the named tool.
func (e *Executor) Known(name string) bool {
	_, ok := e.descriptors[name]
	return ok
}

// ExtractArgs fills the tool's argument schema from the raw user text. Tools
// without an extraction schema take no structured arguments and return nil
// for both results.
func (e *Executor) ExtractArgs(ctx context.Context, name, rawText string) (map[string]string, *extract.MissingFields) {
	d, ok := e.descriptors[name]
	if !ok || d.Extraction == nil || e.extractor == nil {
		return nil, nil
	}
	return e.extractor.Extract(ctx, *d.Extraction, rawText)
}

// Invoke runs the named tool and always resolves to a ToolOutcome.
func (e *Executor) Invoke(ctx context.Context, name string, args map[string]string, rawQuery string) model.ToolOutcome {
	d, ok := e.descriptors[name]
	if !ok {
		return model.Failure(name, model.StandardFailure("该工具", rawQuery))
	}
	outcome := d.run(ctx, args, rawQuery)
	logx.Debug().Str("tool", name).Bool("failed", outcome.Failed()).Msg("tool invoked")
	return outcome
}

// ToolInfos exposes the catalog in the shape the dispatch model is bound
// with. Every tool takes a single free-text query; structured arguments are
// recovered by the extractor, not by the dispatch model.
func (e *Executor) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(e.order))
	for _, name := range e.order {
		d := e.descriptors[name]
		desc := d.Guard
		if d.Extraction != nil {
			var wants []string
			for _, f := range d.Extraction.Fields {
				if f.Required {
					wants = append(wants, f.Desc)
				}
			}
			if len(wants) > 0 {
				desc += "需要用户提供：" + strings.Join(wants, "、") + "。"
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name: d.Name,
			Desc: desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "用户的原始问题，保留用户提供的全部信息",
					Required: true,
				},
			}),
		})
	}
	return infos
}
