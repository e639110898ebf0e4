package tools

import (
	"github.com/banxian-ai/server/internal/agent/extract"
)

// Extraction schemas, one per tool that takes structured arguments. Field
// descriptions double as the labels the persona uses when asking the user
// for missing data.

func baziSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolBazi,
		Title: "八字测算",
		Fields: []extract.FieldSpec{
			{Name: "name", Desc: "姓名", Kind: extract.KindString, Required: true},
			{Name: "sex", Desc: "性别，0 表示男性，1 表示女性", Kind: extract.KindEnum, Required: true},
			{Name: "type", Desc: "日期类型，1为阳历也就是公历，0为阴历也就是农历", Kind: extract.KindEnum, Default: "1"},
			{Name: "year", Desc: "出生年份，例如 1990", Kind: extract.KindInt, Required: true},
			{Name: "month", Desc: "出生月份，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "day", Desc: "出生日，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "hours", Desc: "出生时，例如 12", Kind: extract.KindInt, Required: true},
			{Name: "minute", Desc: "出生分，例如 30", Kind: extract.KindInt, Default: "0"},
			{Name: "sect", Desc: "流派，1：晚子时日柱算明天 2：晚子时日柱算当天", Kind: extract.KindEnum, Default: "1"},
			{Name: "zhen", Desc: "是否真太阳时，1：考虑 2：不考虑", Kind: extract.KindEnum, Default: "2"},
			{Name: "province", Desc: "省份，例如：广东省", Kind: extract.KindString},
			{Name: "city", Desc: "城市，例如：广州市", Kind: extract.KindString},
			{Name: "lang", Desc: "多语言：zh-cn、en-us", Kind: extract.KindEnum, Default: "zh-cn"},
		},
	}
}

func shengxiaoSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolShengxiao,
		Title: "生肖配对",
		Fields: []extract.FieldSpec{
			{Name: "shengxiao_male", Desc: "男方生肖，例：鼠 牛 虎 兔 龙 蛇 马 羊 猴 鸡 狗 猪", Kind: extract.KindEnum, Required: true},
			{Name: "shengxiao_female", Desc: "女方生肖，例：鼠 牛 虎 兔 龙 蛇 马 羊 猴 鸡 狗 猪", Kind: extract.KindEnum, Required: true},
		},
	}
}

func hehunSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolHehun,
		Title: "八字合婚",
		Fields: []extract.FieldSpec{
			{Name: "male_year", Desc: "男方出生年份", Kind: extract.KindInt, Required: true},
			{Name: "male_month", Desc: "男方出生月份", Kind: extract.KindInt, Required: true},
			{Name: "male_day", Desc: "男方出生日", Kind: extract.KindInt, Required: true},
			{Name: "male_hours", Desc: "男方出生时", Kind: extract.KindInt, Required: true},
			{Name: "female_year", Desc: "女方出生年份", Kind: extract.KindInt, Required: true},
			{Name: "female_month", Desc: "女方出生月份", Kind: extract.KindInt, Required: true},
			{Name: "female_day", Desc: "女方出生日", Kind: extract.KindInt, Required: true},
			{Name: "female_hours", Desc: "女方出生时", Kind: extract.KindInt, Required: true},
		},
	}
}

func jiuxingSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolJiuxing,
		Title: "九星命理",
		Fields: []extract.FieldSpec{
			{Name: "year", Desc: "出生年份，例如 1990", Kind: extract.KindInt, Required: true},
			{Name: "month", Desc: "出生月份，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "day", Desc: "出生日，例如 1", Kind: extract.KindInt, Required: true},
		},
	}
}

func weilaiSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolWeilai,
		Title: "未来运势",
		Fields: []extract.FieldSpec{
			{Name: "sex", Desc: "性别，0 表示男性，1 表示女性", Kind: extract.KindEnum, Required: true},
			{Name: "year", Desc: "出生年份，例如 1990", Kind: extract.KindInt, Required: true},
			{Name: "month", Desc: "出生月份，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "day", Desc: "出生日，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "hours", Desc: "出生时，例如 12", Kind: extract.KindInt, Required: true},
			{Name: "target_year", Desc: "要预测运势的年份，例如 2025", Kind: extract.KindInt, Required: true},
		},
	}
}

func chengguSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolChenggu,
		Title: "称骨论命",
		Fields: []extract.FieldSpec{
			{Name: "year", Desc: "出生年份，例如 1990", Kind: extract.KindInt, Required: true},
			{Name: "month", Desc: "出生月份，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "day", Desc: "出生日，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "hours", Desc: "出生时，例如 12", Kind: extract.KindInt, Required: true},
			{Name: "type", Desc: "日期类型，1为阳历，0为阴历", Kind: extract.KindEnum, Default: "1"},
		},
	}
}

func jiemengSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolJiemeng,
		Title: "周公解梦",
		Fields: []extract.FieldSpec{
			{Name: "title_zhougong", Desc: "梦境内容的关键词，只要一个词", Kind: extract.KindString, Required: true},
		},
	}
}

func zeshiSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolZeshi,
		Title: "择吉日",
		Fields: []extract.FieldSpec{
			{Name: "shiwu", Desc: "所择之事，例如：搬家、嫁娶、开业", Kind: extract.KindString, Required: true},
			{Name: "days", Desc: "从今天起的未来天数范围", Kind: extract.KindInt, Default: "30"},
		},
	}
}

func qimingSchema() *extract.Schema {
	return &extract.Schema{
		Tool:  ToolQiming,
		Title: "起名",
		Fields: []extract.FieldSpec{
			{Name: "xing", Desc: "姓氏", Kind: extract.KindString, Required: true},
			{Name: "sex", Desc: "性别，0 表示男性，1 表示女性", Kind: extract.KindEnum, Required: true},
			{Name: "year", Desc: "出生年份，例如 2024", Kind: extract.KindInt, Required: true},
			{Name: "month", Desc: "出生月份，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "day", Desc: "出生日，例如 1", Kind: extract.KindInt, Required: true},
			{Name: "hours", Desc: "出生时，例如 12", Kind: extract.KindInt, Required: true},
		},
	}
}
