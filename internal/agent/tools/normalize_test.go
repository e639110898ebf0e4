package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeShengxiao(t *testing.T) {
	body := []byte(`{"data":{"description":"鼠龙相配，大吉。","code":1}}`)
	out := normalizeShengxiao(body, "鼠和龙配吗")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "配对详解", out.Fields[0].Label)
	assert.Equal(t, "鼠龙相配，大吉。", out.Fields[0].Value)
}

func TestNormalizeShengxiaoMissingDescription(t *testing.T) {
	out := normalizeShengxiao([]byte(`{"data":{"code":1}}`), "鼠和龙配吗")
	require.True(t, out.Failed())
	assert.Contains(t, out.Failure, "生肖配对查询失败")
	assert.Contains(t, out.Failure, "鼠和龙配吗")
}

func TestNormalizeBaziFlattensSorted(t *testing.T) {
	body := []byte(`{"data":{"wuxing":"金旺","bazi":["壬申","乙巳"],"xiyongshen":{"wuxing":"水"}}}`)
	out := normalizeBazi(body, "算八字")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 3)
	// sorted key order
	assert.Equal(t, "bazi", out.Fields[0].Label)
	assert.Equal(t, "壬申 乙巳", out.Fields[0].Value)
	assert.Equal(t, "wuxing", out.Fields[1].Label)
	assert.Equal(t, "xiyongshen", out.Fields[2].Label)
	assert.JSONEq(t, `{"wuxing":"水"}`, out.Fields[2].Value)
}

func TestNormalizeYaoguaDropsImage(t *testing.T) {
	body := []byte(`{"data":{"name":"水雷屯","image":"data:image/png;base64,xxxx","jieshi":"艰难创始"}}`)
	out := normalizeYaogua(body, "摇一卦")
	require.False(t, out.Failed())
	for _, f := range out.Fields {
		assert.NotEqual(t, "image", f.Label)
	}
	require.Len(t, out.Fields, 2)
}

func TestNormalizeJiemengKeepsLastThree(t *testing.T) {
	body := []byte(`{"data":[
		{"title":"梦见蛇1","des":"解1"},
		{"title":"梦见蛇2","des":"解2"},
		{"title":"梦见蛇3","des":"解3"},
		{"title":"梦见蛇4","des":"解4"}
	]}`)
	out := normalizeJiemeng(body, "梦见蛇")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 3)
	assert.Equal(t, "梦见蛇2", out.Fields[0].Label)
	assert.Equal(t, "解4", out.Fields[2].Value)
}

func TestNormalizeJiemengEmpty(t *testing.T) {
	out := normalizeJiemeng([]byte(`{"data":[]}`), "梦见蛇")
	assert.True(t, out.Failed())
}

func TestNormalizeHehunKeepsScoresOnly(t *testing.T) {
	body := []byte(`{"data":{
		"score":88,
		"wuxing_score":12,
		"shengxiao_score":9,
		"internal_id":"abc",
		"description":"天作之合"
	}}`)
	out := normalizeHehun(body, "我们八字合吗")
	require.False(t, out.Failed())

	labels := make([]string, 0, len(out.Fields))
	for _, f := range out.Fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"五行分数", "生肖分数", "综合分数", "合婚详解"}, labels)
}

func TestNormalizeHehunAbsentScoresNotFabricated(t *testing.T) {
	out := normalizeHehun([]byte(`{"data":{"wuxing_score":7}}`), "合婚")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "五行分数", out.Fields[0].Label)
	assert.Equal(t, "7", out.Fields[0].Value)
}

func TestNormalizeZeshiArray(t *testing.T) {
	body := []byte(`{"data":[
		{"yangli":"2026-09-10","nongli":"七月廿九","yi":"嫁娶 搬家","ji":"开市"},
		{"yangli":"2026-09-12","nongli":"八月初二","yi":"开市","ji":"安葬"}
	]}`)
	out := normalizeZeshi(body, "下月搬家吉日")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 2)
	assert.Equal(t, "2026-09-10", out.Fields[0].Label)
	assert.Equal(t, "农历 七月廿九｜宜 嫁娶 搬家｜忌 开市", out.Fields[0].Value)
}

func TestNormalizeZeshiNestedList(t *testing.T) {
	body := []byte(`{"data":{"list":[{"yangli":"2026-09-10","nongli":"七月廿九","yi":"嫁娶","ji":"开市"}]}}`)
	out := normalizeZeshi(body, "搬家吉日")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 1)
}

func TestNormalizeWeilaiSelectsKnownKeys(t *testing.T) {
	body := []byte(`{"data":{"nianyun":"整体平稳","caiyun":"偏财可期","raw":"ignored-by-selection"}}`)
	out := normalizeWeilai(body, "明年运势")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 2)
	assert.Equal(t, "年运", out.Fields[0].Label)
	assert.Equal(t, "财运", out.Fields[1].Label)
}

func TestNormalizeWeilaiFallsBackToFlatten(t *testing.T) {
	body := []byte(`{"data":{"something_else":"值"}}`)
	out := normalizeWeilai(body, "明年运势")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "something_else", out.Fields[0].Label)
}

func TestNormalizeQimingList(t *testing.T) {
	body := []byte(`{"data":[{"name":"王泽霖","score":96,"wuxing":"水木"},{"name":"王梓涵","score":93}]}`)
	out := normalizeQiming(body, "给孩子起名")
	require.False(t, out.Failed())
	require.Len(t, out.Fields, 2)
	assert.Equal(t, "王泽霖", out.Fields[0].Label)
	assert.Equal(t, "评分 96｜五行 水木", out.Fields[0].Value)
	assert.Equal(t, "评分 93", out.Fields[1].Value)
}

func TestNormalizeMalformedEnvelope(t *testing.T) {
	out := normalizeBazi([]byte(`not json`), "算命")
	assert.True(t, out.Failed())

	out = normalizeBazi([]byte(`{"code":1}`), "算命")
	assert.True(t, out.Failed())
}
