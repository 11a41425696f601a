package core

import (
	"testing"

	"farshore.ai/comfy-ws-client/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用工作流，覆盖标题节点/类型节点/旧版数字 ID 节点
func testWorkflow() model.Workflow {
	return model.Workflow{
		"3": {
			Inputs: map[string]interface{}{
				"seed":  float64(0),
				"steps": float64(20),
				"cfg":   float64(8),
			},
			ClassType: "KSampler",
			Meta:      model.NodeMeta{Title: "KSampler"},
		},
		"5": {
			Inputs: map[string]interface{}{
				"width":      float64(512),
				"height":     float64(512),
				"batch_size": float64(1),
			},
			ClassType: "EmptyLatentImage",
			Meta:      model.NodeMeta{Title: "Empty Latent Image"},
		},
		"9": {
			Inputs: map[string]interface{}{
				"value": float64(42),
			},
			ClassType: "PrimitiveInt",
			Meta:      model.NodeMeta{Title: "Seed"},
		},
		"10": {
			Inputs: map[string]interface{}{
				"value": "default prompt",
			},
			ClassType: "PrimitiveString",
			Meta:      model.NodeMeta{Title: "ContentPrompt"},
		},
		"11": {
			Inputs: map[string]interface{}{
				"images": []interface{}{"8", 0},
			},
			ClassType: "SaveImageWebsocket",
			Meta:      model.NodeMeta{Title: "Save Image (Websocket)"},
		},
	}
}

func TestUpdateNodeValueByTitle(t *testing.T) {
	workflow := testWorkflow()

	ok := UpdateNodeValue(workflow, "Seed", int64(7))
	require.True(t, ok)
	assert.Equal(t, int64(7), workflow["9"].Inputs["value"])

	// 其余节点保持不变
	assert.Equal(t, "default prompt", workflow["10"].Inputs["value"])
	assert.Equal(t, float64(20), workflow["3"].Inputs["steps"])
}

func TestUpdateNodeValueSeedVariant(t *testing.T) {
	// 旧版种子节点的输入键是 seed 而不是 value
	workflow := model.Workflow{
		"9": {
			Inputs:    map[string]interface{}{"seed": float64(0)},
			ClassType: "Seed (rgthree)",
			Meta:      model.NodeMeta{Title: "Seed"},
		},
	}

	ok := UpdateNodeValue(workflow, "Seed", int64(99))
	require.True(t, ok)
	assert.Equal(t, int64(99), workflow["9"].Inputs["seed"])
}

func TestUpdateNodeValueMissingTitle(t *testing.T) {
	workflow := testWorkflow()
	before := workflow.Clone()

	ok := UpdateNodeValue(workflow, "NoSuchTitle", "x")
	assert.False(t, ok)
	assert.Equal(t, before, workflow)
}

func TestSetSamplerStepsByClassType(t *testing.T) {
	workflow := testWorkflow()

	ok := SetSamplerSteps(workflow, 15, "")
	require.True(t, ok)
	assert.Equal(t, 15, workflow["3"].Inputs["steps"])
}

func TestSetSamplerStepsFallbackID(t *testing.T) {
	workflow := model.Workflow{
		"3": {
			Inputs:    map[string]interface{}{"steps": float64(20)},
			ClassType: "SamplerCustom",
		},
	}

	// 标题和 KSampler 类型都未命中，数字 ID 兜底
	ok := SetSamplerSteps(workflow, 30, "3")
	require.True(t, ok)
	assert.Equal(t, 30, workflow["3"].Inputs["steps"])

	// 兜底也未命中时只告警
	assert.False(t, SetSamplerSteps(workflow, 30, "999"))
}

func TestResolveNode(t *testing.T) {
	workflow := testWorkflow()

	// 标题优先
	nodeID, ok := ResolveNode(workflow, "Seed", "KSampler", "")
	require.True(t, ok)
	assert.Equal(t, "9", nodeID)

	// 标题未命中时按类型
	nodeID, ok = ResolveNode(workflow, "NoSuchTitle", "KSampler", "")
	require.True(t, ok)
	assert.Equal(t, "3", nodeID)

	// 都未命中时按固定 ID
	nodeID, ok = ResolveNode(workflow, "NoSuchTitle", "NoSuchType", "11")
	require.True(t, ok)
	assert.Equal(t, "11", nodeID)

	_, ok = ResolveNode(workflow, "NoSuchTitle", "NoSuchType", "999")
	assert.False(t, ok)
}

func TestAspectSize(t *testing.T) {
	cases := []struct {
		name       string
		ratio      model.ImageRatio
		width      int
		height     int
		wantWidth  int
		wantHeight int
	}{
		{"landscape 压缩高度", model.RatioLandscape, 512, 512, 512, 288},
		{"portrait 压缩宽度", model.RatioPortrait, 512, 512, 288, 512},
		{"square 保持原尺寸", model.RatioSquare, 512, 512, 512, 512},
		{"未识别选项保持原尺寸", model.ImageRatio("wide"), 640, 480, 640, 480},
		{"landscape 向下取整", model.RatioLandscape, 512, 500, 512, 281},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := AspectSize(tc.width, tc.height, tc.ratio)
			assert.Equal(t, tc.wantWidth, w)
			assert.Equal(t, tc.wantHeight, h)
		})
	}
}

func TestApplyAspectRatio(t *testing.T) {
	workflow := testWorkflow()

	ok := ApplyAspectRatio(workflow, model.RatioLandscape)
	require.True(t, ok)
	assert.Equal(t, 512, workflow["5"].Inputs["width"])
	assert.Equal(t, 288, workflow["5"].Inputs["height"])
}

func TestApplySeed(t *testing.T) {
	workflow := testWorkflow()

	ok := ApplySeed(workflow, 12345, "")
	require.True(t, ok)
	assert.Equal(t, int64(12345), workflow["9"].Inputs["value"])

	// seed <= 0 时自动随机，标题节点必须被写入非默认值
	workflow = testWorkflow()
	ok = ApplySeed(workflow, 0, "")
	require.True(t, ok)
	seed, isInt := workflow["9"].Inputs["value"].(int64)
	require.True(t, isInt)
	assert.Greater(t, seed, int64(0))
}

func TestApplyUniqueFilename(t *testing.T) {
	workflow := model.Workflow{
		"8": {
			Inputs:    map[string]interface{}{"filename_prefix": "ComfyUI"},
			ClassType: "SaveImage",
		},
	}

	ApplyUniqueFilename(workflow)
	prefix, isString := workflow["8"].Inputs["filename_prefix"].(string)
	require.True(t, isString)
	assert.Regexp(t, `^ComfyUI_[0-9a-f]{32}$`, prefix)
}

func TestPatchWorkflowDoesNotMutateOriginal(t *testing.T) {
	workflow := testWorkflow()
	before := workflow.Clone()

	params := model.GenerateParams{
		ContentPrompt: "a red bicycle",
		Seed:          7,
		Steps:         15,
		Ratio:         model.RatioPortrait,
	}
	patched := PatchWorkflow(workflow, params, model.NodeConfig{})

	assert.Equal(t, before, workflow)
	assert.Equal(t, "a red bicycle", patched["10"].Inputs["value"])
	assert.Equal(t, int64(7), patched["9"].Inputs["value"])
	assert.Equal(t, 15, patched["3"].Inputs["steps"])
	assert.Equal(t, 288, patched["5"].Inputs["width"])
	assert.Equal(t, 512, patched["5"].Inputs["height"])
}

func TestResolveOutputNode(t *testing.T) {
	workflow := testWorkflow()

	nodeID, err := ResolveOutputNode(workflow, "")
	require.NoError(t, err)
	assert.Equal(t, "11", nodeID)

	// 输出节点缺失且无兜底时报错
	delete(workflow, "11")
	_, err = ResolveOutputNode(workflow, "")
	assert.Error(t, err)

	// 数字 ID 兜底
	nodeID, err = ResolveOutputNode(workflow, "9")
	require.NoError(t, err)
	assert.Equal(t, "9", nodeID)
}
