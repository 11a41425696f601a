package core

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"farshore.ai/comfy-ws-client/config"
	"farshore.ai/comfy-ws-client/model"
	"github.com/google/uuid"
)

/*

工作流修补器

load : 从模板目录加载工作流 JSON
patch : 注入本次运行参数（提示词/种子/步数/宽高比）

定位策略统一为: 标题 -> class_type -> 固定节点 ID 兜底
没找到节点只告警不报错，使用模板默认值继续提交
*/

// LoadWorkflow 从模板目录加载工作流
func LoadWorkflow(folder, name string) (model.Workflow, error) {
	data, err := os.ReadFile(filepath.Join(folder, name))
	if err != nil {
		return nil, fmt.Errorf("读取工作流文件失败: %w", err)
	}

	var workflow model.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("解析工作流 JSON 失败: %w", err)
	}
	return workflow, nil
}

// FindNodeByTitle 按 _meta.title 精确匹配查找节点，首个命中即返回
func FindNodeByTitle(workflow model.Workflow, title string) (string, bool) {
	for nodeID, node := range workflow {
		if node.Meta.Title == title {
			return nodeID, true
		}
	}
	return "", false
}

// FindNodeByClassType 按 class_type 精确匹配查找节点
func FindNodeByClassType(workflow model.Workflow, classType string) (string, bool) {
	for nodeID, node := range workflow {
		if node.ClassType == classType {
			return nodeID, true
		}
	}
	return "", false
}

// ResolveNode 统一定位策略: 标题 -> class_type -> 固定节点 ID 兜底
func ResolveNode(workflow model.Workflow, title, classType, fallbackID string) (string, bool) {
	if title != "" {
		if nodeID, ok := FindNodeByTitle(workflow, title); ok {
			return nodeID, true
		}
	}
	if classType != "" {
		if nodeID, ok := FindNodeByClassType(workflow, classType); ok {
			return nodeID, true
		}
	}
	if fallbackID != "" {
		if _, ok := workflow[fallbackID]; ok {
			return fallbackID, true
		}
	}
	return "", false
}

// UpdateNodeValue 按标题更新节点输入值。新版参数节点的输入键是
// value，旧版种子节点用 seed，按已有键优先写入
func UpdateNodeValue(workflow model.Workflow, title string, value interface{}) bool {
	nodeID, ok := FindNodeByTitle(workflow, title)
	if !ok {
		LogWorkflow(ColorYellow+"⚠️ 未找到标题为 '%s' 的节点，使用模板默认值", title)
		return false
	}

	node := workflow[nodeID]
	key := "value"
	if _, exists := node.Inputs[key]; !exists {
		if _, exists := node.Inputs["seed"]; exists {
			key = "seed"
		}
	}
	node.Inputs[key] = value
	workflow[nodeID] = node

	LogWorkflow("节点 '%s' (ID: %s) %s 更新为: %v", title, nodeID, key, value)
	return true
}

// SetSamplerSteps 更新采样节点的步数，按标题或 KSampler 类型定位
func SetSamplerSteps(workflow model.Workflow, steps int, fallbackID string) bool {
	nodeID, ok := ResolveNode(workflow, config.NodeTitleSteps, config.SamplerClassType, fallbackID)
	if !ok {
		LogWorkflow(ColorYellow + "⚠️ 未找到采样节点，步数保持模板默认值")
		return false
	}

	node := workflow[nodeID]
	if _, exists := node.Inputs["steps"]; exists {
		node.Inputs["steps"] = steps
	} else {
		node.Inputs["value"] = steps
	}
	workflow[nodeID] = node

	LogWorkflow("采样节点 (ID: %s) 步数更新为: %d", nodeID, steps)
	return true
}

// AspectSize 根据宽高比选项计算目标尺寸。LANDSCAPE 压缩高度，
// PORTRAIT 压缩宽度，SQUARE 或未识别选项保持原尺寸
func AspectSize(width, height int, ratio model.ImageRatio) (int, int) {
	switch ratio {
	case model.RatioLandscape:
		return width, height * 9 / 16
	case model.RatioPortrait:
		return width * 9 / 16, height
	default:
		return width, height
	}
}

// ApplyAspectRatio 把宽高比写入工作流。标题节点存在时写入选项字符串，
// 同时重算 EmptyLatentImage 节点的 width/height
func ApplyAspectRatio(workflow model.Workflow, ratio model.ImageRatio) bool {
	applied := UpdateNodeValue(workflow, config.NodeTitleRatio, string(ratio))

	nodeID, ok := FindNodeByClassType(workflow, config.LatentClassType)
	if !ok {
		return applied
	}

	node := workflow[nodeID]
	width, wok := asInt(node.Inputs["width"])
	height, hok := asInt(node.Inputs["height"])
	if !wok || !hok {
		LogWorkflow(ColorYellow+"⚠️ 潜空间节点 (ID: %s) 缺少 width/height，跳过尺寸调整", nodeID)
		return applied
	}

	newWidth, newHeight := AspectSize(width, height, ratio)
	node.Inputs["width"] = newWidth
	node.Inputs["height"] = newHeight
	workflow[nodeID] = node

	LogWorkflow("潜空间节点 (ID: %s) 尺寸更新为: %dx%d (%s)", nodeID, newWidth, newHeight, ratio)
	return true
}

// ApplySeed 写入种子，seed <= 0 时随机生成。
// 定位顺序: Seed 标题节点 -> 固定节点 ID 兜底 -> 所有含 seed 的数值字段
func ApplySeed(workflow model.Workflow, seed int64, fallbackID string) bool {
	if seed <= 0 {
		seed = rand.Int63()
		LogWorkflow("随机生成种子: %d", seed)
	}

	if UpdateNodeValue(workflow, config.NodeTitleSeed, seed) {
		return true
	}
	// 标题未命中，走固定节点 ID 兜底
	if fallbackID != "" {
		if node, ok := workflow[fallbackID]; ok {
			if _, exists := node.Inputs["seed"]; exists {
				node.Inputs["seed"] = seed
				workflow[fallbackID] = node
				LogWorkflow("种子节点 (ID: %s) seed 更新为: %d", fallbackID, seed)
				return true
			}
		}
	}
	return setSeedFields(workflow, seed)
}

// setSeedFields 对字段名包含 seed 且值为数值类型的字段统一写入新种子，
// 节点连线（数组值）不动
func setSeedFields(workflow model.Workflow, seed int64) bool {
	applied := false
	for id, node := range workflow {
		for key, val := range node.Inputs {
			if strings.Contains(strings.ToLower(key), "seed") && isNumber(val) {
				node.Inputs[key] = seed
				applied = true
			}
		}
		workflow[id] = node
	}
	return applied
}

// ApplyUniqueFilename 给所有 filename_prefix 字段追加唯一 hex UUID，防止冲突覆盖
func ApplyUniqueFilename(workflow model.Workflow) {
	for id, node := range workflow {
		for key, val := range node.Inputs {
			if strings.Contains(strings.ToLower(key), "filename_prefix") {
				if s, ok := val.(string); ok {
					uniqueID := strings.ReplaceAll(uuid.New().String(), "-", "")
					node.Inputs[key] = fmt.Sprintf("%s_%s", s, uniqueID)
				}
			}
		}
		workflow[id] = node
	}
}

// PatchWorkflow 注入本次运行参数，返回修补后的拷贝，不修改原始工作流
func PatchWorkflow(workflow model.Workflow, params model.GenerateParams, nodes model.NodeConfig) model.Workflow {
	patched := workflow.Clone()

	if params.ContentPrompt != "" {
		UpdateNodeValue(patched, config.NodeTitlePrompt, params.ContentPrompt)
	}
	if params.Ratio != "" {
		ApplyAspectRatio(patched, params.Ratio)
	}
	if params.Size > 0 {
		UpdateNodeValue(patched, config.NodeTitleSize, float64(params.Size))
	}
	if params.Steps > 0 {
		SetSamplerSteps(patched, params.Steps, nodes.SamplerID)
	}
	ApplySeed(patched, params.Seed, nodes.SeedID)

	// filename_prefix 自动替换输出文件名，防止冲突覆盖
	ApplyUniqueFilename(patched)

	return patched
}

// ResolveOutputNode 在进入读取循环前解析输出节点 ID。
// 不先解析的话所有二进制帧都会被丢掉
func ResolveOutputNode(workflow model.Workflow, fallbackID string) (string, error) {
	nodeID, ok := ResolveNode(workflow, "", config.OutputClassType, fallbackID)
	if !ok {
		return "", fmt.Errorf("工作流中没有 %s 输出节点", config.OutputClassType)
	}
	return nodeID, nil
}

// 辅助函数 判断是否为数字类型
func isNumber(val interface{}) bool {
	switch val.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

// 辅助函数 JSON 解码后的数字是 float64，统一转 int
func asInt(val interface{}) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
