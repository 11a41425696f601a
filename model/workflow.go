package model

// PromptNode 表示 ComfyUI 工作流里的一个节点
type PromptNode struct {
	Inputs    map[string]interface{} `json:"inputs"`     // 节点输入参数
	ClassType string                 `json:"class_type"` // 节点类型
	Meta      NodeMeta               `json:"_meta"`      // 节点元信息
}

// NodeMeta 是节点的元数据
type NodeMeta struct {
	Title string `json:"title"` // 节点标题
}

// Workflow 是完整的工作流图，节点 ID -> 节点结构
type Workflow map[string]PromptNode

// Clone 深拷贝工作流，避免修改原始数据
func (w Workflow) Clone() Workflow {
	cloned := make(Workflow, len(w))
	for id, node := range w {
		nodeCopy := node
		newInputs := make(map[string]interface{}, len(node.Inputs))
		for key, val := range node.Inputs {
			newInputs[key] = val
		}
		nodeCopy.Inputs = newInputs
		cloned[id] = nodeCopy
	}
	return cloned
}

// ImageRatio 表示生成图片的宽高比选项
type ImageRatio string

const (
	RatioSquare    ImageRatio = "SQUARE"    // 1:1
	RatioLandscape ImageRatio = "LANDSCAPE" // 16:9
	RatioPortrait  ImageRatio = "PORTRAIT"  // 9:16
)

// GenerateParams 是一次生成任务的全部参数
type GenerateParams struct {
	WorkflowName  string     // 工作流文件名
	ContentPrompt string     // 正向提示词
	Seed          int64      // 随机种子，<=0 时自动随机
	Steps         int        // 采样步数
	Size          int        // 基础尺寸
	Ratio         ImageRatio // 宽高比
}
