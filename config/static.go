package config

const (
	DefaultServerHost     = "127.0.0.1:8188" // ComfyUI 默认服务地址
	DefaultWorkflowFolder = "./workflows"    // 工作流模板目录
	DefaultWorkflowName   = "default.json"   // 默认工作流
	DefaultOutputFolder   = "./images"       // 输出图片目录
	DefaultTimeoutSec     = 300              // 等待任务完成的默认超时（秒）
)

// 节点定位常量。新版工作流按 _meta.title 定位参数节点，
// 旧版工作流没有标题，按 class_type 或固定节点 ID 兜底
const (
	NodeTitlePrompt = "ContentPrompt" // 提示词节点标题
	NodeTitleSeed   = "Seed"          // 种子节点标题
	NodeTitleSteps  = "Steps"         // 步数节点标题
	NodeTitleRatio  = "Ratio"         // 宽高比节点标题
	NodeTitleSize   = "Size"          // 尺寸节点标题

	SamplerClassType = "KSampler"           // 采样节点类型
	OutputClassType  = "SaveImageWebsocket" // 输出节点类型，二进制帧来自该节点
	LatentClassType  = "EmptyLatentImage"   // 潜空间节点类型，持有 width/height
)

const (
	BinaryPreambleSize = 8 // 二进制帧前 8 字节是帧头元数据，需剥离
)
