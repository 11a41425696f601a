package model

// ServerConfig 定义 ComfyUI 服务配置
type ServerConfig struct {
	Host   string `yaml:"host"`    // ComfyUI 服务地址，host:port 格式
	UseSSL bool   `yaml:"use_ssl"` // 是否使用 wss/https
}

// WorkflowConfig 定义工作流配置
type WorkflowConfig struct {
	Folder  string `yaml:"folder"`  // 工作流模板目录
	Default string `yaml:"default"` // 默认工作流文件名
}

// OutputConfig 定义输出配置
type OutputConfig struct {
	Folder     string `yaml:"folder"`      // 输出图片目录
	TimeoutSec int    `yaml:"timeout_sec"` // 等待任务完成的超时时间（秒），<=0 表示不超时
}

// NodeConfig 定义节点定位兜底配置，留空时按标题/类型查找
type NodeConfig struct {
	OutputID  string `yaml:"output_id"`  // 输出节点 ID 兜底
	SamplerID string `yaml:"sampler_id"` // 采样节点 ID 兜底
	SeedID    string `yaml:"seed_id"`    // 种子节点 ID 兜底
}

// S3Config 定义 MinIO/S3 存储配置
type S3Config struct {
	Enabled      bool   `yaml:"enabled"`       // 是否上传生成结果到 S3
	Endpoint     string `yaml:"endpoint"`      // MinIO 服务地址
	Bucket       string `yaml:"bucket"`        // 桶名
	Region       string `yaml:"region"`        // 区域
	AccessKey    string `yaml:"access_key"`    // 访问密钥
	SecretKey    string `yaml:"secret_key"`    // 密钥
	UseSSL       bool   `yaml:"use_ssl"`       // 是否使用 SSL
	OutputPrefix string `yaml:"output_prefix"` // 输出文件前缀
}

// WebhookConfig 定义结果通知配置
type WebhookConfig struct {
	URL string `yaml:"url"` // 通知 WebHook 地址，留空不通知
}

// Config 整体配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Output   OutputConfig   `yaml:"output"`
	Nodes    NodeConfig     `yaml:"nodes"`
	S3       S3Config       `yaml:"s3"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}
