package config

import (
	"os"

	"farshore.ai/comfy-ws-client/model"
	"gopkg.in/yaml.v3"
)

// LoadConfig 从 YAML 文件加载配置

func LoadConfig(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config model.Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	applyDefaults(&config)
	return &config, nil
}

// applyDefaults 填充缺省配置项
func applyDefaults(config *model.Config) {
	if config.Server.Host == "" {
		config.Server.Host = DefaultServerHost
	}
	if config.Workflow.Folder == "" {
		config.Workflow.Folder = DefaultWorkflowFolder
	}
	if config.Workflow.Default == "" {
		config.Workflow.Default = DefaultWorkflowName
	}
	if config.Output.Folder == "" {
		config.Output.Folder = DefaultOutputFolder
	}
	if config.Output.TimeoutSec == 0 {
		config.Output.TimeoutSec = DefaultTimeoutSec
	}
}
