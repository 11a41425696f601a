package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"farshore.ai/comfy-ws-client/model"
)

// PromptCommitResponse 定义接口返回的结构
type PromptCommitResponse struct {
	PromptID   string                 `json:"prompt_id"`
	NodeErrors map[string]interface{} `json:"node_errors,omitempty"`
	Number     int                    `json:"number,omitempty"`
}

// PromptCommit 提交 prompt，如果有prompt_id，返回prompt_id
func PromptCommit(baseURL string, workflow model.Workflow, clientID string) (string, error) {
	fullURL := fmt.Sprintf("%s/prompt", strings.TrimRight(baseURL, "/"))
	body := map[string]interface{}{
		"prompt":    workflow,
		"client_id": clientID,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt: %w", err)
	}

	req, err := http.NewRequest("POST", fullURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to queue prompt: %s", string(respBody))
	}

	// 解析 JSON 到结构体
	var result PromptCommitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.NodeErrors) > 0 {
		LogJobRunner(ColorYellow+"⚠️ 服务端节点校验告警: %v", result.NodeErrors)
	}

	// 日志打印
	LogJobRunner("🚀 Prompt 提交到 %s, 返回 prompt_id: %s", baseURL, result.PromptID)

	return result.PromptID, nil
}

// BaseURL 根据配置拼接 HTTP 访问地址
func BaseURL(server model.ServerConfig) string {
	scheme := "http"
	if server.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, server.Host)
}
