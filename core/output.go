package core

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SaveImages 把收集到的图片写入输出目录，文件名随机生成。
// 每个输出节点只取第一张，多余的字节块丢弃。原样写入，不校验图片格式
func SaveImages(images map[string][][]byte, outputDir string) ([]string, error) {
	if len(images) == 0 {
		LogOutput("没有收集到图片，跳过写盘")
		return nil, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	var paths []string
	for nodeID, blobs := range images {
		if len(blobs) == 0 {
			continue
		}
		if len(blobs) > 1 {
			LogOutput("节点 %s 收集到 %d 张图片，只保留第一张", nodeID, len(blobs))
		}

		localPath := filepath.Join(outputDir, fmt.Sprintf("%s.png", uuid.New().String()))
		if err := os.WriteFile(localPath, blobs[0], 0644); err != nil {
			return paths, fmt.Errorf("写入图片失败: %w", err)
		}
		LogOutput("✅ 图片已保存: %s (%d 字节)", localPath, len(blobs[0]))
		paths = append(paths, localPath)
	}

	return paths, nil
}

// HistoryResponse 是 /history 接口的返回结构
type HistoryResponse map[string]struct {
	Outputs map[string]struct {
		Images []struct {
			Filename  string `json:"filename"`
			Subfolder string `json:"subfolder"`
			Type      string `json:"type"`
		} `json:"images"`
	} `json:"outputs"`
}

// GetOutputURLs 根据 prompt_id 获取最终 output 类型图片的访问 URL。
// 用于输出节点落盘（SaveImage）而不是走 websocket 的工作流
func GetOutputURLs(baseURL, promptID string) ([]string, error) {
	historyURL := fmt.Sprintf("%s/history/%s", baseURL, promptID)
	resp, err := http.Get(historyURL)
	if err != nil {
		return nil, fmt.Errorf("请求 history 接口失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history 接口返回状态码 %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取 history 响应失败: %w", err)
	}

	var history HistoryResponse
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	task, ok := history[promptID]
	if !ok {
		return nil, fmt.Errorf("history 中未找到 prompt_id: %s", promptID)
	}

	var urls []string
	for _, output := range task.Outputs {
		for _, img := range output.Images {
			if img.Type == "output" { // 只取最终 output 类型
				u := fmt.Sprintf("%s/view?filename=%s&subfolder=%s&type=%s", baseURL, img.Filename, img.Subfolder, img.Type)
				urls = append(urls, u)
			}
		}
	}

	return urls, nil
}

// DownloadFile 下载 URL 文件到本地指定目录，返回本地完整路径
func DownloadFile(fileURL, localDir string) (string, error) {
	parsedURL, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("解析 URL 失败: %w", err)
	}

	// 尝试从 query 参数获取 filename
	filename := parsedURL.Query().Get("filename")
	if filename == "" {
		// fallback: 直接用路径最后一部分
		filename = filepath.Base(parsedURL.Path)
	}

	localPath := filepath.Join(localDir, filename)

	// 创建目录
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return "", fmt.Errorf("创建本地目录失败: %w", err)
	}

	resp, err := http.Get(fileURL)
	if err != nil {
		return "", fmt.Errorf("下载文件失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("下载文件返回状态码 %d", resp.StatusCode)
	}

	outFile, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("创建本地文件失败: %w", err)
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, resp.Body)
	if err != nil {
		return "", fmt.Errorf("写入本地文件失败: %w", err)
	}

	return localPath, nil
}

// FetchHistoryOutputs 获取 promptID 的最终 output 图片并下载到本地，
// websocket 没有收到任何二进制帧时的兜底取图路径
func FetchHistoryOutputs(baseURL, promptID, outputDir string) ([]string, error) {
	urls, err := GetOutputURLs(baseURL, promptID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, u := range urls {
		localPath, err := DownloadFile(u, outputDir)
		if err != nil {
			return nil, fmt.Errorf("下载图片失败 url=%s, err=%w", u, err)
		}
		LogOutput("✅ 图片已下载: %s", localPath)
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}
