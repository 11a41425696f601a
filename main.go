package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"farshore.ai/comfy-ws-client/config"
	"farshore.ai/comfy-ws-client/core"
	"farshore.ai/comfy-ws-client/model"
	"farshore.ai/comfy-ws-client/utils"
	"github.com/google/uuid"
)

func main() {
	configPath := "./config.yaml"
	// 1️⃣ 加载配置
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	// 获取 webhook 相关配置并初始化
	if cfg.Webhook.URL != "" {
		utils.InitWebhookClient(cfg.Webhook.URL)
	}

	// 2️⃣ 本次运行参数，种子置 0 自动随机
	params := model.GenerateParams{
		WorkflowName:  cfg.Workflow.Default,
		ContentPrompt: "A beautiful space station in the sky, seen from the ground",
		Seed:          0,
		Steps:         15,
		Size:          512,
		Ratio:         model.RatioLandscape,
	}

	// 3️⃣ 加载工作流并注入参数
	workflow, err := core.LoadWorkflow(cfg.Workflow.Folder, params.WorkflowName)
	if err != nil {
		log.Fatalf("❌ 加载工作流失败: %v", err)
	}
	patched := core.PatchWorkflow(workflow, params, cfg.Nodes)

	// ⚠️ 输出节点必须在进入读取循环前解析，否则二进制帧全部丢失
	outputNodeID, err := core.ResolveOutputNode(patched, cfg.Nodes.OutputID)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 4️⃣ 建立 WebSocket 连接，必须先于提交，避免漏掉事件
	clientID := uuid.New().String()
	wsClient := core.NewWsClient(cfg.Server.Host, clientID, cfg.Server.UseSSL)
	if err := wsClient.Start(); err != nil {
		log.Fatalf("❌ WebSocket 连接失败: %v", err)
	}
	defer wsClient.Stop()

	// 5️⃣ 提交任务
	baseURL := core.BaseURL(cfg.Server)
	promptID, err := core.PromptCommit(baseURL, patched, clientID)
	if err != nil {
		notifyResult("job_failed", cfg, fmt.Sprintf("任务提交失败: %v", err))
		log.Fatalf("❌ 提交任务失败: %v", err)
	}

	// 6️⃣ 监听并收集输出
	timeout := time.Duration(cfg.Output.TimeoutSec) * time.Second
	runner := core.NewJobRunner(baseURL, clientID, timeout)
	images, err := runner.Collect(wsClient.Frames(), promptID, outputNodeID)
	if err != nil {
		notifyResult("job_failed", cfg, fmt.Sprintf("任务失败 prompt_id=%s: %v", promptID, err))
		log.Fatalf("❌ 收集输出失败: %v", err)
	}

	// 7️⃣ 写盘。websocket 没有收到图片时走 history 兜底
	var paths []string
	if len(images) > 0 {
		paths, err = core.SaveImages(images, cfg.Output.Folder)
	} else {
		paths, err = core.FetchHistoryOutputs(baseURL, promptID, cfg.Output.Folder)
	}
	if err != nil {
		log.Fatalf("❌ 保存图片失败: %v", err)
	}

	// 8️⃣ 可选：上传 S3
	if cfg.S3.Enabled && len(paths) > 0 {
		s3client, err := core.NewS3Client(cfg.S3)
		if err != nil {
			log.Fatalf("❌ 初始化 S3 客户端失败: %v", err)
		}
		urls, err := s3client.UploadOutputFiles(context.Background(), paths)
		if err != nil {
			log.Fatalf("❌ 上传 S3 失败: %v", err)
		}
		for _, u := range urls {
			log.Printf("🔗 %s", u)
		}
	}

	notifyResult("job_done", cfg, fmt.Sprintf("任务完成 prompt_id=%s, 生成图片 %d 张", promptID, len(paths)))
	log.Printf("✅ 完成，共保存 %d 张图片到 %s", len(paths), cfg.Output.Folder)
}

// notifyResult 辅助函数，webhook 未配置时跳过
func notifyResult(notifyType string, cfg *model.Config, message string) {
	if utils.Notify != nil {
		utils.Notify.NotifyLimited(notifyType, cfg.Server.Host, message)
	}
}
