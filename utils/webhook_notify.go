package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const PrefixWord = "🖼️[comfy-ws-client]"

// 全局变量
var Notify *WebhookClient
var (
	// 记录每个通知类型+主机的上次发送时间
	notifyCache = make(map[string]time.Time)
	notifyMu    sync.Mutex
	// 限频间隔
	notifyInterval = 10 * time.Second
)

// InitWebhookClient 函数初始化全局 WebhookClient
func InitWebhookClient(webhook string) {
	Notify = NewWebhookClient(webhook)
	log.Println("✅ Webhook 客户端初始化成功")
}

// Webhook 消息结构体
type WebhookMsg struct {
	MsgType string      `json:"msg_type"`
	Content interface{} `json:"content"`
}

type TextContent struct {
	Text string `json:"text"`
}

// WebhookClient 用于发送消息
type WebhookClient struct {
	Webhook string
}

// NewWebhookClient 初始化一个 WebhookClient
func NewWebhookClient(webhook string) *WebhookClient {
	return &WebhookClient{Webhook: webhook}
}

// SendMsgAsync 异步发送通知消息
func (c *WebhookClient) SendMsgAsync(text string) {
	go func() {
		if err := c.sendMsg(text); err != nil {
			log.Printf("[Webhook] 消息发送失败: %v", err)
		}
	}()
}

// sendMsg 内部发送函数
func (c *WebhookClient) sendMsg(text string) error {
	if c.Webhook == "" {
		return fmt.Errorf("webhook not configured")
	}

	payload := WebhookMsg{
		MsgType: "text",
		Content: TextContent{
			Text: PrefixWord + text,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	resp, err := http.Post(c.Webhook, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("http post error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Println("✅ Webhook 消息发送成功")
	return nil
}

// NotifyLimited 按类型+主机限频发送通知
// notifyType: job_done / job_failed / queue_warning ...
// host: 资源或服务器标识
// message: 通知信息
func (c *WebhookClient) NotifyLimited(notifyType, host, message string) {
	key := fmt.Sprintf("%s_%s", notifyType, host)

	notifyMu.Lock()
	defer notifyMu.Unlock()

	now := time.Now()
	lastTime, exists := notifyCache[key]

	if !exists || now.Sub(lastTime) >= notifyInterval {
		c.SendMsgAsync(message)
		notifyCache[key] = now
	}
}
