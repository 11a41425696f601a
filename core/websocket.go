package core

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ComfyUIMessage 是文本帧解析出的事件
type ComfyUIMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WsFrame 是 websocket 上的一帧。文本帧填 Message，二进制帧填 Binary
type WsFrame struct {
	Message *ComfyUIMessage
	Binary  []byte
}

const (
	WS_CONNECTED         = "ws_connected"
	WS_RECONNECT_ATTEMPT = "ws_reconnect_attempt"
	WS_RECONNECT_FAILED  = "ws_reconnect_failed"
	WS_CONNECTION_ERROR  = "ws_connection_error"
	WS_READ_ERROR        = "ws_read_error"
	WS_PARSE_ERROR       = "ws_parse_error"

	MAX_RETRIES    = 3
	RETRY_INTERVAL = 5 * time.Second
)

type WsClient struct {
	host      string
	clientID  string
	useSSL    bool
	conn      *websocket.Conn
	frameChan chan WsFrame
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
}

func NewWsClient(host string, clientID string, useSSL bool) *WsClient {
	return &WsClient{
		host:      host,
		clientID:  clientID,
		useSSL:    useSSL,
		frameChan: make(chan WsFrame, 1000),
		stopCh:    make(chan struct{}),
	}
}

// Start 启动 WebSocket 客户端
func (c *WsClient) Start() error {
	c.wg.Add(1)
	var firstErr error

	go func() {
		defer c.wg.Done()
		retryCount := 0
		for {
			select {
			case <-c.stopCh:
				return
			default:
			}

			err := c.listen()
			if err != nil {
				if firstErr == nil {
					firstErr = err // 记录第一次连接失败
				}
				retryCount++
				c.pushEvent(WS_RECONNECT_ATTEMPT, map[string]interface{}{"msg": err.Error()})
				if retryCount > MAX_RETRIES {
					c.pushEvent(WS_RECONNECT_FAILED, map[string]interface{}{"error": err.Error()})
					return
				}
				LogWsClient("WebSocket异常: %v, %d秒后重试 (第 %d 次)", err, RETRY_INTERVAL/time.Second, retryCount)
				time.Sleep(RETRY_INTERVAL)
			} else {
				retryCount = 0
				c.pushEvent(WS_CONNECTED, map[string]interface{}{"msg": "WebSocket 已连接"})
			}
		}
	}()

	return firstErr
}

// Stop 停止 WebSocket 客户端
func (c *WsClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stopCh)

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("关闭 WebSocket 失败: %w", err)
		}
	}

	c.wg.Wait()
	close(c.frameChan)
	return nil
}

// Frames 获取帧通道
func (c *WsClient) Frames() <-chan WsFrame {
	return c.frameChan
}

// 内部监听逻辑
func (c *WsClient) listen() error {
	scheme := "ws"
	if c.useSSL {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   c.host,
		Path:   "/ws",
	}
	q := u.Query()
	q.Set("clientId", c.clientID)
	u.RawQuery = q.Encode()

	LogWsClient("连接 WebSocket: %s", u.String())
	dialer := websocket.Dialer{}
	if c.useSSL {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		c.pushEvent(WS_CONNECTION_ERROR, map[string]interface{}{"msg": err.Error()})
		return fmt.Errorf("连接失败: %w", err)
	}
	c.conn = conn

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			c.pushEvent(WS_READ_ERROR, map[string]interface{}{"msg": err.Error()})
			return fmt.Errorf("读取消息失败: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			// 二进制帧原样转发，帧头由消费方剥离
			c.pushFrame(WsFrame{Binary: msg})
		case websocket.TextMessage:
			var parsed ComfyUIMessage
			if err := json.Unmarshal(msg, &parsed); err != nil {
				c.pushEvent(WS_PARSE_ERROR, map[string]interface{}{"msg": err.Error()})
				continue
			}
			c.pushFrame(WsFrame{Message: &parsed})
		}
	}
}

// pushFrame 辅助函数
func (c *WsClient) pushFrame(frame WsFrame) {
	select {
	case c.frameChan <- frame:
	default:
		LogWsClient("消息队列已满，丢弃帧")
	}
}

// pushEvent 推送内部状态事件
func (c *WsClient) pushEvent(typ string, v interface{}) {
	select {
	case c.frameChan <- WsFrame{Message: &ComfyUIMessage{Type: typ, Data: mustMarshal(v)}}:
	default:
		LogWsClient("消息队列已满，丢弃内部消息 type=%s", typ)
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
