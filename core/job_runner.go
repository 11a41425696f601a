package core

import (
	"encoding/json"
	"fmt"
	"time"

	"farshore.ai/comfy-ws-client/config"
)

/*

任务运行器

commit : 提交工作流，获得 prompt_id
collect : 消费 websocket 帧，按 prompt_id 过滤 executing 事件，
          在输出节点处于执行状态时收集二进制图片帧

读取循环建模为显式状态机:
WAITING -> (executing 事件命中节点) -> NODE_ACTIVE
NODE_ACTIVE -> (二进制帧且当前节点==输出节点) -> COLLECTING
任意状态 -> (executing 事件 node=null 且 prompt_id 匹配) -> DONE
*/

// RunState 是读取循环的状态
type RunState int

const (
	StateWaiting RunState = iota
	StateNodeActive
	StateCollecting
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateNodeActive:
		return "NODE_ACTIVE"
	case StateCollecting:
		return "COLLECTING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Collector 维护一次任务的读取循环状态和收集到的图片
type Collector struct {
	promptID     string
	outputNodeID string
	currentNode  string
	state        RunState
	images       map[string][][]byte
}

// NewCollector 创建采集器。outputNodeID 必须在进入读取循环前解析好
func NewCollector(promptID, outputNodeID string) *Collector {
	return &Collector{
		promptID:     promptID,
		outputNodeID: outputNodeID,
		state:        StateWaiting,
		images:       make(map[string][][]byte),
	}
}

// OnExecuting 处理 executing 事件，返回转移后的状态。
// 其他任务的事件直接忽略，node=null 表示本任务执行结束
func (c *Collector) OnExecuting(data ExecutingData) RunState {
	if data.PromptID != c.promptID {
		return c.state
	}
	if data.Node == nil {
		c.state = StateDone
		return c.state
	}
	c.currentNode = *data.Node
	if c.state == StateWaiting {
		c.state = StateNodeActive
	}
	return c.state
}

// OnBinary 处理二进制帧。只保留当前节点是输出节点时到达的帧，
// 前 8 字节帧头剥离后追加，其余节点下的帧全部丢弃
func (c *Collector) OnBinary(payload []byte) RunState {
	if c.currentNode != c.outputNodeID {
		return c.state
	}
	if len(payload) <= config.BinaryPreambleSize {
		return c.state
	}
	c.images[c.currentNode] = append(c.images[c.currentNode], payload[config.BinaryPreambleSize:])
	c.state = StateCollecting
	return c.state
}

// State 返回当前状态
func (c *Collector) State() RunState {
	return c.state
}

// Done 判断任务是否结束
func (c *Collector) Done() bool {
	return c.state == StateDone
}

// Images 返回收集到的图片，输出节点 ID -> 有序字节块
func (c *Collector) Images() map[string][][]byte {
	return c.images
}

// JobRunner 把一次任务串起来: 提交、监听、收集
type JobRunner struct {
	baseURL  string
	clientID string
	timeout  time.Duration
}

// NewJobRunner 创建任务运行器。timeout <= 0 表示无限等待
func NewJobRunner(baseURL, clientID string, timeout time.Duration) *JobRunner {
	return &JobRunner{
		baseURL:  baseURL,
		clientID: clientID,
		timeout:  timeout,
	}
}

// Collect 消费帧通道直到任务完成或超时，返回收集到的图片
func (r *JobRunner) Collect(frames <-chan WsFrame, promptID, outputNodeID string) (map[string][][]byte, error) {
	collector := NewCollector(promptID, outputNodeID)

	// timeout <= 0 时 deadline 保持 nil，select 永不超时
	var deadline <-chan time.Time
	if r.timeout > 0 {
		deadline = time.After(r.timeout)
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return collector.Images(), fmt.Errorf("帧通道已关闭，任务未完成")
			}
			if frame.Binary != nil {
				collector.OnBinary(frame.Binary)
				continue
			}
			if err := r.handleMessage(collector, frame.Message); err != nil {
				return collector.Images(), err
			}
			if collector.Done() {
				LogJobRunner("✅ 任务完成, prompt_id: %s, 收集图片: %d 张", promptID, countImages(collector.Images()))
				return collector.Images(), nil
			}
		case <-deadline:
			return collector.Images(), fmt.Errorf("等待超时(%s)，任务结果未收到", r.timeout)
		}
	}
}

// handleMessage 处理单条文本事件。只有 executing 参与状态转移，
// 其余类型仅打印进度日志
func (r *JobRunner) handleMessage(collector *Collector, msg *ComfyUIMessage) error {
	if msg == nil {
		return nil
	}
	switch msg.Type {
	case "executing":
		var data ExecutingData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			state := collector.OnExecuting(data)
			if data.Node != nil {
				LogJobRunner("[Executing] prompt_id: %s node: %s 状态: %s", data.PromptID, *data.Node, state)
			}
		}
	case "progress":
		var data ProgressData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			LogJobRunner("[Progress] prompt_id: %s node: %s %d/%d", data.PromptID, data.Node, data.Value, data.Max)
		}
	case "status":
		var data StatusData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			LogJobRunner("[Status] 队列剩余: %d", data.Status.ExecInfo.QueueRemaining)
		}
	case "execution_start":
		var data ExecutionData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			LogJobRunner("[ExecutionStart] prompt_id: %s", data.PromptID)
		}
	case "execution_success":
		var data ExecutionData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			LogJobRunner("[ExecutionSuccess] prompt_id: %s", data.PromptID)
		}
	case "execution_cached":
		var data ExecutionCachedData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			LogJobRunner("[ExecutionCached] prompt_id: %s nodes: %v", data.PromptID, data.Nodes)
		}
	case WS_CONNECTED:
		LogJobRunner("[WSConnected] WebSocket 连接成功")
	case WS_RECONNECT_ATTEMPT:
		LogJobRunner("[WSReconnect] 尝试重连")
	case WS_RECONNECT_FAILED:
		return fmt.Errorf("WebSocket 重连失败，任务中止")
	case WS_CONNECTION_ERROR, WS_READ_ERROR, WS_PARSE_ERROR:
		var data SystemData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			LogJobRunner("[Error] %s", data.Message)
		}
	default:
		// 其余事件类型与采集无关，静默跳过
	}
	return nil
}

// countImages 辅助函数
func countImages(images map[string][][]byte) int {
	total := 0
	for _, blobs := range images {
		total += len(blobs)
	}
	return total
}

// ============================== 消息类型定义 =======================================

// 节点执行中。Node 为 null 表示任务执行结束
type ExecutingData struct {
	DisplayNode string  `json:"display_node"` // 显示名称
	Node        *string `json:"node"`         // 节点 ID
	PromptID    string  `json:"prompt_id"`
}

// 进度消息
type ProgressData struct {
	Max      int    `json:"max"`       // 总量
	Node     string `json:"node"`      // 节点名称
	PromptID string `json:"prompt_id"` // 任务 ID
	Value    int    `json:"value"`     // 当前进度
}

// 执行开始 / 执行成功
type ExecutionData struct {
	PromptID  string `json:"prompt_id"`
	Timestamp int64  `json:"timestamp"`
}

// 缓存执行
type ExecutionCachedData struct {
	Nodes     []string `json:"nodes"` // 缓存的节点列表
	PromptID  string   `json:"prompt_id"`
	Timestamp int64    `json:"timestamp"`
}

// 状态消息
type StatusData struct {
	SID    string `json:"sid"`
	Status struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"` // 队列剩余任务数
		} `json:"exec_info"`
	} `json:"status"`
}

// 系统消息
type SystemData struct {
	Message string `json:"msg"`
}
