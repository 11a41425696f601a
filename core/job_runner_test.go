package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造 executing 事件帧，node 传 nil 表示执行结束
func executingFrame(t *testing.T, promptID string, node *string) WsFrame {
	t.Helper()
	data, err := json.Marshal(ExecutingData{PromptID: promptID, Node: node})
	require.NoError(t, err)
	return WsFrame{Message: &ComfyUIMessage{Type: "executing", Data: data}}
}

// 构造带 8 字节帧头的二进制帧
func binaryFrame(payload []byte) WsFrame {
	header := make([]byte, 8)
	return WsFrame{Binary: append(header, payload...)}
}

func strPtr(s string) *string { return &s }

func TestCollectorTransitions(t *testing.T) {
	c := NewCollector("job-1", "11")
	assert.Equal(t, StateWaiting, c.State())

	// 事件命中节点 -> NODE_ACTIVE
	state := c.OnExecuting(ExecutingData{PromptID: "job-1", Node: strPtr("4")})
	assert.Equal(t, StateNodeActive, state)

	// 非输出节点下的二进制帧全部丢弃
	state = c.OnBinary(append(make([]byte, 8), 0xAB))
	assert.Equal(t, StateNodeActive, state)
	assert.Empty(t, c.Images())

	// 切换到输出节点后开始收集
	c.OnExecuting(ExecutingData{PromptID: "job-1", Node: strPtr("11")})
	state = c.OnBinary(append(make([]byte, 8), 0x89, 0x50, 0x4E, 0x47))
	assert.Equal(t, StateCollecting, state)
	require.Len(t, c.Images()["11"], 1)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, c.Images()["11"][0])

	// node=null 且 prompt_id 匹配 -> DONE
	state = c.OnExecuting(ExecutingData{PromptID: "job-1", Node: nil})
	assert.Equal(t, StateDone, state)
	assert.True(t, c.Done())
}

func TestCollectorIgnoresOtherJobs(t *testing.T) {
	c := NewCollector("job-1", "11")

	// 其他任务的 node=null 不能结束本任务
	state := c.OnExecuting(ExecutingData{PromptID: "job-2", Node: nil})
	assert.Equal(t, StateWaiting, state)
	assert.False(t, c.Done())

	// 其他任务的节点切换也不影响当前节点
	c.OnExecuting(ExecutingData{PromptID: "job-2", Node: strPtr("11")})
	c.OnBinary(append(make([]byte, 8), 0x01))
	assert.Empty(t, c.Images())
}

func TestCollectorStripsPreamble(t *testing.T) {
	c := NewCollector("job-1", "11")
	c.OnExecuting(ExecutingData{PromptID: "job-1", Node: strPtr("11")})

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xCA, 0xFE}
	c.OnBinary(payload)
	require.Len(t, c.Images()["11"], 1)
	assert.Equal(t, []byte{0xCA, 0xFE}, c.Images()["11"][0])

	// 只有帧头没有内容的帧直接忽略
	c.OnBinary(make([]byte, 8))
	assert.Len(t, c.Images()["11"], 1)
}

func TestCollectDemultiplexesFrames(t *testing.T) {
	frames := make(chan WsFrame, 16)

	// 节点 A 执行时到达的帧要丢弃，输出节点 11 的帧要保留
	frames <- executingFrame(t, "job-1", strPtr("4"))
	frames <- binaryFrame([]byte{0x01})
	frames <- executingFrame(t, "job-1", strPtr("11"))
	frames <- binaryFrame([]byte{0x89, 0x50})
	frames <- binaryFrame([]byte{0x4E, 0x47})
	// 其他任务的结束事件不应终止循环
	frames <- executingFrame(t, "job-2", nil)
	frames <- executingFrame(t, "job-1", nil)

	runner := NewJobRunner("http://127.0.0.1:8188", "client-1", time.Second)
	images, err := runner.Collect(frames, "job-1", "11")
	require.NoError(t, err)

	require.Len(t, images, 1)
	require.Len(t, images["11"], 2)
	assert.Equal(t, []byte{0x89, 0x50}, images["11"][0])
	assert.Equal(t, []byte{0x4E, 0x47}, images["11"][1])
}

func TestCollectTimeout(t *testing.T) {
	frames := make(chan WsFrame, 1)

	runner := NewJobRunner("http://127.0.0.1:8188", "client-1", 50*time.Millisecond)
	_, err := runner.Collect(frames, "job-1", "11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "超时")
}

func TestCollectChannelClosed(t *testing.T) {
	frames := make(chan WsFrame)
	close(frames)

	runner := NewJobRunner("http://127.0.0.1:8188", "client-1", time.Second)
	_, err := runner.Collect(frames, "job-1", "11")
	assert.Error(t, err)
}

func TestCollectAbortsOnReconnectFailure(t *testing.T) {
	frames := make(chan WsFrame, 2)
	frames <- WsFrame{Message: &ComfyUIMessage{Type: WS_RECONNECT_FAILED, Data: json.RawMessage(`{}`)}}

	runner := NewJobRunner("http://127.0.0.1:8188", "client-1", time.Second)
	_, err := runner.Collect(frames, "job-1", "11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "重连失败")
}
