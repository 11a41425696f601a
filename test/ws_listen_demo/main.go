package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"farshore.ai/comfy-ws-client/core"
)

func main() {
	host := "127.0.0.1:8188"
	clientID := "test-client"

	// 创建 WebSocket 客户端
	wsClient := core.NewWsClient(host, clientID, false)
	wsClient.Start()

	log.Printf("开始监听 WebSocket 消息，服务器: %s, 客户端ID: %s", host, clientID)
	log.Printf("按 Ctrl+C 停止监听...")

	// 打印收到的帧
	go func() {
		for frame := range wsClient.Frames() {
			if frame.Binary != nil {
				log.Printf("收到二进制帧: %d 字节", len(frame.Binary))
				continue
			}
			log.Printf("收到事件: type=%s data=%s", frame.Message.Type, string(frame.Message.Data))
		}
	}()

	// 等待中断信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh

	log.Println("正在停止 WebSocket 客户端...")
	wsClient.Stop()

	log.Println("程序已退出")
}
