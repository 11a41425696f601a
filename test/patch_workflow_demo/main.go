package main

import (
	"fmt"
	"log"

	"farshore.ai/comfy-ws-client/core"
	"farshore.ai/comfy-ws-client/model"
)

func main() {
	// 1️⃣ 加载默认工作流
	workflow, err := core.LoadWorkflow("./workflows", "default.json")
	if err != nil {
		log.Fatalf("❌ 加载工作流失败: %v", err)
	}

	// 2️⃣ 注入运行参数
	params := model.GenerateParams{
		ContentPrompt: "A lighthouse on a cliff at sunset",
		Seed:          42,
		Steps:         15,
		Size:          512,
		Ratio:         model.RatioPortrait,
	}
	patched := core.PatchWorkflow(workflow, params, model.NodeConfig{})

	// 3️⃣ 打印修补后的节点输入
	fmt.Println("🔀 参数注入后的结果:")
	for id, node := range patched {
		fmt.Printf("  - %s (%s): %v\n", id, node.ClassType, node.Inputs)
	}

	// 4️⃣ 解析输出节点
	outputNodeID, err := core.ResolveOutputNode(patched, "")
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println("📤 输出节点 ID:", outputNodeID)
	fmt.Println("✅ 执行完成！")
}
