// comfyui 任务提交 测试函数
package main

import (
	"fmt"

	"farshore.ai/comfy-ws-client/core"
	"farshore.ai/comfy-ws-client/model"
)

func main() {
	baseURL := "http://127.0.0.1:8188"
	workflow := model.Workflow{
		"2": {
			Inputs: map[string]interface{}{
				"value": "你好",
			},
			ClassType: "PrimitiveString",
			Meta:      model.NodeMeta{Title: "String"},
		},
		"3": {
			Inputs: map[string]interface{}{
				"text":  []interface{}{"2", 0},
				"text2": "你好",
			},
			ClassType: "ShowText|pysssss",
			Meta:      model.NodeMeta{Title: "Show Text 🐍"},
		},
	}

	res, err := core.PromptCommit(baseURL, workflow, "1234567890")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res)
}
