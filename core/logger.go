package core

import (
	"fmt"
	"log"
	"os"
)

// 日志颜色常量
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// 日志类型
type LogType string

const (
	LogTypeWorkflow  LogType = "WORKFLOW"
	LogTypeJobRunner LogType = "JOB_RUNNER"
	LogTypeWsClient  LogType = "WS_CLIENT"
	LogTypeOutput    LogType = "OUTPUT"
)

// 日志配置
type LogConfig struct {
	Type  LogType
	Name  string
	Color string
}

// 预定义的日志配置
var logConfigs = map[LogType]LogConfig{
	LogTypeWorkflow: {
		Type:  LogTypeWorkflow,
		Name:  "Workflow",
		Color: ColorGreen,
	},
	LogTypeJobRunner: {
		Type:  LogTypeJobRunner,
		Name:  "JobRunner",
		Color: ColorCyan,
	},
	LogTypeWsClient: {
		Type:  LogTypeWsClient,
		Name:  "WsClient",
		Color: ColorYellow,
	},
	LogTypeOutput: {
		Type:  LogTypeOutput,
		Name:  "Output",
		Color: ColorPurple,
	},
}

// Logger 结构体
type Logger struct {
	logType LogType
}

// NewLogger 创建新的日志器
func NewLogger(logType LogType) *Logger {
	return &Logger{
		logType: logType,
	}
}

// 检查是否支持颜色输出
func supportsColor() bool {
	// 检查终端是否支持颜色
	if os.Getenv("TERM") == "dumb" {
		return false
	}

	// 检查是否是 Windows 系统（Windows 终端支持颜色）
	if os.Getenv("OS") == "Windows_NT" {
		return true
	}

	// 检查是否是 TTY
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Printf 格式化输出日志
func (l *Logger) Printf(format string, args ...interface{}) {
	if supportsColor() {
		// 整行颜色包裹
		config := logConfigs[l.logType]
		coloredFormat := fmt.Sprintf("%s[%s] %s%s",
			config.Color,
			config.Name,
			format,
			ColorReset,
		)
		log.Printf(coloredFormat, args...)
	} else {
		plainFormat := fmt.Sprintf("[%s] %s", l.logType, format)
		log.Printf(plainFormat, args...)
	}
}

// Println 输出日志
func (l *Logger) Println(args ...interface{}) {
	if supportsColor() {
		config := logConfigs[l.logType]
		message := fmt.Sprint(args...)
		coloredMessage := fmt.Sprintf("%s[%s] %s%s",
			config.Color,
			config.Name,
			message,
			ColorReset,
		)
		log.Println(coloredMessage)
	} else {
		plainMessage := fmt.Sprintf("[%s] %s", l.logType, fmt.Sprint(args...))
		log.Println(plainMessage)
	}
}

// 全局日志器实例
var (
	WorkflowLogger  = NewLogger(LogTypeWorkflow)
	JobRunnerLogger = NewLogger(LogTypeJobRunner)
	WsClientLogger  = NewLogger(LogTypeWsClient)
	OutputLogger    = NewLogger(LogTypeOutput)
)

// 注册新的日志类型
func RegisterLogType(logType LogType, name string, color string) {
	logConfigs[logType] = LogConfig{
		Type:  logType,
		Name:  name,
		Color: color,
	}
}

// 快捷函数
func LogWorkflow(format string, args ...interface{}) {
	WorkflowLogger.Printf(format, args...)
}

func LogJobRunner(format string, args ...interface{}) {
	JobRunnerLogger.Printf(format, args...)
}

func LogWsClient(format string, args ...interface{}) {
	WsClientLogger.Printf(format, args...)
}

func LogOutput(format string, args ...interface{}) {
	OutputLogger.Printf(format, args...)
}
