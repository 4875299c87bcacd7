package domain

// Context keys read by the dispatcher and written by the supervisor when a run starts.
const (
	KeyDeployment = "deployment"
	KeyNamespace  = "namespace"
	KeyProblem    = "problem"
)

// Defaults applied when a key is missing from WorkflowState.Context.
const (
	DefaultDeployment = "unknown"
	DefaultNamespace  = "default"
	DefaultUrgency    = "medium"
	DefaultSeverity   = "medium"
)

// Report markers. A repair report containing either marker is classified as a success.
const (
	MarkerSucceeded = "成功"
	MarkerCompleted = "完成"
)

// Action entries recorded by the single-shot workflow.
const (
	ActionFixAttemptFormat = "执行K8s自动修复: %s"
	ActionFixAttemptFailed = "尝试执行自动修复但失败"
	ReportWorkflowFailed   = "自动修复工作流执行失败: %v"
)
