package assistant

// State 是一次发送在编排器中的阶段。
//
//	Idle ─> Classifying ─> Dispatching ─┬─> Succeeded ─> Idle
//	                          ^         ├─> Retrying ─┐
//	                          └─────────┼─────────────┘
//	                                    └─> Failed ────> Idle
type State int

const (
	StateIdle State = iota
	StateClassifying
	StateDispatching
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifying:
		return "classifying"
	case StateDispatching:
		return "dispatching"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event 描述一次状态迁移。
type Event struct {
	State       State
	Attempt     int   // 即将进行或刚完成的尝试序号，从 1 开始
	MaxAttempts int   // 总尝试次数上限
	Err         error // Retrying / Failed 时为触发迁移的错误
}

// StateHook 接收状态迁移通知，在发送所在的 goroutine 中同步调用。
type StateHook func(Event)
