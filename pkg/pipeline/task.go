package pipeline

import (
	"fmt"

	"StockPilot/pkg/model"
)

// TaskState 单标的任务状态
type TaskState int

const (
	TaskPending TaskState = iota
	TaskFetching
	TaskFetched
	TaskFetchFailed // 终态
	TaskAnalyzing
	TaskCompleted      // 终态，持有 AnalysisResult
	TaskAnalysisFailed // 终态
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskFetching:
		return "fetching"
	case TaskFetched:
		return "fetched"
	case TaskFetchFailed:
		return "fetch_failed"
	case TaskAnalyzing:
		return "analyzing"
	case TaskCompleted:
		return "completed"
	case TaskAnalysisFailed:
		return "analysis_failed"
	}
	return "unknown"
}

// 合法的状态迁移表，终态无出边
var taskTransitions = map[TaskState][]TaskState{
	TaskPending:   {TaskFetching},
	TaskFetching:  {TaskFetched, TaskFetchFailed},
	TaskFetched:   {TaskAnalyzing},
	TaskAnalyzing: {TaskCompleted, TaskAnalysisFailed},
}

// Task 单标的流水线任务，由单个 worker 独占驱动，无需加锁
type Task struct {
	Symbol string
	state  TaskState
	result *model.AnalysisResult
	err    error
}

// NewTask 创建待处理任务
func NewTask(symbol string) *Task {
	return &Task{Symbol: symbol, state: TaskPending}
}

// State 当前状态
func (t *Task) State() TaskState { return t.state }

// Result 完成态的分析结果，其余状态为 nil
func (t *Task) Result() *model.AnalysisResult { return t.result }

// Err 失败原因
func (t *Task) Err() error { return t.err }

// transition 校验并执行一次状态迁移
func (t *Task) transition(to TaskState) error {
	for _, allowed := range taskTransitions[t.state] {
		if allowed == to {
			t.state = to
			return nil
		}
	}
	return fmt.Errorf("非法状态迁移: %s -> %s (%s)", t.state, to, t.Symbol)
}

func (t *Task) markFetching() error { return t.transition(TaskFetching) }
func (t *Task) markFetched() error  { return t.transition(TaskFetched) }

func (t *Task) markFetchFailed(err error) error {
	t.err = err
	return t.transition(TaskFetchFailed)
}

func (t *Task) markAnalyzing() error { return t.transition(TaskAnalyzing) }

func (t *Task) markCompleted(result *model.AnalysisResult) error {
	t.result = result
	return t.transition(TaskCompleted)
}

func (t *Task) markAnalysisFailed(err error) error {
	t.err = err
	return t.transition(TaskAnalysisFailed)
}
