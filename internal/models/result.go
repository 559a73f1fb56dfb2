package models

// StageVerdict 管道阶段处理结果类型
type StageVerdict int

const (
	VerdictPass StageVerdict = iota // 通过,继续下一阶段
	VerdictDrop                     // 丢弃,记录原因后终止
	VerdictFail                     // 阶段失败,记录错误后终止
)

// StageResult 管道阶段的显式处理结果
// 代替异常控制流: 管道驱动器根据结果类型分支,不做panic/recover
type StageResult struct {
	Verdict StageVerdict
	Reason  string // Drop时的丢弃原因
	Err     error  // Fail时的错误
}

// Pass 阶段通过
func Pass() StageResult {
	return StageResult{Verdict: VerdictPass}
}

// Drop 丢弃数据项
func Drop(reason string) StageResult {
	return StageResult{Verdict: VerdictDrop, Reason: reason}
}

// Fail 阶段失败
func Fail(err error) StageResult {
	return StageResult{Verdict: VerdictFail, Err: err}
}

// Passed 是否通过
func (r StageResult) Passed() bool { return r.Verdict == VerdictPass }

// Dropped 是否被丢弃
func (r StageResult) Dropped() bool { return r.Verdict == VerdictDrop }

// Failed 是否失败
func (r StageResult) Failed() bool { return r.Verdict == VerdictFail }
