package interp

// LoopKind tags the resumption state of a While loop bound to a frame
// (spec §4.3, §9). A frame that isn't inside a While has Kind LoopNone.
type LoopKind uint8

const (
	LoopNone LoopKind = iota
	LoopExecutingCondition
	LoopExecutingBody
)

// LoopState records enough to resume a While loop when its condition or
// body lambda returns: which lambdas it called (fixed for the lifetime of
// the loop) and which of the two is currently running.
type LoopState struct {
	Kind   LoopKind
	CondID uint64
	BodyID uint64
}

// Frame is a call-stack entry: the lambda and program counter to resume
// at, plus that caller's own in-progress loop state (the callee always
// starts with a fresh LoopState{Kind: LoopNone}).
type Frame struct {
	LambdaID uint64
	PC       int
	Loop     LoopState
}
