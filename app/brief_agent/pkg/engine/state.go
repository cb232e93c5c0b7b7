package engine

// State 编排状态机的状态
type State int

const (
	Planning State = iota
	Acting
	Reflecting
	Revising
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Planning:
		return "planning"
	case Acting:
		return "acting"
	case Reflecting:
		return "reflecting"
	case Revising:
		return "revising"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// maxGenerations 首次生成加一次修订
const maxGenerations = 2
