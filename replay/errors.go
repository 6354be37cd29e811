package replay

import "fmt"

type ReplayError struct {
	StepIndex int32          `json:"step_index"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Expected  *ExpectedState `json:"expected,omitempty"`
}

// ExpectedState is the table as it stood when a step failed.
type ExpectedState struct {
	Point    int              `json:"point"`
	Phase    string           `json:"phase,omitempty"`
	Bankroll int64            `json:"bankroll"`
	Wagers   map[string]int64 `json:"wagers,omitempty"`
	Rolling  bool             `json:"rolling,omitempty"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}
