package agent

import "fmt"

// ErrIterationLimit is reported when the iteration budget is exhausted
// without the model producing a final answer.
type ErrIterationLimit struct {
	Limit int
}

// Error returns a formatted error message including the limit.
func (e *ErrIterationLimit) Error() string {
	return fmt.Sprintf("agent: no final answer after %d iterations", e.Limit)
}
