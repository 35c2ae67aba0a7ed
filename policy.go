package hydrx

import (
	"fmt"
	"strings"
)

// BatchPolicy decides what a batch does when one row fails.
type BatchPolicy int8

const (
	// FailFast aborts the batch at the first failing row.
	FailFast BatchPolicy = iota
	// ContinueOnError hydrates every row and reports all failures together.
	ContinueOnError
)

func (p BatchPolicy) String() string {
	policies := map[BatchPolicy]string{
		FailFast:        "fail_fast",
		ContinueOnError: "continue",
	}

	if str, ok := policies[p]; ok {
		return str
	}
	return "unknown"
}

// ParseBatchPolicy accepts the names returned by BatchPolicy.String.
func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_fast", "failfast":
		return FailFast, nil
	case "continue", "continue_on_error":
		return ContinueOnError, nil
	default:
		return FailFast, fmt.Errorf("%w: unknown batch policy %q", ErrInvalidConfiguration, s)
	}
}
