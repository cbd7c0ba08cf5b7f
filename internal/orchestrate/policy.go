package orchestrate

import (
	"fmt"
	"strings"
)

// Policy selects how many strategies run and how results are combined.
type Policy string

const (
	// PolicySmart hoists the strategy preferred for the detected source, falls
	// back through the rest while results stay below GoodEnough and keeps the
	// best.
	PolicySmart Policy = "smart"
	// PolicyEnhanced runs strategies in priority order and keeps the best,
	// stopping early once a result is good enough.
	PolicyEnhanced Policy = "enhanced"
	// PolicyFast runs only the cheapest strategy for the source.
	PolicyFast Policy = "fast"
	// PolicyAggressive runs every strategy under every request profile.
	PolicyAggressive Policy = "aggressive"
)

// ParsePolicy accepts a policy name case-insensitively; empty means smart.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySmart, nil
	case PolicySmart, PolicyEnhanced, PolicyFast, PolicyAggressive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown extraction policy %q (want smart, enhanced, fast or aggressive)", s)
	}
}
