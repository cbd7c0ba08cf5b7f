// Package outline walks a hierarchical outline through its paginated
// children API and accounts for words added inside a time window.
package outline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWindow is returned when a window starts after it ends.
var ErrInvalidWindow = errors.New("invalid time window: start is after end")

// Node is one outline item. Timestamps are normalized at decode time.
type Node struct {
	ID         string
	Name       string
	Note       string
	Priority   int
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Text is the countable text of a node.
func (n Node) Text() string { return n.Name + " " + n.Note }

type rawNode struct {
	ID         string          `json:"id"`
	Name       *string         `json:"name"`
	Note       *string         `json:"note"`
	Priority   int             `json:"priority"`
	CreatedAt  json.RawMessage `json:"createdAt"`
	ModifiedAt json.RawMessage `json:"modifiedAt"`
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw rawNode
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	created, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("node %s createdAt: %w", raw.ID, err)
	}
	modified, err := parseTimestamp(raw.ModifiedAt)
	if err != nil {
		return fmt.Errorf("node %s modifiedAt: %w", raw.ID, err)
	}
	*n = Node{ID: raw.ID, Priority: raw.Priority, CreatedAt: created, ModifiedAt: modified}
	if raw.Name != nil {
		n.Name = *raw.Name
	}
	if raw.Note != nil {
		n.Note = *raw.Note
	}
	return nil
}

// epochMillisThreshold separates second and millisecond epochs. As seconds it
// is the year 5138; as milliseconds it is March 1973.
const epochMillisThreshold = 1e11

// ParseEpoch converts an upstream epoch value to a time, detecting whether it
// is in seconds or milliseconds. Zero yields the zero time.
func ParseEpoch(v float64) time.Time {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}
	}
	if math.Abs(v) >= epochMillisThreshold {
		return time.UnixMilli(int64(v)).UTC()
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// parseTimestamp accepts a JSON number, a numeric string, an RFC 3339 string
// or null.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return ParseEpoch(f), nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
		}
		return t.UTC(), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return time.Time{}, err
	}
	return ParseEpoch(f), nil
}

// Window is a closed time interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate fails fast on an inverted window.
func (w Window) Validate() error {
	if w.Start.After(w.End) {
		return fmt.Errorf("%w (%s > %s)", ErrInvalidWindow, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies inside the window. The zero time is never
// inside.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// touchedSince reports whether n was created or modified at or after start.
func touchedSince(n Node, start time.Time) bool {
	return (!n.CreatedAt.IsZero() && !n.CreatedAt.Before(start)) ||
		(!n.ModifiedAt.IsZero() && !n.ModifiedAt.Before(start))
}

// Progress is the result of one accumulation.
type Progress struct {
	WordsAdded           int      `json:"wordsAdded"`
	NodesCreatedInRange  int      `json:"nodesCreatedInRange"`
	NodesModifiedInRange int      `json:"nodesModifiedInRange"`
	NodesVisited         int      `json:"nodesVisited"`
	BranchesAbandoned    int      `json:"branchesAbandoned"`
	Diagnostics          []string `json:"diagnostics,omitempty"`
}
