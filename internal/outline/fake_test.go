package outline

import (
	"context"
	"net/http"
	"time"

	"github.com/alphax/wordtrack/internal/fetch"
	"github.com/alphax/wordtrack/internal/retry"
)

var (
	windowStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(7 * 24 * time.Hour)
	testWindow  = Window{Start: windowStart, End: windowEnd}
	before      = windowStart.Add(-30 * 24 * time.Hour)
	inside      = windowStart.Add(2 * 24 * time.Hour)
)

var fastRetry = retry.Policy{MaxAttempts: 10, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 4 * time.Millisecond}

// fakeTree is an in-memory ChildLister. pageSize > 0 splits children into
// cursor pages.
type fakeTree struct {
	children map[string][]Node
	// failures maps a parent to a status code returned for its first n calls;
	// n < 0 fails forever.
	failures map[string]failure
	pageSize int
	calls    map[string]int
}

type failure struct {
	code int
	n    int
}

func newFakeTree() *fakeTree {
	return &fakeTree{children: map[string][]Node{}, failures: map[string]failure{}, calls: map[string]int{}}
}

func (f *fakeTree) add(parent string, nodes ...Node) *fakeTree {
	f.children[parent] = append(f.children[parent], nodes...)
	return f
}

func (f *fakeTree) Children(_ context.Context, parentID, cursor string) (Page, error) {
	f.calls[parentID]++
	if fl, ok := f.failures[parentID]; ok && (fl.n < 0 || f.calls[parentID] <= fl.n) {
		return Page{}, &fetch.StatusError{URL: "fake://" + parentID, Code: fl.code}
	}
	nodes, ok := f.children[parentID]
	if !ok {
		return Page{}, &fetch.StatusError{URL: "fake://" + parentID, Code: http.StatusNotFound}
	}
	if f.pageSize <= 0 {
		return Page{Nodes: nodes}, nil
	}
	start := 0
	if cursor != "" {
		for i, n := range nodes {
			if n.ID == cursor {
				start = i
				break
			}
		}
	}
	end := start + f.pageSize
	if end >= len(nodes) {
		return Page{Nodes: nodes[start:]}, nil
	}
	return Page{Nodes: nodes[start:end], NextCursor: nodes[end].ID}, nil
}

func testAccountant(l ChildLister) *Accountant {
	return &Accountant{Lister: l, Retry: fastRetry, RequestDelay: -1}
}

func node(id, name string, created, modified time.Time) Node {
	return Node{ID: id, Name: name, CreatedAt: created, ModifiedAt: modified}
}
