package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func baseArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"--env-file", filepath.Join(dir, "none.env"),
		"--cache-dir", filepath.Join(dir, "cache"),
		"--store", filepath.Join(dir, "snapshots.db"),
	}
}

func essayServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/essay":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><article><p>" + strings.Repeat("Words pile up slowly. ", 10) + "</p></article></body></html>"))
		default:
			http.Error(w, "nope", http.StatusForbidden)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_CountPrintsJSON(t *testing.T) {
	srv := essayServer(t)
	var out, errOut bytes.Buffer
	args := append(append([]string{"count"}, baseArgs(t)...), srv.URL+"/essay")
	if code := run(args, &out, &errOut); code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, errOut.String())
	}
	var got countOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if got.WordCount != 40 || got.Method != "dom_text" {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestRun_CountWithGoalThenHistory(t *testing.T) {
	srv := essayServer(t)
	common := baseArgs(t)
	for i := 0; i < 2; i++ {
		var out, errOut bytes.Buffer
		args := append(append([]string{"count", "--goal", "g1"}, common...), srv.URL+"/essay")
		if code := run(args, &out, &errOut); code != exitOK {
			t.Fatalf("exit %d, stderr: %s", code, errOut.String())
		}
		if i == 1 && !strings.Contains(out.String(), `"delta": 0`) {
			t.Fatalf("second snapshot should report a zero delta: %s", out.String())
		}
	}
	var out, errOut bytes.Buffer
	if code := run(append(append([]string{"history"}, common...), "g1"), &out, &errOut); code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, errOut.String())
	}
	var snaps []map[string]any
	if err := json.Unmarshal(out.Bytes(), &snaps); err != nil || len(snaps) != 2 {
		t.Fatalf("expected two snapshots, got %s (%v)", out.String(), err)
	}
}

func TestRun_ExtractionFailureExitCode(t *testing.T) {
	srv := essayServer(t)
	var out, errOut bytes.Buffer
	args := append(append([]string{"count", "--policy", "enhanced"}, baseArgs(t)...), srv.URL+"/private")
	if code := run(args, &out, &errOut); code != exitExtractionFailed {
		t.Fatalf("expected exit %d, got %d (stderr %s)", exitExtractionFailed, code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "hint: ") {
		t.Fatalf("expected a hint on stderr, got %q", errOut.String())
	}
}

func TestRun_ValidateGoalFallback(t *testing.T) {
	var out, errOut bytes.Buffer
	args := append([]string{"validate-goal", "--title", "Essay", "--target-words", "800"}, baseArgs(t)...)
	if code := run(args, &out, &errOut); code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), `"fromFallback": true`) {
		t.Fatalf("expected fallback assessment, got %s", out.String())
	}
}

func TestRun_ProgressRequiresOutline(t *testing.T) {
	var out, errOut bytes.Buffer
	args := append([]string{"progress", "root", "--since", "7d", "-q"}, baseArgs(t)...)
	if code := run(args, &out, &errOut); code != exitError {
		t.Fatalf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(errOut.String(), "not configured") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"version"}, &out, &errOut); code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.HasPrefix(out.String(), "wordtrack ") {
		t.Fatalf("unexpected version output: %q", out.String())
	}
}

func TestParseWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	w, err := parseWindow("2026-03-01", "2026-03-02", "", now)
	if err != nil {
		t.Fatalf("parseWindow: %v", err)
	}
	if !w.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || w.End.Before(time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("date-only end should cover the whole day: %+v", w)
	}

	w, err = parseWindow("", "", "7d", now)
	if err != nil || !w.Start.Equal(now.Add(-7*24*time.Hour)) || !w.End.Equal(now) {
		t.Fatalf("unexpected --since window: %+v %v", w, err)
	}

	if _, err := parseWindow("2026-03-05", "2026-03-01", "", now); err == nil {
		t.Fatalf("expected inverted window error")
	}
	if _, err := parseWindow("", "", "", now); err == nil {
		t.Fatalf("expected missing start error")
	}
	if _, err := parseWindow("2026-03-01", "", "24h", now); err == nil {
		t.Fatalf("expected conflict error")
	}
}
