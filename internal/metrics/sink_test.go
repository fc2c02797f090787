package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestHitMissEvictAccumulate(t *testing.T) {
	s := New()
	s.Hit("resolve_file")
	s.Hit("resolve_file")
	s.Miss("resolve_file")
	s.Evict("which")

	snap := s.Snapshot()
	rf, ok := snap["resolve_file"].(counters)
	if !ok {
		t.Fatalf("expected resolve_file section in snapshot, got %#v", snap)
	}
	if rf.Hits != 2 || rf.Misses != 1 || rf.Evictions != 0 {
		t.Fatalf("unexpected counters: %+v", rf)
	}
	which, ok := snap["which"].(counters)
	if !ok || which.Evictions != 1 {
		t.Fatalf("expected one eviction recorded for which, got %#v", snap["which"])
	}
}

func TestTimeStartEndAccumulates(t *testing.T) {
	s := New()
	tok := s.TimeStart("include")
	s.TimeEnd(tok)
	s.TimeEnd(tok) // second close on the same token should be ignored

	snap := s.Snapshot()
	times, ok := snap["time"].(map[string]timing)
	if !ok {
		t.Fatalf("expected a time section in snapshot, got %#v", snap)
	}
	if times["include"].Count != 1 {
		t.Fatalf("expected exactly one timed sample, got %d", times["include"].Count)
	}
}

func TestFlushWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	s := New()
	s.SetOutputDir(dir)
	s.Hit("supports")
	s.Flush("unit-test")
	s.Flush("unit-test")

	f, err := os.Open(filepath.Join(dir, "bb-cache-metrics.jsonl"))
	if err != nil {
		t.Fatalf("expected metrics file to exist: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	var last map[string]any
	for scanner.Scan() {
		lines++
		if err := json.Unmarshal(scanner.Bytes(), &last); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 flushed lines, got %d", lines)
	}
	if last["note"] != "unit-test" {
		t.Fatalf("expected note field to round-trip, got %#v", last["note"])
	}
	if _, ok := last["seq"]; !ok {
		t.Fatalf("expected seq field in flushed record")
	}
}

func TestFlushNeverPanicsOnBadDir(t *testing.T) {
	s := New()
	s.SetOutputDir(filepath.Join(string([]byte{0}), "nope"))
	s.Flush("should-not-panic")
}
