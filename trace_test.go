package governor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScheduleTrace_WriteReadRoundTrips(t *testing.T) {
	original := &ScheduleTrace{
		Strategy: "dfs",
		Seed:     42,
		Steps:    3,
		Entries: []TraceEntry{
			opEntry(1, PointCreate),
			boolEntry(true),
			intEntry(7),
			opEntry(2, PointYield),
		},
	}
	original.Finalize()

	var buf bytes.Buffer
	if err := WriteTrace(&buf, original); err != nil {
		t.Fatalf("WriteTrace() error = %v", err)
	}

	got, err := ReadTrace(&buf)
	if err != nil {
		t.Fatalf("ReadTrace() error = %v", err)
	}

	if diff := cmp.Diff(original, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleTrace_FinalizeBugEscapesNewlines(t *testing.T) {
	trace := &ScheduleTrace{Strategy: "random", Seed: 1}
	trace.Append(5, PointAcquireLock)
	trace.FinalizeBug("assertion", "line one\nline two")

	var buf bytes.Buffer
	if err := WriteTrace(&buf, trace); err != nil {
		t.Fatalf("WriteTrace() error = %v", err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("expected exactly three newlines (header + entry + end), trace = %q", buf.String())
	}

	got, err := ReadTrace(&buf)
	if err != nil {
		t.Fatalf("ReadTrace() error = %v", err)
	}
	if diff := cmp.Diff(trace, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTrace_RejectsMalformedHeader(t *testing.T) {
	_, err := ReadTrace(strings.NewReader("not-a-trace-header\n"))
	if err == nil {
		t.Fatal("expected an error for a malformed header")
	}
}
