package diary

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

var digestToday = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return digestToday.AddDate(0, 0, -n).Format(DateLayout)
}

func TestBuildDigestTiers(t *testing.T) {
	store := NewStore(t.TempDir())
	llm := &mockLLM{summaryFn: func(string) (string, error) {
		return "missing her badly", nil
	}}
	b := NewDigestBuilder(store, llm)

	entries := map[string]Entry{
		daysAgo(0):  {Time: "today", Content: "today's entry"},
		daysAgo(3):  {Time: "x", Content: "saw her at the café", EmotionScore: 4},
		daysAgo(10): {Time: "x", Content: "she ignored my message", EmotionScore: 3},
		daysAgo(40): {Time: "x", Content: "long forgotten day", EmotionScore: 2},
		daysAgo(60): {Time: "x", Content: "she said my name", Important: true, EmotionScore: 9},
	}

	digest := b.Build(digestToday, entries)

	if !strings.Contains(digest, "[recent "+daysAgo(3)+"] saw her at the café") {
		t.Errorf("digest missing recent fragment:\n%s", digest)
	}
	if !strings.Contains(digest, "[summary "+daysAgo(10)+"] missing her badly") {
		t.Errorf("digest missing summary fragment:\n%s", digest)
	}
	if !strings.Contains(digest, "[important "+daysAgo(60)+"] she said my name") {
		t.Errorf("digest missing important fragment:\n%s", digest)
	}
	if strings.Contains(digest, daysAgo(40)) {
		t.Errorf("entry beyond 30-day window leaked into digest:\n%s", digest)
	}
	if strings.Contains(digest, "today's entry") {
		t.Errorf("today's entry included in its own digest:\n%s", digest)
	}

	cache := store.LoadCache()
	if _, ok := cache[summaryKey(daysAgo(10))]; !ok {
		t.Error("mid-range summary not memoized")
	}
	if cache[summaryKey(daysAgo(0))] != digest {
		t.Error("digest not cached under today's key")
	}
}

func TestBuildDigestDailyShortCircuit(t *testing.T) {
	store := NewStore(t.TempDir())
	llm := &mockLLM{}
	b := NewDigestBuilder(store, llm)

	entries := map[string]Entry{
		daysAgo(10): {Time: "x", Content: "quiet day", EmotionScore: 3},
	}

	first := b.Build(digestToday, entries)
	callsAfterFirst := llm.callCount()
	second := b.Build(digestToday, entries)

	if first != second {
		t.Errorf("digest not idempotent:\n%q\nvs\n%q", first, second)
	}
	if llm.callCount() != callsAfterFirst {
		t.Errorf("second build issued %d extra model calls", llm.callCount()-callsAfterFirst)
	}
}

func TestBuildDigestSummaryFailureNotCached(t *testing.T) {
	store := NewStore(t.TempDir())
	failing := &mockLLM{summaryFn: func(string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}}
	b := NewDigestBuilder(store, failing)

	entries := map[string]Entry{
		daysAgo(10): {Time: "x", Content: "she ignored my message", EmotionScore: 3},
	}

	digest := b.Build(digestToday, entries)
	if !strings.Contains(digest, "[summary "+daysAgo(10)+"] summary unavailable") {
		t.Errorf("digest missing placeholder:\n%s", digest)
	}
	if _, ok := store.LoadCache()[summaryKey(daysAgo(10))]; ok {
		t.Error("failure placeholder must not be cached")
	}

	// Next day's build (no daily short-circuit) retries the summary.
	working := &mockLLM{summaryFn: func(string) (string, error) {
		return "hurt but hopeful", nil
	}}
	b2 := NewDigestBuilder(store, working)
	next := digestToday.AddDate(0, 0, 1)
	digest2 := b2.Build(next, entries)
	if !strings.Contains(digest2, "hurt but hopeful") {
		t.Errorf("summary not retried after failure:\n%s", digest2)
	}
	if working.callCount() == 0 {
		t.Error("expected a fresh summarization call")
	}
}

func TestBuildDigestMemoizationIgnoresEdits(t *testing.T) {
	store := NewStore(t.TempDir())
	llm := &mockLLM{summaryFn: func(string) (string, error) {
		return "original summary", nil
	}}
	b := NewDigestBuilder(store, llm)

	entries := map[string]Entry{
		daysAgo(10): {Time: "x", Content: "original content", EmotionScore: 3},
	}
	b.Build(digestToday, entries)

	// Mutate the source entry; the cached summary must win on a later build.
	entries[daysAgo(10)] = Entry{Time: "x", Content: "rewritten content", EmotionScore: 3}
	next := digestToday.AddDate(0, 0, 1)
	digest := b.Build(next, entries)

	if !strings.Contains(digest, "original summary") {
		t.Errorf("cached summary not reused:\n%s", digest)
	}
	if strings.Contains(digest, "rewritten content") {
		t.Errorf("edited content leaked past memoized summary:\n%s", digest)
	}
}

func TestBuildDigestNoHistory(t *testing.T) {
	store := NewStore(t.TempDir())
	b := NewDigestBuilder(store, &mockLLM{})

	if got := b.Build(digestToday, map[string]Entry{}); got != NoHistory {
		t.Errorf("empty history digest = %q, want %q", got, NoHistory)
	}

	// An entry dated today, alone, also yields no history.
	only := map[string]Entry{daysAgo(0): {Time: "x", Content: "today"}}
	store2 := NewStore(t.TempDir())
	b2 := NewDigestBuilder(store2, &mockLLM{})
	if got := b2.Build(digestToday, only); got != NoHistory {
		t.Errorf("today-only digest = %q, want %q", got, NoHistory)
	}
}

func TestBuildDigestRecentVsWindow(t *testing.T) {
	store := NewStore(t.TempDir())
	llm := &mockLLM{}
	b := NewDigestBuilder(store, llm)

	entries := map[string]Entry{
		daysAgo(3):  {Time: "x", Content: "fresh heartbreak", EmotionScore: 4},
		daysAgo(40): {Time: "x", Content: "ancient heartbreak", EmotionScore: 2},
	}

	digest := b.Build(digestToday, entries)
	if !strings.Contains(digest, "[recent "+daysAgo(3)+"] fresh heartbreak") {
		t.Errorf("recent entry not verbatim:\n%s", digest)
	}
	if strings.Contains(digest, "ancient heartbreak") {
		t.Errorf("40-day-old entry should contribute nothing:\n%s", digest)
	}
	if llm.callCount() != 0 {
		t.Errorf("no summarization expected, got %d calls", llm.callCount())
	}
}
