package diary

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bigshabei/dogdiary/internal/llm"
)

const (
	// recentWindowDays entries are kept verbatim; older entries inside
	// lookbackDays are compressed to a short summary; anything beyond the
	// lookback contributes nothing unless marked important.
	recentWindowDays = 7
	lookbackDays     = 30
)

// DigestBuilder folds the entry history into one bounded text digest,
// mimicking memory decay: verbatim for important or very recent entries,
// compressed for the middle distance, forgotten past the lookback window.
// Per-entry summaries are memoized permanently in the summary cache, and the
// whole digest is computed at most once per calendar day.
type DigestBuilder struct {
	store *Store
	llm   llm.Client
}

func NewDigestBuilder(store *Store, client llm.Client) *DigestBuilder {
	return &DigestBuilder{store: store, llm: client}
}

func summaryKey(date string) string { return "summary_" + date }

// Build returns the history digest for the given day. Entries dated today
// never appear in their own digest. The window membership of each entry is
// decided once per pass against the build-call date, not per entry.
func (b *DigestBuilder) Build(today time.Time, entries map[string]Entry) string {
	todayKey := today.Format(DateLayout)
	cache := b.store.LoadCache()
	if cached, ok := cache[summaryKey(todayKey)]; ok {
		log.Printf("[diary] using cached history digest for %s", todayKey)
		return cached
	}

	dates := make([]string, 0, len(entries))
	for d := range entries {
		if d != todayKey {
			dates = append(dates, d)
		}
	}
	// ISO dates sort lexicographically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	todayDay, _ := time.ParseInLocation(DateLayout, todayKey, time.UTC)

	fragments := make([]string, 0, len(dates))
	for _, d := range dates {
		entry := entries[d]

		if entry.Important {
			fragments = append(fragments, fmt.Sprintf("[important %s] %s", d, entry.Content))
			continue
		}

		entryDay, err := time.ParseInLocation(DateLayout, d, time.UTC)
		if err != nil {
			log.Printf("[diary] skip entry with bad date %q: %v", d, err)
			continue
		}
		age := int(todayDay.Sub(entryDay).Hours() / 24)
		if age > lookbackDays {
			continue
		}

		if age <= recentWindowDays {
			fragments = append(fragments, fmt.Sprintf("[recent %s] %s", d, entry.Content))
			continue
		}

		key := summaryKey(d)
		if cached, ok := cache[key]; ok {
			fragments = append(fragments, cached)
			continue
		}
		reply, err := b.llm.Chat(fmt.Sprintf(summaryPrompt, entry.Content))
		if err != nil {
			// Placeholder is visible in the digest but never cached, so the
			// summary is retried on the next uncached build.
			log.Printf("[diary] summarize %s: %v", d, err)
			fragments = append(fragments, fmt.Sprintf("[summary %s] summary unavailable", d))
			continue
		}
		fragment := fmt.Sprintf("[summary %s] %s", d, strings.TrimSpace(reply))
		cache[key] = fragment
		fragments = append(fragments, fragment)
	}

	digest := strings.Join(fragments, "\n")
	if digest == "" {
		digest = NoHistory
	}

	cache[summaryKey(todayKey)] = digest
	b.store.SaveCache(cache)
	return digest
}
