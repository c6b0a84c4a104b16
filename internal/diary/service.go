package diary

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigshabei/dogdiary/internal/config"
	"github.com/bigshabei/dogdiary/internal/llm"
)

const generateAttempts = 3

var weatherGlyphs = []string{"☀️", "🌥", "🌧", "🌪"}

// Service generates, persists and lists diary entries. All store mutations
// go through its mutex, so concurrent triggers (chat command vs scheduled
// job) serialize and the store never sees a merged record.
type Service struct {
	mu     sync.Mutex
	store  *Store
	llm    llm.Client
	digest *DigestBuilder
	cfg    config.DiaryConfig
}

func NewService(store *Store, client llm.Client, cfg config.DiaryConfig) *Service {
	return &Service{
		store:  store,
		llm:    client,
		digest: NewDigestBuilder(store, client),
		cfg:    cfg,
	}
}

// dateLabel builds the display label: date, a random weather glyph and the
// weekday. The glyph is cosmetic and lives only inside the label.
func dateLabel(now time.Time) string {
	glyph := weatherGlyphs[rand.Intn(len(weatherGlyphs))]
	return fmt.Sprintf("%s %s %s", now.Format(DateLayout), glyph, now.Weekday())
}

// EntryFor returns the stored entry for an ISO date, if any.
func (s *Service) EntryFor(date string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.store.LoadEntries()
	entry, ok := entries[date]
	return entry, ok
}

// Today returns today's entry, generating and persisting it on first
// request. The second return reports whether the entry already existed.
func (s *Service) Today(now time.Time) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format(DateLayout)
	entries := s.store.LoadEntries()
	if entry, ok := entries[today]; ok {
		return entry, true, nil
	}

	entry, err := s.generate(now, entries)
	if err != nil {
		return Entry{}, false, err
	}
	entries[today] = entry
	s.store.SaveEntries(entries)
	s.store.BackupOriginal(today, entry.Time, entry.Content)
	log.Printf("[diary] generated diary for %s", today)
	return entry, false, nil
}

// Ephemeral generates an entry from history without persisting anything.
func (s *Service) Ephemeral(now time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generate(now, s.store.LoadEntries())
}

// Rewrite regenerates today's entry and overwrites whatever is stored.
func (s *Service) Rewrite(now time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format(DateLayout)
	entries := s.store.LoadEntries()
	entry, err := s.generate(now, entries)
	if err != nil {
		return Entry{}, err
	}
	entries[today] = entry
	s.store.SaveEntries(entries)
	s.store.BackupOriginal(today, entry.Time, entry.Content)
	log.Printf("[diary] rewrote diary for %s", today)
	return entry, nil
}

// List formats all entries newest-first: date, weather glyph, an importance
// mark and the emotion score. filter restricts to an ISO date prefix such as
// "2026-08" or "2026-08-30".
func (s *Service) List(filter string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.store.LoadEntries()
	dates := make([]string, 0, len(entries))
	for d := range entries {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	lines := make([]string, 0, len(dates))
	for _, d := range dates {
		if filter != "" && !strings.HasPrefix(d, filter) {
			continue
		}
		entry := entries[d]
		glyph := ""
		if parts := strings.Fields(entry.Time); len(parts) >= 2 {
			glyph = parts[1]
		}
		mark := ""
		if entry.Important {
			mark = " ⭐"
		}
		lines = append(lines, fmt.Sprintf("%s %s%s (emotion %d/10)", d, glyph, mark, entry.EmotionScore))
	}
	return lines
}

// generate runs the full pipeline for one entry: label, digest, prompt,
// up to 3 model attempts, then emotion scoring. It never fabricates content;
// empty or failed generations surface as errors. Caller holds s.mu.
func (s *Service) generate(now time.Time, entries map[string]Entry) (Entry, error) {
	label := dateLabel(now)
	digest := s.digest.Build(now, entries)
	if digest == "" {
		digest = NoHistory
	}

	prompt := fmt.Sprintf(diaryPrompt,
		s.cfg.Style, s.cfg.MinWordCount, s.cfg.MaxWordCount, label, digest)

	var content string
	var lastErr error
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		reply, err := s.llm.Chat(prompt)
		if err != nil {
			lastErr = err
			log.Printf("[diary] generate attempt %d/%d: %v", attempt, generateAttempts, err)
			continue
		}
		content = strings.TrimSpace(reply)
		break
	}
	if content == "" {
		if lastErr != nil {
			return Entry{}, fmt.Errorf("generate diary: %w", lastErr)
		}
		return Entry{}, fmt.Errorf("generate diary: empty content")
	}

	score := scoreEmotion(s.llm, content)
	important := score >= EmotionThreshold
	if score > 0 {
		log.Printf("[diary] emotion score %d, important=%v", score, important)
	} else {
		log.Printf("[diary] emotion scoring failed, not marking important")
		important = false
	}

	return Entry{
		Time:         label,
		Content:      content,
		Important:    important,
		EmotionScore: score,
	}, nil
}
