package diary

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Store owns the flat JSON documents under one data directory:
// diaries.json, summary_cache.json, send_state.json, and plain-text
// originals/ backups. Reads are fail-soft (empty state on error), writes
// overwrite the whole document and log failures without propagating them.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) entriesPath() string   { return filepath.Join(s.dir, "diaries.json") }
func (s *Store) cachePath() string     { return filepath.Join(s.dir, "summary_cache.json") }
func (s *Store) sendStatePath() string { return filepath.Join(s.dir, "send_state.json") }

func (s *Store) backupPath(date string) string {
	return filepath.Join(s.dir, "originals", "diary_"+date+".txt")
}

func (s *Store) LoadEntries() map[string]Entry {
	entries := make(map[string]Entry)
	data, err := os.ReadFile(s.entriesPath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[store] read diaries: %v", err)
		}
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("[store] parse diaries: %v", err)
		return make(map[string]Entry)
	}
	return entries
}

func (s *Store) SaveEntries(entries map[string]Entry) {
	if err := s.writeJSON(s.entriesPath(), entries); err != nil {
		log.Printf("[store] save diaries: %v", err)
	}
}

func (s *Store) LoadCache() map[string]string {
	cache := make(map[string]string)
	data, err := os.ReadFile(s.cachePath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[store] read summary cache: %v", err)
		}
		return cache
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Printf("[store] parse summary cache: %v", err)
		return make(map[string]string)
	}
	return cache
}

func (s *Store) SaveCache(cache map[string]string) {
	if err := s.writeJSON(s.cachePath(), cache); err != nil {
		log.Printf("[store] save summary cache: %v", err)
	}
}

func (s *Store) LoadSendState() SendState {
	var state SendState
	data, err := os.ReadFile(s.sendStatePath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[store] read send state: %v", err)
		}
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("[store] parse send state: %v", err)
		return SendState{}
	}
	return state
}

func (s *Store) SaveSendState(state SendState) {
	if err := s.writeJSON(s.sendStatePath(), state); err != nil {
		log.Printf("[store] save send state: %v", err)
	}
}

// BackupOriginal writes a write-only plain-text copy of a generated entry,
// kept for manual recovery and never read back by the system.
func (s *Store) BackupOriginal(date, label, content string) {
	path := s.backupPath(date)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("[store] create backup dir: %v", err)
		return
	}
	body := fmt.Sprintf("[dog diary - %s]\n%s\n", label, content)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		log.Printf("[store] backup original %s: %v", date, err)
		return
	}
	log.Printf("[store] backed up original for %s", date)
}

func (s *Store) LoadOriginal(date string) string {
	data, err := os.ReadFile(s.backupPath(date))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[store] read original %s: %v", date, err)
		}
		return ""
	}
	return string(data)
}

func (s *Store) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
