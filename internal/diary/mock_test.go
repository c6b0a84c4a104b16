package diary

import (
	"fmt"
	"strings"
	"sync"
)

// mockLLM answers by prompt kind and counts calls.
type mockLLM struct {
	mu      sync.Mutex
	calls   int
	prompts []string

	diaryFn   func(prompt string) (string, error)
	summaryFn func(prompt string) (string, error)
	emotionFn func(prompt string) (string, error)
}

func (m *mockLLM) Chat(prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(prompt, "Rate the emotional intensity"):
		if m.emotionFn != nil {
			return m.emotionFn(prompt)
		}
		return "5", nil
	case strings.HasPrefix(prompt, "Extract the key emotional"):
		if m.summaryFn != nil {
			return m.summaryFn(prompt)
		}
		return "still hopelessly in love", nil
	case strings.HasPrefix(prompt, "Write a"):
		if m.diaryFn != nil {
			return m.diaryFn(prompt)
		}
		return "Dear diary, she walked past me again today.", nil
	default:
		return "", fmt.Errorf("unexpected prompt: %s", prompt)
	}
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
