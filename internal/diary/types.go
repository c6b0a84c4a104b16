package diary

// DateLayout is the ISO calendar-date key format used across the store,
// the digest builder and the scheduler.
const DateLayout = "2006-01-02"

// Entry is one day's generated diary plus metadata. Entries are keyed by
// date in the store; they are overwritten by an explicit rewrite and never
// deleted.
type Entry struct {
	Time         string `json:"time"`
	Content      string `json:"content"`
	Important    bool   `json:"important"`
	EmotionScore int    `json:"emotion_score"`
}

// SendState remembers the last calendar date a broadcast succeeded (to
// prevent duplicate same-day sends) and the last address that accepted one.
type SendState struct {
	LastSentDate string `json:"last_sent_date"`
	LastAddress  string `json:"last_address,omitempty"`
}
