package diary

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bigshabei/dogdiary/internal/llm"
)

// EmotionThreshold is the score at which an entry is marked important and
// becomes exempt from digest compression and expiry.
const EmotionThreshold = 7

const emotionExcerptRunes = 500

// scoreEmotion rates the emotional intensity of a text on a 1-10 scale.
// Only the first 500 runes are sent. Any failure (call error, unparsable or
// out-of-range reply) collapses to 0, meaning "unscored". Never retries.
func scoreEmotion(client llm.Client, content string) int {
	excerpt := content
	if runes := []rune(content); len(runes) > emotionExcerptRunes {
		excerpt = string(runes[:emotionExcerptRunes])
	}

	reply, err := client.Chat(fmt.Sprintf(emotionPrompt, excerpt))
	if err != nil {
		log.Printf("[diary] emotion scoring: %v", err)
		return 0
	}
	score, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		log.Printf("[diary] invalid emotion score reply %q", reply)
		return 0
	}
	if score < 1 || score > 10 {
		log.Printf("[diary] emotion score %d out of range", score)
		return 0
	}
	return score
}
