package diary

const (
	diaryPrompt = `Write a %s style dog diary entry reflecting the pain of loving someone who will never love you back. Keep it between %d and %d words. The date is: %s. Take the previous diary history into account: %s`

	summaryPrompt = `Extract the key emotional content from the following diary entry, in no more than 50 words:
%s`

	emotionPrompt = `Rate the emotional intensity of the following text on a scale of 1 to 10 (1 means very weak, 10 means very strong). Answer with a single number only:
%s`
)

// NoHistory is the digest fallback when no qualifying history exists.
const NoHistory = "no history yet"
