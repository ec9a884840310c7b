package text

import "strings"

// Mood is the result of a keyword-count mood classification.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// Fixed keyword lists for mood classification. Occurrences are counted, not
// word-matched, so inflected Japanese forms still hit their stems.
var (
	positiveWords = []string{
		"ありがとう", "嬉しい", "楽しい", "最高", "良かった", "助かった",
		"やった", "できた", "素晴らしい",
		"thanks", "thank you", "happy", "great", "awesome", "glad", "love",
	}
	negativeWords = []string{
		"最悪", "悲しい", "辛い", "疲れた", "しんどい", "嫌", "困った",
		"ダメ", "失敗",
		"sad", "terrible", "awful", "tired", "angry", "hate", "frustrat",
	}
)

// ClassifyMood counts positive and negative keyword occurrences and returns
// the simple majority. Ties, including zero hits, are neutral.
func ClassifyMood(text string) Mood {
	lower := strings.ToLower(text)

	positive := 0
	for _, w := range positiveWords {
		positive += strings.Count(lower, w)
	}
	negative := 0
	for _, w := range negativeWords {
		negative += strings.Count(lower, w)
	}

	switch {
	case positive > negative:
		return MoodPositive
	case negative > positive:
		return MoodNegative
	default:
		return MoodNeutral
	}
}
