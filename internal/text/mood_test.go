package text

import "testing"

func TestClassifyMood(t *testing.T) {
	cases := []struct {
		text string
		want Mood
	}{
		{"ありがとう、嬉しいです", MoodPositive},
		{"最悪だ、悲しい", MoodNegative},
		{"これはテストです", MoodNeutral},
		{"thanks, that was great", MoodPositive},
		{"so tired and sad", MoodNegative},
		{"", MoodNeutral},
	}
	for _, tc := range cases {
		if got := ClassifyMood(tc.text); got != tc.want {
			t.Errorf("ClassifyMood(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyMoodTieIsNeutral(t *testing.T) {
	// One positive hit and one negative hit: numeric majority only, tie
	// resolves to neutral.
	if got := ClassifyMood("嬉しいけど疲れた"); got != MoodNeutral {
		t.Errorf("tie should be neutral, got %s", got)
	}
}
