package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeywordsDefaults(t *testing.T) {
	kw, err := LoadKeywords("")
	require.NoError(t, err)
	assert.Contains(t, kw.TaskAdd, "タスク追加")
	assert.Contains(t, kw.Digest, "digest")
}

func TestLoadKeywordsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	content := `
task_add:
  - remind me to
digest:
  - recap
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	kw, err := LoadKeywords(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"remind me to"}, kw.TaskAdd)
	assert.Equal(t, []string{"recap"}, kw.Digest)
	// Untouched lists keep their defaults.
	assert.Contains(t, kw.Journal, "日記")
}

func TestLoadKeywordsMissingFile(t *testing.T) {
	_, err := LoadKeywords(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDetectIntent(t *testing.T) {
	d := &Dispatcher{keywords: DefaultKeywords()}

	cases := []struct {
		body string
		want Intent
	}{
		{"add task buy milk", IntentTaskAdd},
		{"タスク追加 牛乳を買う", IntentTaskAdd},
		{"task list", IntentTaskList},
		{"タスク一覧", IntentTaskList},
		{"task done 2", IntentTaskDone},
		{"idea: solar backpack", IntentIdea},
		{"アイデア：ソーラーリュック", IntentIdea},
		{"日記 今日はいい天気", IntentJournal},
		{"digest", IntentDigest},
		{"まとめて", IntentDigest},
		{"help", IntentHelp},
		{"HELP ME", IntentHelp},
		{"what's the weather like?", IntentChat},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, d.detectIntent(tc.body), "body=%q", tc.body)
	}
}
