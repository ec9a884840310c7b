package bot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Intent is the routing decision for an inbound message, picked purely by
// substring keyword presence. No confidence scoring.
type Intent string

const (
	IntentTaskAdd  Intent = "task_add"
	IntentTaskList Intent = "task_list"
	IntentTaskDone Intent = "task_done"
	IntentIdea     Intent = "idea"
	IntentJournal  Intent = "journal"
	IntentDigest   Intent = "digest"
	IntentHelp     Intent = "help"
	IntentChat     Intent = "chat" // default: conversational reply
)

// Keywords holds the substring tables used for intent routing. Each list can
// be overridden from a YAML file; empty lists fall back to the defaults.
type Keywords struct {
	TaskAdd  []string `yaml:"task_add"`
	TaskList []string `yaml:"task_list"`
	TaskDone []string `yaml:"task_done"`
	Idea     []string `yaml:"idea"`
	Journal  []string `yaml:"journal"`
	Digest   []string `yaml:"digest"`
	Help     []string `yaml:"help"`
}

// DefaultKeywords returns the built-in bilingual keyword tables.
func DefaultKeywords() Keywords {
	return Keywords{
		TaskAdd:  []string{"タスク追加", "やること追加", "add task", "task add", "todo:"},
		TaskList: []string{"タスク一覧", "タスクリスト", "task list", "list tasks", "show tasks"},
		TaskDone: []string{"タスク完了", "task done", "finish task", "complete task"},
		Idea:     []string{"アイデア", "idea:"},
		Journal:  []string{"日記", "journal"},
		Digest:   []string{"まとめて", "ダイジェスト", "digest"},
		Help:     []string{"ヘルプ", "使い方", "help"},
	}
}

// LoadKeywords reads keyword overrides from a YAML file. Lists absent from
// the file keep their defaults. An empty path returns the defaults.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()
	if path == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var override Keywords
	if err := yaml.Unmarshal(data, &override); err != nil {
		return kw, fmt.Errorf("failed to parse keywords file: %w", err)
	}

	if len(override.TaskAdd) > 0 {
		kw.TaskAdd = override.TaskAdd
	}
	if len(override.TaskList) > 0 {
		kw.TaskList = override.TaskList
	}
	if len(override.TaskDone) > 0 {
		kw.TaskDone = override.TaskDone
	}
	if len(override.Idea) > 0 {
		kw.Idea = override.Idea
	}
	if len(override.Journal) > 0 {
		kw.Journal = override.Journal
	}
	if len(override.Digest) > 0 {
		kw.Digest = override.Digest
	}
	if len(override.Help) > 0 {
		kw.Help = override.Help
	}

	return kw, nil
}
