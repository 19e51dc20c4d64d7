package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mhalverson/macmaint/internal/tasks"
)

// ── levenshtein tests ────────────────────────────────────────────────

func TestLevenshtein_IdenticalStrings(t *testing.T) {
	assert.Equal(t, 0, levenshtein("brew", "brew"))
}

func TestLevenshtein_EmptyStrings(t *testing.T) {
	assert.Equal(t, 0, levenshtein("", ""))
	assert.Equal(t, 4, levenshtein("brew", ""))
	assert.Equal(t, 4, levenshtein("", "brew"))
}

func TestLevenshtein_SingleEdit(t *testing.T) {
	assert.Equal(t, 1, levenshtein("brew", "crew"))  // substitution
	assert.Equal(t, 1, levenshtein("task", "tasks")) // insertion
	assert.Equal(t, 1, levenshtein("tasks", "task")) // deletion
}

func TestLevenshtein_MultipleEdits(t *testing.T) {
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

func TestLevenshtein_CompletelyDifferent(t *testing.T) {
	assert.Equal(t, 3, levenshtein("abc", "xyz"))
}

func TestLevenshtein_Symmetric(t *testing.T) {
	assert.Equal(t, levenshtein("abc", "def"), levenshtein("def", "abc"))
}

// ── suggestTasks tests ───────────────────────────────────────────────

func TestSuggestTasks_CloseMatch(t *testing.T) {
	suggestions := suggestTasks("brew-maintenence", tasks.Names()) // one char off
	assert.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions, "brew-maintenance")
}

func TestSuggestTasks_NoMatch(t *testing.T) {
	// Completely different string
	suggestions := suggestTasks("zzzzzzzzzzzzzzzzzzz", tasks.Names())
	assert.Empty(t, suggestions)
}

func TestSuggestTasks_MaxThree(t *testing.T) {
	names := []string{"copy-a", "copy-b", "copy-c", "copy-d", "copy-e"}

	suggestions := suggestTasks("copy-x", names)
	assert.LessOrEqual(t, len(suggestions), 3)
}

func TestSuggestTasks_ExactMatchExcluded(t *testing.T) {
	// Exact match has distance 0 and should be excluded (d > 0 check)
	suggestions := suggestTasks("find-orphans", []string{"find-orphans"})
	assert.Empty(t, suggestions)
}

func TestSuggestTasks_SortedByDistance(t *testing.T) {
	names := []string{"find-orphans", "archive-orphans"}

	suggestions := suggestTasks("archve-orphans", names)
	if len(suggestions) >= 2 {
		// Closest should come first
		d1 := levenshtein("archve-orphans", suggestions[0])
		d2 := levenshtein("archve-orphans", suggestions[1])
		assert.LessOrEqual(t, d1, d2)
	}
}

func TestSuggestTasks_EmptyInput(t *testing.T) {
	// maxDist = max(len("")/2, 3) = 3
	suggestions := suggestTasks("", []string{"du", "zip"})
	assert.NotEmpty(t, suggestions)
}

func TestSuggestTasks_EmptyNames(t *testing.T) {
	suggestions := suggestTasks("find-orphans", nil)
	assert.Empty(t, suggestions)
}
