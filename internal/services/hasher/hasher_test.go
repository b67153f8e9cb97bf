package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash("# Title\n\nBody text.")
	b := Hash("# Title\n\nBody text.")
	assert.Equal(t, a, b)
}

func TestHash_DiffersOnContentChange(t *testing.T) {
	a := Hash("# Title\n\nBody text.")
	b := Hash("# Title\n\nBody text, one char different.")
	assert.NotEqual(t, a, b)
}

func TestHash_StripsLeadingBOM(t *testing.T) {
	withBOM := Hash(byteOrderMark + "# Title")
	withoutBOM := Hash("# Title")
	assert.Equal(t, withoutBOM, withBOM)
}

func TestHash_DoesNotNormalizeWhitespace(t *testing.T) {
	a := Hash("line one\nline two")
	b := Hash("line one\n\nline two")
	assert.NotEqual(t, a, b)
}

func TestChanged_EmptyStoredHashAlwaysChanged(t *testing.T) {
	_, changed := Changed("anything", "")
	assert.True(t, changed)
}

func TestChanged_SameContentNotChanged(t *testing.T) {
	markdown := "stable content"
	hash := Hash(markdown)
	newHash, changed := Changed(markdown, hash)
	assert.False(t, changed)
	assert.Equal(t, hash, newHash)
}

func TestChanged_DifferentContentChanged(t *testing.T) {
	oldHash := Hash("old content")
	newHash, changed := Changed("new content", oldHash)
	assert.True(t, changed)
	assert.NotEqual(t, oldHash, newHash)
}
