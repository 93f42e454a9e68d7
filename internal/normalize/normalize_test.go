package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_LineComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"slash comment", "x = 1 // counter\ny = 2", "x = 1 y = 2"},
		{"hash comment", "x = 1 # counter\ny = 2", "x = 1 y = 2"},
		{"comment only line", "// nothing here", ""},
		{"trailing comment keeps code", "return 1  # done", "return 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_BlockComments(t *testing.T) {
	input := "a = 1 /* first\nsecond */ b = 2"
	assert.Equal(t, "a = 1 b = 2", Normalize(input))

	// Non-greedy: only the first block is consumed per pair
	input = "a /* x */ b /* y */ c"
	assert.Equal(t, "a b c", Normalize(input))
}

func TestNormalize_TripleQuotedBlocks(t *testing.T) {
	input := "def f():\n    \"\"\"docstring\n    spanning lines\"\"\"\n    return 1"
	assert.Equal(t, "def f(): return 1", Normalize(input))

	input = "x = 1\n'''\nnotes\n'''\ny = 2"
	assert.Equal(t, "x = 1 y = 2", Normalize(input))
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	input := "  a\t\tb\n\n\n   c  "
	assert.Equal(t, "a b c", Normalize(input))
}

func TestNormalize_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \n\t  "))
	assert.Equal(t, "", Normalize("# only a comment"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"def f():\n    return 1  # comment",
		"int main() { /* entry */ return 0; }",
		"  spaced   out\ttext  ",
		"x = 1\n\"\"\"doc\"\"\"\ny = 2",
		"plain text with no comments",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input: %q", input)
	}
}

func TestNormalize_CommentOnlyDifference(t *testing.T) {
	a := "def f():\n    return 1  # comment"
	b := "def f():\n    return 1"
	assert.Equal(t, Normalize(b), Normalize(a))
}

func TestLines_DropsBlankAndTrims(t *testing.T) {
	input := "def f():\n    return 1  # tail\n\n   \n# gone\nx = 2"
	assert.Equal(t, []string{"def f():", "return 1", "x = 2"}, Lines(input))
}

func TestLines_KeepsInnerSpacing(t *testing.T) {
	assert.Equal(t, []string{"x  =  1"}, Lines("x  =  1"))
}

func TestLines_Empty(t *testing.T) {
	assert.Empty(t, Lines(""))
	assert.Empty(t, Lines("// nothing\n# at all"))
}

func TestStripComments_PreservesLineStructure(t *testing.T) {
	input := "a = 1 # one\nb = 2 // two"
	assert.Equal(t, "a = 1 \nb = 2 ", StripComments(input))
}
