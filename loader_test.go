package quizdrill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQuestions_Markdown(t *testing.T) {
	questions, err := LoadQuestions("bank.MD", strings.NewReader(sampleMarkdown))
	require.NoError(t, err)
	assert.Len(t, questions, 4)
}

func TestLoadQuestions_Unsupported(t *testing.T) {
	_, err := LoadQuestions("bank.txt", strings.NewReader("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadQuestions("old.xls", strings.NewReader("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadQuestionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(path, []byte("Question,A,B,Answer\nQ1,x,y,A\n"), 0644))

	questions, err := LoadQuestionsFile(path)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Q1", questions[0].Question)

	_, err = LoadQuestionsFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
