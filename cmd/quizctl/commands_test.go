package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quizdrill"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankMarkdown = `## 1
**题目**: Which layer does TCP belong to?
**选项**:
- Network
- Transport
**答案**: B
**解析**: TCP is a transport protocol.

## 2
**题目**: Which are routing protocols?
**选项**:
- OSPF
- HTTP
- BGP
**答案**: A,C
`

// runCLI executes quizctl against dataDir with the given stdin
func runCLI(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()

	configPath, verbose = "", false
	importAppend, checkJSON, resetAll = false, false, false
	historyLimit, explainLimit = 20, 0
	playMode, playThreshold, playMinErrors, playCount = "practice", quizdrill.DefaultThreshold, 0, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func writeBank(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.md")
	require.NoError(t, os.WriteFile(path, []byte(bankMarkdown), 0o644))
	return path
}

func TestCheck(t *testing.T) {
	bank := writeBank(t)

	out, err := runCLI(t, t.TempDir(), "", "check", bank)
	require.NoError(t, err)
	assert.Contains(t, out, "#0 [单选] Which layer does TCP belong to?")
	assert.Contains(t, out, "    B. Transport")
	assert.Contains(t, out, "analysis: TCP is a transport protocol.")
	assert.Contains(t, out, "2 questions")

	out, err = runCLI(t, t.TempDir(), "", "check", "--json", bank)
	require.NoError(t, err)
	var questions []quizdrill.Question
	require.NoError(t, json.Unmarshal([]byte(out), &questions))
	require.Len(t, questions, 2)
	assert.Equal(t, "A,C", questions[1].Answer)
	assert.Equal(t, quizdrill.MultipleChoice, questions[1].Type)
}

func TestCheck_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.xls")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := runCLI(t, t.TempDir(), "", "check", path)
	assert.ErrorIs(t, err, quizdrill.ErrUnsupportedFormat)
}

func TestImportAndStats(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()

	out, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 questions, previous progress cleared")

	out, err = runCLI(t, data, "", "import", "--append", bank)
	require.NoError(t, err)
	assert.Contains(t, out, "Appended 2 questions, 4 in bank")

	out, err = runCLI(t, data, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions in bank: 4")
	assert.Contains(t, out, "Wrong book: 0")
	assert.FileExists(t, filepath.Join(data, quizdrill.BankFile))
}

func TestImport_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(path, []byte("# nothing\n"), 0o644))

	_, err := runCLI(t, t.TempDir(), "", "import", path)
	assert.ErrorIs(t, err, quizdrill.ErrEmptyBank)
}

func TestPlay(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()
	_, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)

	out, err := runCLI(t, data, "a\nac\n", "play")
	require.NoError(t, err)
	assert.Contains(t, out, "No.1/2")
	assert.Contains(t, out, "Wrong answer, added to the wrong book")
	assert.Contains(t, out, "Correct answer: B")
	assert.Contains(t, out, "That was the last question.")
	assert.Contains(t, out, "Answered 2, correct 1")

	out, err = runCLI(t, data, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrong book: 1")
	assert.Contains(t, out, "Which layer does TCP belong to?")

	out, err = runCLI(t, data, "b\n", "play", "--mode", "wrong")
	require.NoError(t, err)
	assert.Contains(t, out, "Correct! 1 in a row, removed from the wrong book")
	assert.Contains(t, out, "All matching wrong book questions are cleared!")
	assert.Contains(t, out, "Answered 1, correct 1")

	out, err = runCLI(t, data, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "DAY")
	assert.Contains(t, out, "67%")
}

func TestPlay_QuitAndSkip(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()
	_, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)

	out, err := runCLI(t, data, "\nq\n", "play")
	require.NoError(t, err)
	assert.Contains(t, out, "No.2/2", "an empty line skips to the next question")
	assert.Contains(t, out, "Answered 0, correct 0")

	out, err = runCLI(t, data, "b\nb\n", "play", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Answered 1, correct 0", "play resumes at the second question")
}

func TestPlay_EmptyBank(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "", "play")
	require.NoError(t, err)
	assert.Contains(t, out, "The question bank is empty, import one first.")
}

func TestReset(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()
	_, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)
	_, err = runCLI(t, data, "a\n", "play", "--count", "1")
	require.NoError(t, err)

	out, err := runCLI(t, data, "", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress cleared, question bank kept")

	out, err = runCLI(t, data, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions in bank: 2")
	assert.Contains(t, out, "Wrong book: 0")

	out, err = runCLI(t, data, "", "reset", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "All study data removed")

	out, err = runCLI(t, data, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions in bank: 0")
	assert.NoFileExists(t, filepath.Join(data, quizdrill.BankFile))
}

func TestExplain_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QUIZDRILL_AI_API_KEY", "")

	_, err := runCLI(t, t.TempDir(), "", "explain")
	assert.ErrorContains(t, err, "no API key configured")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "中文题…", truncate("中文题目很长", 4))
}

func TestPlay_WrongBookEndsAtLastQuestion(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()
	_, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)
	_, err = runCLI(t, data, "a\nb\n", "play")
	require.NoError(t, err)

	out, err := runCLI(t, data, "\nac\n", "play", "--mode", "wrong")
	require.NoError(t, err)
	assert.Contains(t, out, "No.2/2")
	assert.Contains(t, out, "removed from the wrong book")
	assert.Contains(t, out, "That was the last question.")
	assert.NotContains(t, out, "No.1/1", "the drill does not start over")
	assert.Contains(t, out, "Answered 1, correct 1")

	out, err = runCLI(t, data, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrong book: 1")
}

func TestPlay_PracticeIgnoresThreshold(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()
	_, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)
	// skip the first question and miss the second
	_, err = runCLI(t, data, "\nb\n", "play")
	require.NoError(t, err)

	out, err := runCLI(t, data, "ac\n", "play", "--threshold", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Correct! 1 in a row, removed from the wrong book")

	out, err = runCLI(t, data, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrong book: 0")
}

func TestImportReplaceClearsHistory(t *testing.T) {
	bank := writeBank(t)
	data := t.TempDir()
	_, err := runCLI(t, data, "", "import", bank)
	require.NoError(t, err)
	_, err = runCLI(t, data, "a\n", "play", "--count", "1")
	require.NoError(t, err)

	out, err := runCLI(t, data, "", "history")
	require.NoError(t, err)
	require.Contains(t, out, "wrong")

	_, err = runCLI(t, data, "", "import", bank)
	require.NoError(t, err)
	out, err = runCLI(t, data, "", "history")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrong")
}
