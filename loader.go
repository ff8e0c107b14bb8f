package quizdrill

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported question bank format")
	ErrEmptyBank         = errors.New("no questions found")
)

// SupportedExtensions lists the file types LoadQuestions understands
var SupportedExtensions = []string{".xlsx", ".csv", ".md"}

// LoadQuestions parses a question bank. The format is picked from the
// extension of name.
func LoadQuestions(name string, r io.Reader) ([]Question, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var questions []Question
	switch ext {
	case ".md":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		questions = ParseMarkdown(string(data))
	case ".csv":
		rows, err := ReadCSV(r)
		if err != nil {
			return nil, err
		}
		questions = ParseRows(rows)
	case ".xlsx":
		rows, err := ReadXLSX(r)
		if err != nil {
			return nil, err
		}
		questions = ParseRows(rows)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	Logger().Info("parsed question bank",
		zap.String("file", name),
		zap.Int("questions", len(questions)))
	return questions, nil
}

// LoadQuestionsFile opens path and parses it with LoadQuestions
func LoadQuestionsFile(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open question bank: %w", err)
	}
	defer f.Close()
	return LoadQuestions(path, f)
}
