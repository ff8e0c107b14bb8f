package quizdrill

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	// blockSplit separates questions on "## " headings
	blockSplit = regexp.MustCompile(`(?:^|\n)##\s+`)

	// sectionHeader matches "**题目**: text", "**题目:** text" and the
	// English variants, with ASCII or full-width colons.
	sectionHeader = regexp.MustCompile(`^\*\*(题目|Question|选项|Options|答案|Answer|解析|Analysis)(?:\*\*\s*[:：]|\s*[:：]\*\*)(.*)$`)
)

type mdSection int

const (
	sectionNone mdSection = iota
	sectionQuestion
	sectionOptions
	sectionAnswer
	sectionAnalysis
)

func sectionOf(label string) mdSection {
	switch label {
	case "题目", "Question":
		return sectionQuestion
	case "选项", "Options":
		return sectionOptions
	case "答案", "Answer":
		return sectionAnswer
	case "解析", "Analysis":
		return sectionAnalysis
	}
	return sectionNone
}

// ParseMarkdown reads a markdown question bank of the form
//
//	## 1
//	**题目**: text
//	**选项**:
//	- first
//	- second
//	**答案**: A,B
//	**解析**: why
//
// Blocks missing a question, options or an answer are dropped. IDs are
// assigned in file order starting at 0.
func ParseMarkdown(content string) []Question {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var questions []Question
	for _, block := range blockSplit.Split(content, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		q, ok := parseBlock(block)
		if !ok {
			VerboseLog("skipping incomplete markdown block", zap.String("block", firstLine(block)))
			continue
		}
		q.ID = len(questions)
		questions = append(questions, q)
	}
	return questions
}

func parseBlock(block string) (Question, bool) {
	var (
		question strings.Builder
		analysis strings.Builder
		options  []string
		answer   string
		current  = sectionNone
	)

	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			current = sectionOf(m[1])
			rest := strings.TrimSpace(m[2])
			switch current {
			case sectionQuestion:
				question.Reset()
				question.WriteString(rest)
			case sectionAnswer:
				answer = normalizeMarkdownAnswer(rest)
			case sectionAnalysis:
				analysis.Reset()
				analysis.WriteString(rest)
			}
			continue
		}

		switch current {
		case sectionQuestion:
			question.WriteString(" ")
			question.WriteString(line)
		case sectionOptions:
			if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
				options = append(options, strings.TrimSpace(line[2:]))
			} else if IsLettered(line) {
				options = append(options, line)
			}
		case sectionAnalysis:
			analysis.WriteString("\n")
			analysis.WriteString(line)
		}
	}

	if len(options) > 0 && !IsLettered(options[0]) {
		for i, opt := range options {
			options[i] = letterFor(i) + ". " + opt
		}
	}

	q := Question{
		Question: strings.TrimSpace(question.String()),
		Options:  options,
		Answer:   answer,
		Type:     SingleChoice,
		Analysis: strings.TrimSpace(analysis.String()),
	}
	if q.Analysis == "" {
		q.Analysis = NoAnalysis
	}
	if q.Question == "" || len(q.Options) == 0 || q.Answer == "" {
		return q, false
	}
	if strings.Contains(q.Answer, ",") || len(q.Answer) > 1 {
		q.Type = MultipleChoice
	}
	return q, true
}

func normalizeMarkdownAnswer(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "，", ",", "、", ",").Replace(s)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
