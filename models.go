package quizdrill

import "time"

// Question represents a single multiple choice question in the bank
type Question struct {
	ID       int          `json:"id"`
	Question string       `json:"question"`
	Options  []string     `json:"options"`  // lettered, e.g. "A. foo"
	Answer   string       `json:"answer"`   // letters, e.g. "A" or "A,C"
	Type     QuestionType `json:"type"`
	Analysis string       `json:"analysis"`
}

// QuestionType tells single from multiple choice questions
type QuestionType string

const (
	SingleChoice   QuestionType = "单选"
	MultipleChoice QuestionType = "多选"
)

// NoAnalysis is stored when a question comes without an explanation
const NoAnalysis = "暂无解析"

// IsMultiple reports whether more than one option may be selected
func (q Question) IsMultiple() bool {
	return q.Type == MultipleChoice
}

// HasAnalysis reports whether the question carries a real explanation
func (q Question) HasAnalysis() bool {
	return q.Analysis != "" && q.Analysis != NoAnalysis
}

// QuestionStat tracks how a question has been answered so far
type QuestionStat struct {
	Errors int `json:"errors"`
	Streak int `json:"streak"`
}

// Mode selects which pool of questions is being studied
type Mode string

const (
	ModePractice Mode = "practice"
	ModeWrong    Mode = "wrong"
)

// ParseMode maps user input to a Mode, defaulting to practice
func ParseMode(s string) Mode {
	if Mode(s) == ModeWrong {
		return ModeWrong
	}
	return ModePractice
}

// Progress is the persisted study position
type Progress struct {
	WrongQuestions WrongBook `json:"wrong_questions"`
	PracticeIndex  int       `json:"practice_index"`
	WrongIndex     int       `json:"wrong_index"`
	Mode           Mode      `json:"mode"`
}

// Attempt is one recorded answer submission
type Attempt struct {
	ID         int64     `json:"id"`
	QuestionID int       `json:"question_id"`
	Given      string    `json:"given"`
	Expected   string    `json:"expected"`
	Correct    bool      `json:"correct"`
	Mode       Mode      `json:"mode"`
	AnsweredAt time.Time `json:"answered_at"`
}

// DailyAccuracy aggregates attempts for one calendar day
type DailyAccuracy struct {
	Day      string `json:"day"`
	Answered int    `json:"answered"`
	Correct  int    `json:"correct"`
}

// Rate returns the share of correct answers in percent
func (d DailyAccuracy) Rate() float64 {
	if d.Answered == 0 {
		return 0
	}
	return float64(d.Correct) * 100 / float64(d.Answered)
}
