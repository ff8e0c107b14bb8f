package quizdrill

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrEmptyPool        = errors.New("no questions to study")
)

// Limits of the wrong book filters
const (
	MinThreshold     = 1
	MaxThreshold     = 5
	DefaultThreshold = 1
	MaxMinErrors     = 10
)

// AttemptRecorder receives every answer submission
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt Attempt) error
}

// Filters tune the wrong book review
type Filters struct {
	// Threshold is how many correct answers in a row take a question out
	// of the wrong book.
	Threshold int
	// MinErrors hides wrong book questions answered wrong fewer times.
	MinErrors int
}

// DefaultFilters returns the filters used when nothing was chosen
func DefaultFilters() Filters {
	return Filters{Threshold: DefaultThreshold}
}

// Clamp keeps the filters inside their allowed ranges
func (f Filters) Clamp() Filters {
	f.Threshold = min(max(f.Threshold, MinThreshold), MaxThreshold)
	f.MinErrors = min(max(f.MinErrors, 0), MaxMinErrors)
	return f
}

// ForMode returns the filters that apply in mode. Outside wrong book review
// the sliders are not shown, so a single correct answer clears a question
// and no questions are hidden.
func (f Filters) ForMode(mode Mode) Filters {
	if mode != ModeWrong {
		return Filters{Threshold: MinThreshold}
	}
	return f.Clamp()
}

// AnswerResult describes the outcome of a submission
type AnswerResult struct {
	QuestionID int
	Given      string
	Expected   string
	Correct    bool
	Streak     int
	Threshold  int
	// WasWrong is set when the question was in the wrong book before answering.
	WasWrong bool
	Removed  bool
	Analysis string
}

// Message renders the outcome for the user
func (r *AnswerResult) Message() string {
	switch {
	case !r.Correct:
		return "Wrong answer, added to the wrong book"
	case r.Removed:
		return fmt.Sprintf("Correct! %d in a row, removed from the wrong book", r.Streak)
	case r.WasWrong:
		return fmt.Sprintf("Correct! (%d/%d in a row, keep going)", r.Streak, r.Threshold)
	default:
		return "Correct"
	}
}

// View is the question currently shown in a mode
type View struct {
	Question Question
	Index    int
	Total    int
	Stat     QuestionStat
	Mode     Mode
}

// Progress returns the position as a fraction for progress bars
func (v *View) Progress() float64 {
	if v.Total == 0 {
		return 0
	}
	return float64(v.Index+1) / float64(v.Total)
}

// Summary holds the counters shown next to the question
type Summary struct {
	Total         int
	Wrong         int
	Mode          Mode
	PracticeIndex int
	WrongIndex    int
}

// Study is the single user's study state: the question bank, the wrong
// book, per question stats and one position per mode. Every change is
// written through to the Store.
type Study struct {
	mu       sync.Mutex
	store    *Store
	recorder AttemptRecorder

	bank          []Question
	wrong         WrongBook
	stats         map[int]*QuestionStat
	practiceIndex int
	wrongIndex    int
	mode          Mode
}

// NewStudy loads the study state from store
func NewStudy(store *Store) *Study {
	snap := store.Load()
	return &Study{
		store:         store,
		bank:          snap.Bank,
		wrong:         snap.Progress.WrongQuestions,
		stats:         snap.Stats,
		practiceIndex: snap.Progress.PracticeIndex,
		wrongIndex:    snap.Progress.WrongIndex,
		mode:          snap.Progress.Mode,
	}
}

// SetRecorder installs a recorder for answer submissions
func (s *Study) SetRecorder(r AttemptRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

func (s *Study) snapshot() *Snapshot {
	return &Snapshot{
		Bank: s.bank,
		Progress: Progress{
			WrongQuestions: s.wrong,
			PracticeIndex:  s.practiceIndex,
			WrongIndex:     s.wrongIndex,
			Mode:           s.mode,
		},
		Stats: s.stats,
	}
}

func (s *Study) save() error {
	if err := s.store.Save(s.snapshot()); err != nil {
		Logger().Error("failed to save study data", zap.Error(err))
		return fmt.Errorf("failed to save study data: %w", err)
	}
	return nil
}

func (s *Study) find(id int) (*Question, bool) {
	for i := range s.bank {
		if s.bank[i].ID == id {
			return &s.bank[i], true
		}
	}
	return nil, false
}

func (s *Study) stat(id int) *QuestionStat {
	st, ok := s.stats[id]
	if !ok {
		st = &QuestionStat{}
		s.stats[id] = st
	}
	return st
}

// Submit checks an answer and updates stats and the wrong book. A wrong
// answer resets the streak and puts the question in the wrong book; a
// question leaves the wrong book once its streak reaches the threshold.
func (s *Study) Submit(ctx context.Context, id int, answer string, f Filters) (*AnswerResult, error) {
	f = f.Clamp()

	s.mu.Lock()
	q, ok := s.find(id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}

	result := &AnswerResult{
		QuestionID: id,
		Given:      answer,
		Expected:   q.Answer,
		Correct:    AnswersMatch(answer, q.Answer),
		Threshold:  f.Threshold,
		WasWrong:   s.wrong.Contains(id),
		Analysis:   q.Analysis,
	}

	st := s.stat(id)
	if !result.Correct {
		s.wrong.Add(id)
		st.Errors++
		st.Streak = 0
	} else {
		st.Streak++
		if result.WasWrong && st.Streak >= f.Threshold {
			s.wrong.Remove(id)
			result.Removed = true
		}
	}
	result.Streak = st.Streak

	mode := s.mode
	recorder := s.recorder
	err := s.save()
	s.mu.Unlock()

	VerboseLog("answer submitted",
		zap.Int("question", id),
		zap.String("given", answer),
		zap.Bool("correct", result.Correct),
		zap.Int("streak", result.Streak))

	if recorder != nil {
		attempt := Attempt{
			QuestionID: id,
			Given:      answer,
			Expected:   result.Expected,
			Correct:    result.Correct,
			Mode:       mode,
			AnsweredAt: time.Now(),
		}
		if rerr := recorder.RecordAttempt(ctx, attempt); rerr != nil {
			Logger().Warn("failed to record attempt", zap.Int("question", id), zap.Error(rerr))
		}
	}
	return result, err
}

// pool returns the questions studied in a mode, in bank order
func (s *Study) pool(mode Mode, minErrors int) []Question {
	if mode != ModeWrong {
		return s.bank
	}
	var pool []Question
	for _, q := range s.bank {
		if !s.wrong.Contains(q.ID) {
			continue
		}
		errs := 0
		if st, ok := s.stats[q.ID]; ok {
			errs = st.Errors
		}
		if errs >= minErrors {
			pool = append(pool, q)
		}
	}
	return pool
}

// Pool returns a copy of the questions studied in a mode
func (s *Study) Pool(mode Mode, minErrors int) []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Question(nil), s.pool(mode, minErrors)...)
}

func (s *Study) indexFor(mode Mode) *int {
	if mode == ModeWrong {
		return &s.wrongIndex
	}
	return &s.practiceIndex
}

// Current returns the question at the mode's position. A position past the
// end of the pool wraps back to the first question.
func (s *Study) Current(mode Mode, minErrors int) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.pool(mode, minErrors)
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	idx := s.indexFor(mode)
	if *idx >= len(pool) || *idx < 0 {
		*idx = 0
		if err := s.save(); err != nil {
			return nil, err
		}
	}

	q := pool[*idx]
	view := &View{
		Question: q,
		Index:    *idx,
		Total:    len(pool),
		Mode:     mode,
	}
	if st, ok := s.stats[q.ID]; ok {
		view.Stat = *st
	}
	return view, nil
}

// Next moves to the following question unless already at the last one
func (s *Study) Next(mode Mode, minErrors int) (bool, error) {
	return s.move(mode, minErrors, 1)
}

// Prev moves to the previous question unless already at the first one
func (s *Study) Prev(mode Mode, minErrors int) (bool, error) {
	return s.move(mode, minErrors, -1)
}

func (s *Study) move(mode Mode, minErrors, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.pool(mode, minErrors))
	idx := s.indexFor(mode)
	next := *idx + delta
	if next < 0 || next > total-1 {
		return false, nil
	}
	*idx = next
	return true, s.save()
}

// Mode returns the mode last selected
func (s *Study) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between practice and wrong book review
func (s *Study) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == mode {
		return nil
	}
	s.mode = mode
	return s.save()
}

// ReplaceBank drops all local data, progress included, and starts over with
// the given questions.
func (s *Study) ReplaceBank(questions []Question) error {
	if len(questions) == 0 {
		return ErrEmptyBank
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return err
	}
	s.resetProgress()
	s.bank = append([]Question(nil), questions...)

	Logger().Info("question bank replaced", zap.Int("questions", len(s.bank)))
	return s.save()
}

// AppendBank adds questions after the existing ones. New questions are
// numbered after the highest id in use so ids stay unique.
func (s *Study) AppendBank(questions []Question) (int, error) {
	if len(questions) == 0 {
		return 0, ErrEmptyBank
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := 0
	for _, q := range s.bank {
		if q.ID >= next {
			next = q.ID + 1
		}
	}
	for _, q := range questions {
		q.ID = next
		next++
		s.bank = append(s.bank, q)
	}

	Logger().Info("questions appended",
		zap.Int("added", len(questions)),
		zap.Int("total", len(s.bank)))
	return len(questions), s.save()
}

func (s *Study) resetProgress() {
	s.wrong.Clear()
	s.stats = make(map[int]*QuestionStat)
	s.practiceIndex = 0
	s.wrongIndex = 0
}

// ResetProgress clears the wrong book, stats and positions but keeps the bank
func (s *Study) ResetProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetProgress()
	Logger().Info("study progress reset")
	return s.save()
}

// ClearAll removes the bank together with all progress
func (s *Study) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetProgress()
	s.bank = nil
	Logger().Info("all study data removed")
	return s.store.Clear()
}

// Summary returns the current counters
func (s *Study) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Total:         len(s.bank),
		Wrong:         s.wrong.Len(),
		Mode:          s.mode,
		PracticeIndex: s.practiceIndex,
		WrongIndex:    s.wrongIndex,
	}
}

// Question looks up a question by id
func (s *Study) Question(id int) (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.find(id)
	if !ok {
		return Question{}, false
	}
	return *q, true
}

// Questions returns a copy of the whole bank
func (s *Study) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Question(nil), s.bank...)
}

// Stat returns the stats of a question
func (s *Study) Stat(id int) QuestionStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[id]; ok {
		return *st
	}
	return QuestionStat{}
}

// WrongIDs returns the ids in the wrong book
func (s *Study) WrongIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrong.IDs()
}

// SetAnalysis replaces the explanation of a question
func (s *Study) SetAnalysis(id int, analysis string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.find(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	q.Analysis = analysis
	return s.save()
}
