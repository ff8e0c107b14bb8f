package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quizdrill"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	keyThreshold = "threshold"
	keyMinErrors = "min_errors"
)

type optionView struct {
	Letter string
	Text   string
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// A cookie that fails to decode still yields a usable new session
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		quizdrill.VerboseLog("discarding unreadable session", zap.Error(err))
	}
	return session
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		quizdrill.Logger().Error("session save error", zap.Error(err))
	}
}

// filters returns the wrong book filters stored in the session
func (s *Server) filters(session *sessions.Session) quizdrill.Filters {
	f := quizdrill.Filters{Threshold: s.cfg.Study.Threshold}
	if v, ok := session.Values[keyThreshold].(int); ok {
		f.Threshold = v
	}
	if v, ok := session.Values[keyMinErrors].(int); ok {
		f.MinErrors = v
	}
	return f.Clamp()
}

// poolMinErrors applies the min errors filter only in wrong book mode
func poolMinErrors(mode quizdrill.Mode, f quizdrill.Filters) int {
	return f.ForMode(mode).MinErrors
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, fb Feedback) {
	session := s.session(r)
	session.AddFlash(fb)
	s.saveSession(w, r, session)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	err := s.templates[name].ExecuteTemplate(w, "base.html", data)
	if err != nil {
		quizdrill.Logger().Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	filters := s.filters(session)

	var feedback *Feedback
	if flashes := session.Flashes(); len(flashes) > 0 {
		if fb, ok := flashes[len(flashes)-1].(Feedback); ok {
			feedback = &fb
		}
		s.saveSession(w, r, session)
	}

	summary := s.study.Summary()
	mode := summary.Mode

	data := map[string]interface{}{
		"Summary":   summary,
		"Mode":      string(mode),
		"Filters":   filters,
		"Feedback":  feedback,
		"AIEnabled": s.explainer != nil,
		"Formats":   quizdrill.SupportedExtensions,
		"Wrong":     mode == quizdrill.ModeWrong,
	}

	if summary.Total > 0 {
		view, err := s.study.Current(mode, poolMinErrors(mode, filters))
		switch {
		case errors.Is(err, quizdrill.ErrEmptyPool):
			// nothing left in this mode
		case err != nil:
			quizdrill.Logger().Error("failed to load current question", zap.Error(err))
			http.Error(w, "Failed to load question", http.StatusInternalServerError)
			return
		default:
			options := make([]optionView, 0, len(view.Question.Options))
			for _, opt := range view.Question.Options {
				options = append(options, optionView{Letter: quizdrill.OptionLetter(opt), Text: opt})
			}
			data["View"] = view
			data["Options"] = options
		}
	}

	s.render(w, "home", data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.Server.MaxUploadSize << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		http.Error(w, "Failed to parse upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("bank")
	if err != nil {
		http.Error(w, "A question bank file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	questions, err := quizdrill.LoadQuestions(header.Filename, file)
	if err != nil {
		quizdrill.Logger().Warn("failed to read upload", zap.String("file", header.Filename), zap.Error(err))
		s.flash(w, r, Feedback{Error: true, Message: fmt.Sprintf("Failed to read %s: %v", header.Filename, err)})
		s.redirectHome(w, r)
		return
	}
	if len(questions) == 0 {
		s.flash(w, r, Feedback{Error: true, Message: fmt.Sprintf("No questions found in %s", header.Filename)})
		s.redirectHome(w, r)
		return
	}

	var msg string
	switch r.FormValue("action") {
	case "append":
		n, err := s.study.AppendBank(questions)
		if err != nil {
			http.Error(w, "Failed to append questions", http.StatusInternalServerError)
			return
		}
		msg = fmt.Sprintf("Appended %d questions", n)
	default:
		if err := s.study.ReplaceBank(questions); err != nil {
			http.Error(w, "Failed to replace question bank", http.StatusInternalServerError)
			return
		}
		// ids restart at 0, so old attempts would point at new questions
		if s.history != nil {
			if err := s.history.Clear(r.Context()); err != nil {
				quizdrill.Logger().Error("failed to clear answer history", zap.Error(err))
			}
		}
		msg = fmt.Sprintf("Loaded %d questions, previous progress cleared", len(questions))
	}

	s.metrics.BankSize.Set(float64(s.study.Summary().Total))
	s.flash(w, r, Feedback{Correct: true, Message: msg})
	s.redirectHome(w, r)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if err := s.study.SetMode(quizdrill.ParseMode(r.FormValue("mode"))); err != nil {
		http.Error(w, "Failed to switch mode", http.StatusInternalServerError)
		return
	}
	s.redirectHome(w, r)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	session := s.session(r)
	f := s.filters(session)
	if v, err := strconv.Atoi(r.FormValue(keyThreshold)); err == nil {
		f.Threshold = v
	}
	if v, err := strconv.Atoi(r.FormValue(keyMinErrors)); err == nil {
		f.MinErrors = v
	}
	f = f.Clamp()

	session.Values[keyThreshold] = f.Threshold
	session.Values[keyMinErrors] = f.MinErrors
	s.saveSession(w, r, session)
	s.redirectHome(w, r)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(r.FormValue("question_id"))
	if err != nil {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	choices := r.Form["choice"]
	if len(choices) == 0 {
		s.flash(w, r, Feedback{QuestionID: id, Error: true, Message: "Pick an answer first"})
		s.redirectHome(w, r)
		return
	}
	letters := make([]string, 0, len(choices))
	for _, c := range choices {
		letters = append(letters, quizdrill.OptionLetter(c))
	}
	answer := quizdrill.JoinChoices(letters)

	mode := s.study.Mode()
	filters := s.filters(s.session(r)).ForMode(mode)
	result, err := s.study.Submit(r.Context(), id, answer, filters)
	if errors.Is(err, quizdrill.ErrQuestionNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil && result == nil {
		http.Error(w, "Failed to check answer", http.StatusInternalServerError)
		return
	}

	s.metrics.ObserveAnswer(string(mode), result.Correct)
	s.flash(w, r, Feedback{
		QuestionID: id,
		Correct:    result.Correct,
		Message:    result.Message(),
		Expected:   result.Expected,
		Analysis:   result.Analysis,
	})
	s.redirectHome(w, r)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, s.study.Next)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, s.study.Prev)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, move func(quizdrill.Mode, int) (bool, error)) {
	mode := s.study.Mode()
	filters := s.filters(s.session(r))
	if _, err := move(mode, poolMinErrors(mode, filters)); err != nil {
		http.Error(w, "Failed to move", http.StatusInternalServerError)
		return
	}
	s.redirectHome(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.study.ResetProgress(); err != nil {
		http.Error(w, "Failed to reset progress", http.StatusInternalServerError)
		return
	}
	s.flash(w, r, Feedback{Correct: true, Message: "Progress cleared, question bank kept"})
	s.redirectHome(w, r)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.explainer == nil {
		http.Error(w, "Explanations are not configured", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(r.FormValue("question_id"))
	if err != nil {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	explanation, err := quizdrill.ExplainQuestion(ctx, s.study, s.explainer, id)
	if errors.Is(err, quizdrill.ErrQuestionNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		quizdrill.Logger().Error("failed to explain question", zap.Int("question", id), zap.Error(err))
		s.flash(w, r, Feedback{QuestionID: id, Error: true, Message: "Could not write an explanation right now"})
		s.redirectHome(w, r)
		return
	}

	s.flash(w, r, Feedback{QuestionID: id, Correct: true, Message: "Explanation added", Analysis: explanation})
	s.redirectHome(w, r)
}

type attemptView struct {
	quizdrill.Attempt
	Question string
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Enabled": s.history != nil,
		"Summary": s.study.Summary(),
	}

	if s.history != nil {
		attempts, err := s.history.RecentAttempts(r.Context(), 50)
		if err != nil {
			quizdrill.Logger().Error("failed to get attempts", zap.Error(err))
			http.Error(w, "Failed to get history", http.StatusInternalServerError)
			return
		}
		daily, err := s.history.DailyAccuracy(r.Context(), 14)
		if err != nil {
			quizdrill.Logger().Error("failed to get daily accuracy", zap.Error(err))
			http.Error(w, "Failed to get history", http.StatusInternalServerError)
			return
		}

		views := make([]attemptView, 0, len(attempts))
		for _, a := range attempts {
			v := attemptView{Attempt: a}
			if q, ok := s.study.Question(a.QuestionID); ok {
				v.Question = q.Question
			}
			views = append(views, v)
		}
		data["Attempts"] = views
		data["Daily"] = daily
	}

	s.render(w, "history", data)
}
