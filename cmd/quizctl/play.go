package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"quizdrill"

	"github.com/spf13/cobra"
)

var (
	playMode      string
	playThreshold int
	playMinErrors int
	playCount     int
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Drill questions in the terminal",
	Long: `Drill questions one at a time, starting where the last session stopped.
Type the letters of your answer (e.g. "b" or "a,c") and press enter. An empty
line skips the question, "q" quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		study, err := openStudy()
		if err != nil {
			return err
		}
		history, err := openHistory()
		if err != nil {
			return err
		}
		if history != nil {
			defer history.Close()
			study.SetRecorder(history)
		}

		mode := quizdrill.ParseMode(playMode)
		if err := study.SetMode(mode); err != nil {
			return err
		}
		filters := quizdrill.Filters{Threshold: playThreshold, MinErrors: playMinErrors}.ForMode(mode)
		return playLoop(cmd, study, mode, filters)
	},
}

func init() {
	playCmd.Flags().StringVar(&playMode, "mode", "practice", "practice or wrong")
	playCmd.Flags().IntVar(&playThreshold, "threshold", quizdrill.DefaultThreshold, "correct answers in a row that clear a wrong book question (1-5)")
	playCmd.Flags().IntVar(&playMinErrors, "min-errors", 0, "only review questions answered wrong at least this often (0-10)")
	playCmd.Flags().IntVar(&playCount, "count", 0, "stop after this many questions (0 = until the end)")
}

func playLoop(cmd *cobra.Command, study *quizdrill.Study, mode quizdrill.Mode, filters quizdrill.Filters) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	minErrors := filters.MinErrors

	asked, correct := 0, 0
	defer func() {
		fmt.Fprintf(out, "\nAnswered %d, correct %d\n", asked, correct)
	}()

	for playCount == 0 || asked < playCount {
		view, err := study.Current(mode, minErrors)
		if errors.Is(err, quizdrill.ErrEmptyPool) {
			if mode == quizdrill.ModeWrong {
				fmt.Fprintln(out, "All matching wrong book questions are cleared!")
			} else {
				fmt.Fprintln(out, "The question bank is empty, import one first.")
			}
			return nil
		}
		if err != nil {
			return err
		}

		printQuestion(out, view)

		answer, quit, err := readAnswer(out, scanner)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}

		removed := false
		if answer != "" {
			result, err := study.Submit(cmd.Context(), view.Question.ID, answer, filters)
			if err != nil {
				return err
			}
			asked++
			if result.Correct {
				correct++
				fmt.Fprintf(out, "✅ %s\n", result.Message())
			} else {
				fmt.Fprintf(out, "❌ %s\n", result.Message())
				fmt.Fprintf(out, "Correct answer: %s\n", result.Expected)
				fmt.Fprintf(out, "Analysis: %s\n", result.Analysis)
			}
			removed = result.Removed
		}
		fmt.Fprintln(out)

		// a cleared question leaves the wrong book, so the next one moves up
		if removed && mode == quizdrill.ModeWrong {
			if view.Total > 1 && view.Index == view.Total-1 {
				fmt.Fprintln(out, "That was the last question.")
				return nil
			}
			continue
		}
		moved, err := study.Next(mode, minErrors)
		if err != nil {
			return err
		}
		if !moved {
			fmt.Fprintln(out, "That was the last question.")
			return nil
		}
	}
	return nil
}

func printQuestion(out io.Writer, view *quizdrill.View) {
	q := view.Question
	fmt.Fprintf(out, "No.%d/%d  %s   (wrong %d times, streak %d)\n", view.Index+1, view.Total, q.Type, view.Stat.Errors, view.Stat.Streak)
	fmt.Fprintln(out, q.Question)
	for _, opt := range q.Options {
		fmt.Fprintf(out, "  %s\n", opt)
	}
}

// readAnswer reads one line and keeps only option letters
func readAnswer(out io.Writer, scanner *bufio.Scanner) (string, bool, error) {
	fmt.Fprint(out, "> ")
	if !scanner.Scan() {
		return "", true, scanner.Err()
	}
	line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
	if line == "Q" {
		return "", true, nil
	}

	var letters []string
	for _, r := range line {
		if r >= 'A' && r <= 'F' {
			letters = append(letters, string(r))
		}
	}
	return quizdrill.JoinChoices(letters), false, nil
}
