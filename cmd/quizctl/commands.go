package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"quizdrill"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importAppend bool
	checkJSON    bool
	resetAll     bool
	historyLimit int
	explainLimit int
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse a question bank and print what would be imported",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := quizdrill.LoadQuestionsFile(args[0])
		if err != nil {
			return err
		}
		return printQuestions(cmd.OutOrStdout(), questions, checkJSON)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the question bank with a file, or append to it",
	Long: `Replace the question bank with the questions in file. This clears all
progress. With --append the questions are added after the existing ones and
progress is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := quizdrill.LoadQuestionsFile(args[0])
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("%w in %s", quizdrill.ErrEmptyBank, args[0])
		}

		study, err := openStudy()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if importAppend {
			n, err := study.AppendBank(questions)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Appended %d questions, %d in bank\n", n, study.Summary().Total)
			return nil
		}
		if err := study.ReplaceBank(questions); err != nil {
			return err
		}
		history, err := openHistory()
		if err != nil {
			return err
		}
		if history != nil {
			defer history.Close()
			if err := history.Clear(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "Loaded %d questions, previous progress cleared\n", len(questions))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show bank size, wrong book and the most missed questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		study, err := openStudy()
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), study)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear progress but keep the bank (--all removes the bank too)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		study, err := openStudy()
		if err != nil {
			return err
		}
		if resetAll {
			if err := study.ClearAll(); err != nil {
				return err
			}
			history, err := openHistory()
			if err != nil {
				return err
			}
			if history != nil {
				defer history.Close()
				if err := history.Clear(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All study data removed")
			return nil
		}
		if err := study.ResetProgress(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Progress cleared, question bank kept")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show daily accuracy and the latest answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		if history == nil {
			return errors.New("answer history is disabled (history.db is empty)")
		}
		defer history.Close()

		daily, err := history.DailyAccuracy(cmd.Context(), 14)
		if err != nil {
			return err
		}
		attempts, err := history.RecentAttempts(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tANSWERED\tCORRECT\tRATE")
		for _, d := range daily {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.0f%%\n", d.Day, d.Answered, d.Correct, d.Rate())
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "WHEN\tQUESTION\tGIVEN\tEXPECTED\tRESULT")
		for _, a := range attempts {
			result := "wrong"
			if a.Correct {
				result = "correct"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", a.AnsweredAt.Local().Format("2006-01-02 15:04"), a.QuestionID, a.Given, a.Expected, result)
		}
		return w.Flush()
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Write explanations for questions that have none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.AI.Enabled() {
			return errors.New("no API key configured (set OPENAI_API_KEY or ai.api_key)")
		}
		study, err := openStudy()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		explainer := quizdrill.NewExplainer(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
		n, err := quizdrill.ExplainMissing(ctx, study, explainer, explainLimit)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d explanations\n", n)
		if err != nil {
			logger.Error("explain stopped", zap.Error(err))
		}
		return err
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the parsed questions as JSON")
	importCmd.Flags().BoolVar(&importAppend, "append", false, "append instead of replacing the bank")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "also remove the question bank and answer history")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of recent answers to show")
	explainCmd.Flags().IntVar(&explainLimit, "limit", 0, "explain at most this many questions (0 = all)")
}

func printQuestions(out io.Writer, questions []quizdrill.Question, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		return enc.Encode(questions)
	}

	for _, q := range questions {
		fmt.Fprintf(out, "#%d [%s] %s\n", q.ID, q.Type, q.Question)
		for _, opt := range q.Options {
			fmt.Fprintf(out, "    %s\n", opt)
		}
		fmt.Fprintf(out, "    answer: %s\n", q.Answer)
		if q.HasAnalysis() {
			fmt.Fprintf(out, "    analysis: %s\n", q.Analysis)
		}
	}
	fmt.Fprintf(out, "%d questions\n", len(questions))
	return nil
}

func printStats(out io.Writer, study *quizdrill.Study) {
	summary := study.Summary()
	fmt.Fprintf(out, "Questions in bank: %d\n", summary.Total)
	fmt.Fprintf(out, "Wrong book: %d\n", summary.Wrong)
	fmt.Fprintf(out, "Mode: %s (practice at %d, wrong book at %d)\n", summary.Mode, summary.PracticeIndex+1, summary.WrongIndex+1)

	wrong := study.WrongIDs()
	if len(wrong) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nID\tERRORS\tSTREAK\tQUESTION")
	for _, id := range wrong {
		q, ok := study.Question(id)
		if !ok {
			continue
		}
		st := study.Stat(id)
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", id, st.Errors, st.Streak, truncate(q.Question, 60))
	}
	w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
