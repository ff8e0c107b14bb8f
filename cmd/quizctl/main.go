package main

import (
	"fmt"
	"os"

	"quizdrill"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool

	v      = quizdrill.NewViper()
	cfg    *quizdrill.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quizctl",
	Short: "Manage and drill a local question bank",
	Long: `quizctl works on the same data directory as the web server.

It can check and import question banks (.md, .csv, .xlsx), show study
statistics and answer history, reset progress, fill in missing explanations
and run a drill session in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = quizdrill.LoadConfig(v, configPath)
		if err != nil {
			return err
		}
		logger = quizdrill.InitLogger(cfg.Log.File, cfg.Log.Verbose || verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: ./quizdrill.yaml if present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose debugging output")
	flags.String("data-dir", ".", "directory holding the study data")
	bindFlag(v, "data_dir", "data-dir")

	rootCmd.AddCommand(checkCmd, importCmd, statsCmd, resetCmd, historyCmd, explainCmd, playCmd)
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// openStudy opens the study state in the configured data directory
func openStudy() (*quizdrill.Study, error) {
	store, err := quizdrill.OpenStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return quizdrill.NewStudy(store), nil
}

// openHistory opens the answer history, or returns nil when it is disabled
func openHistory() (*quizdrill.HistoryDB, error) {
	path := cfg.HistoryPath()
	if path == "" {
		return nil, nil
	}
	return quizdrill.OpenHistory(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
