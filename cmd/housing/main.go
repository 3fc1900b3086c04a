package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invertedv/housing/config"
	"github.com/invertedv/housing/logger"
	"github.com/invertedv/housing/pipeline"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "housing",
	Short: "Clean, impute and model housing sale prices",
	Long: `housing reads a transaction table and a macro table, cleans and imputes them and compares
regression models of sale price.

Settings come from a YAML file and HOUSING_ environment variables, e.g. HOUSING_IMPUTE_DRAWS=10.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run the pipeline and print the model scores",
	Example: `  housing run --config housing.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		log, sync := logger.New(cfg.Log.Production)
		defer func() { _ = sync() }()

		res, err := pipeline.Run(cfg, log)
		if err != nil {
			log.Error("run failed", zap.Error(err))
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s\n%s", res.RunID, pipeline.ScoreTable(res.Scores))

		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:     "describe",
	Short:   "Summarize the columns of the projected input tables",
	Example: `  housing describe --config housing.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		s, err := pipeline.Describe(cfg)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), s)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.AddCommand(runCmd, describeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
