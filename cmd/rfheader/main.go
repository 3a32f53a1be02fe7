// Command rfheader inspects and converts random forest model headers.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aschampion/vigra/core/model"
	vlog "github.com/aschampion/vigra/pkg/log"
	"github.com/aschampion/vigra/randomforest"
)

// headerView is the JSON shape of a dumped header.
type headerView struct {
	Options struct {
		TrainingSetProportion float64 `json:"training_set_proportion"`
		TrainingSetSize       int     `json:"training_set_size"`
		TrainingSetCalc       string  `json:"training_set_calc"`
		SampleWithReplacement bool    `json:"sample_with_replacement"`
		Stratification        string  `json:"stratification"`
		MtrySwitch            string  `json:"mtry_switch"`
		Mtry                  int     `json:"mtry"`
		TreeCount             int     `json:"tree_count"`
		MinSplitNodeSize      int     `json:"min_split_node_size"`
	} `json:"options"`
	Problem map[string][]float64 `json:"problem"`
}

func view(h *model.ForestHeader) headerView {
	var v headerView
	o := h.Options
	v.Options.TrainingSetProportion = o.Proportion()
	v.Options.TrainingSetSize = o.TrainingSetSize()
	v.Options.TrainingSetCalc = o.SampleStrategy().String()
	v.Options.SampleWithReplacement = o.WithReplacement()
	v.Options.Stratification = o.Stratification().String()
	v.Options.MtrySwitch = o.MtryStrategy().String()
	v.Options.Mtry = o.Mtry()
	v.Options.TreeCount = o.NumTrees()
	v.Options.MinSplitNodeSize = o.MinSplitSize()
	v.Problem = h.Spec.AsMap()
	return v
}

func loadHeader(path string) (*model.ForestHeader, error) {
	h := model.NewForestHeader(randomforest.NewOptions(), randomforest.NewProblemSpec())
	if err := h.Load(path); err != nil {
		return nil, err
	}
	return h, nil
}

func DumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <header.gob>",
		Short: "Print a saved model header as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := loadHeader(args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(view(h), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func ExportNPYCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export-npy <header.gob> <dir>",
		Short: "Write the header's flat buffers as options.npy and problem.npy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := loadHeader(args[0])
			if err != nil {
				return err
			}
			if err := h.ExportNPY(args[1]); err != nil {
				return err
			}
			log.Info().Str("dir", args[1]).Msg("header exported")
			return nil
		},
	}
}

func ImportNPYCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-npy <dir> <header.gob>",
		Short: "Rebuild a gob header from options.npy and problem.npy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := model.NewForestHeader(randomforest.NewOptions(), randomforest.NewProblemSpec())
			if err := h.ImportNPY(args[0]); err != nil {
				return err
			}
			if err := h.Save(args[1]); err != nil {
				return err
			}
			log.Info().Str("file", args[1]).Msg("header imported")
			return nil
		},
	}
}

var logLevel string

func main() {
	root := &cobra.Command{Use: "rfheader", PersistentPreRun: setupLogging}
	root.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: info, error or debug")

	root.AddCommand(DumpCommand())
	root.AddCommand(ExportNPYCommand())
	root.AddCommand(ImportNPYCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging configures both logging stacks from the shared flag:
// the zerolog global level for the CLI's own messages and the slog
// default logger the library packages report through.
func setupLogging(cmd *cobra.Command, args []string) {
	switch logLevel {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		panic("Invalid logging level specified")
	}
	vlog.SetupLogger(logLevel)
}
