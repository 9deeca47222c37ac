// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeBenchmark string
	analyzeFormat    string
	analyzePlot      bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeBenchmark, "benchmark", "b", "", "Security to compare against; defaults to the first security")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatTable, "Output format one of: `table` or `json`")
	analyzeCmd.Flags().BoolVar(&analyzePlot, "plot", false, "Plot the rebased index of every security in the terminal")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <id>...",
	Short: "Compare securities against a benchmark",
	Long: `Load the listed securities, align them on the dates they have in common and
report beta, volatility, Sharpe ratio and maximum drawdown of each against the
benchmark.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		opts, err := analysisSettings()
		if err != nil {
			return err
		}

		provider, err := newProvider(ctx)
		if err != nil {
			return err
		}

		begin, end, err := dateRange()
		if err != nil {
			return err
		}

		securities, err := data.LoadAll(ctx, provider, args, begin, end)
		if err != nil {
			return err
		}

		a := analyzer.New()
		if analyzeBenchmark != "" {
			benchmark, err := provider.Security(ctx, analyzeBenchmark, begin, end)
			if err != nil {
				return err
			}
			a.SetBenchmark(benchmark)
		}

		for _, sec := range securities {
			a.AddSecurity(sec)
		}

		return report(a, opts, analyzeFormat, analyzePlot)
	},
}

type analysisReport struct {
	Summary  *analyzer.Summary    `json:"summary"`
	Episodes []*analyzer.DrawDown `json:"maxDrawdowns"`
}

// report prints the summary statistics of a in the requested format
func report(a *analyzer.Analyzer, opts *settings, format string, plot bool) error {
	summary, err := a.Summary(opts.mode, opts.periodsPerYear, opts.riskFree)
	if err != nil {
		return err
	}

	log.Info().Time("Start", a.EarliestCommonDate()).Time("End", a.LatestCommonDate()).
		Int("NumDates", len(a.Dates())).Str("Mode", string(opts.mode)).Msg("analyzed securities")

	switch format {
	case formatJSON:
		episodes, err := a.MaxDrawdownEpisodes(opts.mode)
		if err != nil {
			return err
		}
		if err := writeJSON(&analysisReport{Summary: summary, Episodes: episodes}); err != nil {
			return err
		}
	case formatTable:
		fmt.Printf("%s to %s (%d dates, %s)\n\n", calendar.Format(a.EarliestCommonDate()),
			calendar.Format(a.LatestCommonDate()), len(a.Dates()), opts.mode)
		fmt.Println(summary.Table())
	default:
		return fmt.Errorf("unknown format %q; must be table or json", format)
	}

	if plot {
		return plotIndex(a, opts)
	}

	return nil
}

// plotIndex draws the rebased index of every security and the benchmark
func plotIndex(a *analyzer.Analyzer, opts *settings) error {
	idx, err := a.RebasedIndex(opts.mode, opts.initialValue)
	if err != nil {
		return err
	}

	cols := append(idx.Securities.Vals, idx.Benchmark.Vals...)
	names := append(idx.Securities.ColNames, idx.Benchmark.ColNames[0]+" (benchmark)")
	for colIdx, col := range cols {
		fmt.Println()
		fmt.Println(asciigraph.Plot(col, asciigraph.Height(12), asciigraph.Width(72), asciigraph.Caption(names[colIdx])))
	}

	return nil
}
