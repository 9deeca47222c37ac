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

	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/vicanso/go-charts/v2"
)

var (
	chartBenchmark string
	chartOut       string
	chartDrawdown  bool
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVarP(&chartBenchmark, "benchmark", "b", "", "Security to include as the benchmark; defaults to the first security")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "chart.png", "File the PNG chart is written to")
	chartCmd.Flags().BoolVar(&chartDrawdown, "drawdown", false, "Chart drawdowns instead of the rebased index")
}

var chartCmd = &cobra.Command{
	Use:   "chart <id>...",
	Short: "Render a PNG line chart of the rebased index of securities",
	Args:  cobra.MinimumNArgs(1),
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
		if chartBenchmark != "" {
			benchmark, err := provider.Security(ctx, chartBenchmark, begin, end)
			if err != nil {
				return err
			}
			a.SetBenchmark(benchmark)
		}
		for _, sec := range securities {
			a.AddSecurity(sec)
		}

		var res *analyzer.Result
		title := "Growth of " + formatValue(opts.initialValue)
		if chartDrawdown {
			res, err = a.Drawdowns(opts.mode)
			title = "Drawdown"
		} else {
			res, err = a.RebasedIndex(opts.mode, opts.initialValue)
		}
		if err != nil {
			return err
		}

		img, err := renderChart(title, res)
		if err != nil {
			log.Error().Err(err).Msg("could not render chart")
			return err
		}

		if err := afero.WriteFile(appFs, chartOut, img, 0644); err != nil {
			return err
		}

		log.Info().Str("File", chartOut).Int("NumSeries", len(args)+1).Msg("wrote chart")
		return nil
	},
}

// renderChart draws one line per security plus one for the benchmark
func renderChart(title string, res *analyzer.Result) ([]byte, error) {
	values := append(res.Securities.Vals, res.Benchmark.Vals...)
	names := append(res.Securities.ColNames, res.Benchmark.ColNames[0]+" (benchmark)")

	labels := make([]string, res.Benchmark.Len())
	for idx, dt := range res.Benchmark.Dates {
		labels[idx] = calendar.Format(dt)
	}

	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: 8}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}

	return painter.Bytes()
}

func formatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
