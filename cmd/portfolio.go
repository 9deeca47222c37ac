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
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/portfolio"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	portfolioBenchmark string
	portfolioFormat    string
	portfolioPlot      bool
)

func init() {
	rootCmd.AddCommand(portfolioCmd)

	portfolioCmd.Flags().StringVarP(&portfolioBenchmark, "benchmark", "b", "", "Security to compare the portfolio against; overrides the definition")
	portfolioCmd.Flags().StringVarP(&portfolioFormat, "format", "f", formatTable, "Output format one of: `table` or `json`")
	portfolioCmd.Flags().BoolVar(&portfolioPlot, "plot", false, "Plot the rebased index of the portfolio in the terminal")
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <definition.toml>",
	Short: "Simulate a portfolio and compare it against a benchmark",
	Long: `Build the portfolio described by a TOML definition, simulate its value with
the configured rebalancing policy and report its statistics against a
benchmark together with its exposures and fees.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		opts, err := analysisSettings()
		if err != nil {
			return err
		}

		fh, err := appFs.Open(args[0])
		if err != nil {
			return err
		}
		defer fh.Close()

		def, err := portfolio.LoadDefinition(fh)
		if err != nil {
			log.Error().Err(err).Str("File", args[0]).Msg("could not load portfolio definition")
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

		p, err := def.Build(ctx, provider, begin, end)
		if err != nil {
			return err
		}

		sec, err := p.Securitize()
		if err != nil {
			return err
		}

		a := analyzer.New()
		benchmarkID := def.Benchmark
		if portfolioBenchmark != "" {
			benchmarkID = portfolioBenchmark
		}
		if benchmarkID != "" {
			benchmark, err := provider.Security(ctx, benchmarkID, sec.TimeSeries().Start(), sec.TimeSeries().End())
			if err != nil {
				return err
			}
			a.SetBenchmark(benchmark)
		}
		a.AddSecurity(sec)

		if portfolioFormat == formatJSON {
			summary, err := a.Summary(opts.mode, opts.periodsPerYear, opts.riskFree)
			if err != nil {
				return err
			}
			return writeJSON(&portfolioReport{
				ID:        p.ID().String(),
				Name:      p.Name(),
				Summary:   summary,
				Exposures: p.ExposuresDetailed(),
				Fees:      p.Fees()[portfolio.FeesKey],
			})
		}

		if err := report(a, opts, portfolioFormat, portfolioPlot); err != nil {
			return err
		}

		fmt.Println(exposureTable(p))
		fmt.Printf("Fees: %s\n", percent(p.Fees()[portfolio.FeesKey], 3))
		return nil
	},
}

type portfolioReport struct {
	ID        string                                          `json:"id"`
	Name      string                                          `json:"name"`
	Summary   *analyzer.Summary                               `json:"summary"`
	Exposures map[string]map[string][]*portfolio.Contribution `json:"exposures"`
	Fees      float64                                         `json:"fees"`
}

// exposureTable lists the weight of every exposure bucket and the
// securities contributing to it
func exposureTable(p *portfolio.Portfolio) string {
	exposures := p.Exposures()
	detailed := p.ExposuresDetailed()

	categories := make([]string, 0, len(exposures))
	for category := range exposures {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)
	table.SetHeader([]string{"Category", "Exposure", "Weight", "Securities"})
	table.SetBorder(false)
	table.SetAutoMergeCells(true)

	for _, category := range categories {
		buckets := make([]string, 0, len(exposures[category]))
		for bucket := range exposures[category] {
			buckets = append(buckets, bucket)
		}
		sort.Strings(buckets)

		for _, bucket := range buckets {
			ids := make([]string, 0, len(detailed[category][bucket]))
			for _, c := range detailed[category][bucket] {
				ids = append(ids, c.SecurityID)
			}
			table.Append([]string{category, bucket, percent(exposures[category][bucket], 2), strings.Join(ids, ", ")})
		}
	}

	table.Render()
	return sb.String()
}

func percent(v float64, places int32) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(places) + "%"
}
