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

package analyzer_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/timeseries"
)

func security(id string, start time.Time, prices ...float64) data.Security {
	dates := make([]time.Time, len(prices))
	for idx := range prices {
		dates[idx] = start.AddDate(0, 0, idx)
	}
	return data.NewInstrument(id, data.KindEquity, timeseries.MustNew(dates, prices, nil), nil, nil)
}

func expectClose(actual []float64, expected []float64, tolerance float64) {
	Expect(actual).To(HaveLen(len(expected)))
	for idx := range expected {
		Expect(actual[idx]).To(BeNumerically("~", expected[idx], tolerance), "index %d", idx)
	}
}

var _ = Describe("Analyzer", func() {
	var (
		a     *analyzer.Analyzer
		sec1  data.Security
		sec2  data.Security
		index data.Security
		jan1  = calendar.Date(2020, 1, 1)
		jan6  = calendar.Date(2020, 1, 6)
	)

	BeforeEach(func() {
		sec1 = security("sec1", jan1, 200, 202, 204, 206, 208, 215)
		sec2 = security("sec2", jan1, 100, 98, 97, 99, 100, 101)
		index = security("index", jan1, 100, 101, 102, 103, 102, 105)

		a = analyzer.New()
		a.AddSecurity(sec1)
		a.AddSecurity(sec2)
		a.SetBenchmark(index)
	})

	Context("with two securities and a benchmark", func() {
		It("finds the common window", func() {
			Expect(a.Err()).To(BeNil())
			Expect(a.EarliestCommonDate()).To(Equal(jan1))
			Expect(a.LatestCommonDate()).To(Equal(jan6))
			Expect(a.Dates()).To(HaveLen(6))
			Expect(a.ColNames()).To(Equal([]string{"sec1", "sec2"}))
			Expect(a.Benchmark().ID()).To(Equal("index"))
			Expect(a.Securities()).To(HaveLen(2))
		})

		It("exposes the aligned matrices", func() {
			px, err := a.Prices()
			Expect(err).To(BeNil())
			Expect(px.Securities.Vals).To(Equal([][]float64{
				{200, 202, 204, 206, 208, 215},
				{100, 98, 97, 99, 100, 101},
			}))
			Expect(px.Benchmark.Vals).To(Equal([][]float64{{100, 101, 102, 103, 102, 105}}))

			tr, err := a.TotalReturnIndex()
			Expect(err).To(BeNil())
			Expect(tr.Securities.Vals).To(Equal(px.Securities.Vals))
		})

		It("computes returns starting on the second date", func() {
			rets, err := a.Returns(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(rets.Securities.Len()).To(Equal(5))
			Expect(rets.Securities.Dates).To(Equal(a.Dates()[1:]))
			Expect(rets.Benchmark.Dates).To(Equal(a.Dates()[1:]))
			expectClose(rets.Securities.Vals[0], []float64{0.01, 0.00990099, 0.00980392, 0.00970874, 0.03365385}, 1e-6)
			expectClose(rets.Securities.Vals[1], []float64{-0.02, -0.01020408, 0.02061856, 0.01010101, 0.01}, 1e-6)
			expectClose(rets.Benchmark.Vals[0], []float64{0.01, 0.00990099, 0.00980392, -0.00970874, 0.02941176}, 1e-6)
		})

		It("rebases every column to the initial value", func() {
			idx, err := a.RebasedIndex(analyzer.Price, 1000)
			Expect(err).To(BeNil())
			Expect(idx.Securities.Dates).To(Equal(a.Dates()))
			Expect(idx.Securities.Vals[0][0]).To(Equal(1000.0))
			Expect(idx.Securities.Vals[1][0]).To(Equal(1000.0))
			Expect(idx.Benchmark.Vals[0][0]).To(Equal(1000.0))
			expectClose(idx.Securities.Vals[0], []float64{1000, 1010, 1020, 1030, 1040, 1075}, 1e-9)
			expectClose(idx.Securities.Vals[1], []float64{1000, 980, 970, 990, 1000, 1010}, 1e-9)
			expectClose(idx.Benchmark.Vals[0], []float64{1000, 1010, 1020, 1030, 1020, 1050}, 1e-9)
		})

		It("computes betas against the benchmark", func() {
			betas, err := a.Betas(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(betas.Securities.Dates).To(Equal([]time.Time{jan6}))
			Expect(betas.Securities.Vals[0][0]).To(BeNumerically("~", 0.611167, 1e-6))
			Expect(betas.Securities.Vals[1][0]).To(BeNumerically("~", -0.008818, 1e-6))
			Expect(betas.Benchmark.Vals[0][0]).To(Equal(1.0))
		})

		It("computes annualized volatility", func() {
			vols, err := a.Volatilities(analyzer.Price, 252)
			Expect(err).To(BeNil())
			Expect(vols.Securities.Dates).To(Equal([]time.Time{jan6}))
			Expect(vols.Securities.Vals[0][0]).To(BeNumerically("~", 0.168975, 1e-6))
			Expect(vols.Securities.Vals[1][0]).To(BeNumerically("~", 0.264343, 1e-6))
			Expect(vols.Benchmark.Vals[0][0]).To(BeNumerically("~", 0.219566, 1e-6))
		})

		It("computes Sharpe ratios", func() {
			sharpes, err := a.Sharpes(analyzer.Price, 252, 0.02)
			Expect(err).To(BeNil())
			Expect(sharpes.Securities.Dates).To(Equal([]time.Time{jan6}))
			Expect(sharpes.Securities.Vals[0][0]).To(BeNumerically("~", 0.325491735, 1e-6))
			Expect(sharpes.Securities.Vals[1][0]).To(BeNumerically("~", -0.037829617, 1e-6))
			Expect(sharpes.Benchmark.Vals[0][0]).To(BeNumerically("~", 0.136632886, 1e-6))
		})

		It("computes drawdowns that start at zero and never exceed zero", func() {
			dd, err := a.Drawdowns(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(dd.Securities.Dates).To(Equal(a.Dates()))
			expectClose(dd.Securities.Vals[0], []float64{0, 0, 0, 0, 0, 0}, 1e-12)
			expectClose(dd.Securities.Vals[1], []float64{0, -0.02, -0.03, -0.01, 0, 0}, 1e-12)
			expectClose(dd.Benchmark.Vals[0], []float64{0, 0, 0, 0, -0.009708738, 0}, 1e-9)
			for _, col := range append(dd.Securities.Vals, dd.Benchmark.Vals...) {
				Expect(col[0]).To(Equal(0.0))
				for _, v := range col {
					Expect(v).To(BeNumerically("<=", 0))
				}
			}
		})

		It("computes maximum drawdowns", func() {
			maxDD, err := a.MaxDrawdowns(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(maxDD.Securities.Dates).To(Equal([]time.Time{jan6}))
			Expect(maxDD.Securities.Vals[0][0]).To(Equal(0.0))
			Expect(maxDD.Securities.Vals[1][0]).To(BeNumerically("~", -0.03, 1e-12))
			Expect(maxDD.Benchmark.Vals[0][0]).To(BeNumerically("~", -0.009708738, 1e-9))
		})

		It("reports the trough date of the maximum drawdown for securities", func() {
			dates, err := a.MaxDrawdownDates(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(dates.Securities.Dates).To(Equal([]time.Time{jan6}))
			Expect(dates.Securities.Vals[0][0]).To(Equal(jan1))
			Expect(dates.Securities.Vals[1][0]).To(Equal(calendar.Date(2020, 1, 3)))
		})

		It("reports the trough date of the maximum drawdown for the benchmark", func() {
			dates, err := a.MaxDrawdownDates(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(dates.Benchmark.ColNames).To(Equal([]string{"index"}))
			Expect(dates.Benchmark.Vals[0][0]).To(Equal(calendar.Date(2020, 1, 5)))
		})

		It("describes each maximum drawdown episode", func() {
			episodes, err := a.MaxDrawdownEpisodes(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(episodes).To(HaveLen(3))

			Expect(episodes[0].Column).To(Equal("sec1"))
			Expect(episodes[0].LossPercent).To(Equal(0.0))
			Expect(episodes[0].Begin).To(Equal(jan1))

			Expect(episodes[1].Column).To(Equal("sec2"))
			Expect(episodes[1].Begin).To(Equal(jan1))
			Expect(episodes[1].End).To(Equal(calendar.Date(2020, 1, 3)))
			Expect(episodes[1].Recovery).To(Equal(calendar.Date(2020, 1, 5)))
			Expect(episodes[1].LossPercent).To(BeNumerically("~", -0.03, 1e-12))

			Expect(episodes[2].Benchmark).To(BeTrue())
			Expect(episodes[2].Begin).To(Equal(calendar.Date(2020, 1, 4)))
			Expect(episodes[2].End).To(Equal(calendar.Date(2020, 1, 5)))
			Expect(episodes[2].Recovery).To(Equal(jan6))
		})

		It("leaves the recovery date empty while under water", func() {
			b := analyzer.New()
			b.AddSecurity(security("falling", jan1, 10, 9, 8))
			episodes, err := b.MaxDrawdownEpisodes(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(episodes[0].End).To(Equal(calendar.Date(2020, 1, 3)))
			Expect(episodes[0].Recovery.IsZero()).To(BeTrue())
		})

		It("summarizes every column", func() {
			summary, err := a.Summary(analyzer.Price, 252, 0.02)
			Expect(err).To(BeNil())
			Expect(summary.Columns).To(Equal([]string{"sec1", "sec2", "index (benchmark)"}))
			Expect(summary.Beta[2]).To(Equal(1.0))
			Expect(summary.Sharpe[0]).To(BeNumerically("~", 0.325491735, 1e-6))
			Expect(summary.MaxDrawdownDate[2]).To(Equal(calendar.Date(2020, 1, 5)))
			Expect(summary.Table()).To(ContainSubstring("index (benchmark)"))
		})

		It("returns identical results when called twice", func() {
			first, err := a.Betas(analyzer.Price)
			Expect(err).To(BeNil())
			second, err := a.Betas(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(second).To(Equal(first))

			dd1, _ := a.Drawdowns(analyzer.TotalReturn)
			dd2, _ := a.Drawdowns(analyzer.TotalReturn)
			Expect(dd2).To(Equal(dd1))
		})

		It("does not let callers modify its state", func() {
			px, err := a.Prices()
			Expect(err).To(BeNil())
			px.Securities.Vals[0][0] = -1
			px2, _ := a.Prices()
			Expect(px2.Securities.Vals[0][0]).To(Equal(200.0))
		})

		It("rejects unknown modes", func() {
			_, err := a.Returns(analyzer.Mode("close"))
			Expect(err).To(MatchError(analyzer.ErrInvalidMode))
		})
	})

	Context("benchmark selection", func() {
		It("uses the first security when no benchmark is set", func() {
			b := analyzer.New()
			b.AddSecurity(sec2)
			b.AddSecurity(sec1)
			Expect(b.Benchmark().ID()).To(Equal("sec2"))

			betas, err := b.Betas(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(betas.Securities.Vals[0][0]).To(BeNumerically("~", 1.0, 1e-12))
			Expect(betas.Benchmark.Vals[0][0]).To(Equal(1.0))
		})

		It("keeps an explicitly set benchmark when securities are added", func() {
			b := analyzer.New()
			b.SetBenchmark(index)
			b.AddSecurity(sec1)
			Expect(b.Benchmark().ID()).To(Equal("index"))
		})

		It("works with only a benchmark", func() {
			b := analyzer.New()
			b.SetBenchmark(index)
			rets, err := b.Returns(analyzer.Price)
			Expect(err).To(BeNil())
			Expect(rets.Securities.ColCount()).To(Equal(0))
			Expect(rets.Benchmark.Len()).To(Equal(5))
		})
	})

	Context("with histories of different lengths", func() {
		It("shrinks the window to the intersection", func() {
			late := security("late", calendar.Date(2020, 1, 2), 202, 204, 206, 208, 215)
			early := security("early", jan1, 100, 98, 97, 99, 100)
			b := analyzer.New()
			b.AddSecurity(late)
			b.AddSecurity(early)
			b.SetBenchmark(index)

			Expect(b.Err()).To(BeNil())
			Expect(b.EarliestCommonDate()).To(Equal(calendar.Date(2020, 1, 2)))
			Expect(b.LatestCommonDate()).To(Equal(calendar.Date(2020, 1, 5)))
			Expect(b.Dates()).To(HaveLen(4))

			px, err := b.Prices()
			Expect(err).To(BeNil())
			Expect(px.Securities.Vals[1]).To(Equal([]float64{98, 97, 99, 100}))
		})

		It("recomputes the window when the benchmark changes", func() {
			short := security("short", calendar.Date(2020, 1, 3), 1, 2)
			a.SetBenchmark(short)
			Expect(a.EarliestCommonDate()).To(Equal(calendar.Date(2020, 1, 3)))
			Expect(a.LatestCommonDate()).To(Equal(calendar.Date(2020, 1, 4)))
		})
	})

	Context("failures", func() {
		It("is not configured without securities or a benchmark", func() {
			b := analyzer.New()
			Expect(b.Err()).To(MatchError(analyzer.ErrNotConfigured))
			_, err := b.Returns(analyzer.Price)
			Expect(err).To(MatchError(analyzer.ErrNotConfigured))
			_, err = b.Betas(analyzer.Price)
			Expect(err).To(MatchError(analyzer.ErrNotConfigured))
			_, err = b.MaxDrawdownDates(analyzer.Price)
			Expect(err).To(MatchError(analyzer.ErrNotConfigured))
		})

		It("fails when histories do not overlap", func() {
			later := security("later", calendar.Date(2021, 1, 1), 1, 2, 3)
			a.AddSecurity(later)
			Expect(a.Err()).To(MatchError(analyzer.ErrEmptyWindow))
			_, err := a.Volatilities(analyzer.Price, 252)
			Expect(err).To(MatchError(analyzer.ErrEmptyWindow))
		})

		It("fails when a history is empty", func() {
			a.AddSecurity(data.NewInstrument("empty", data.KindEquity, nil, nil, nil))
			_, err := a.Sharpes(analyzer.Price, 252, 0)
			Expect(err).To(MatchError(analyzer.ErrEmptyWindow))
		})

		It("fails when histories use different calendars", func() {
			weekly := data.NewInstrument("weekly", data.KindEquity, timeseries.MustNew(
				[]time.Time{jan1, calendar.Date(2020, 1, 3), jan6},
				[]float64{1, 2, 3}, nil), nil, nil)
			a.AddSecurity(weekly)
			Expect(a.EarliestCommonDate()).To(Equal(jan1))
			_, err := a.Drawdowns(analyzer.Price)
			Expect(err).To(MatchError(analyzer.ErrMisalignedSeries))
		})

		It("recovers once the offending security is replaced as benchmark", func() {
			b := analyzer.New()
			b.SetBenchmark(security("old", calendar.Date(2019, 1, 1), 1, 2))
			b.AddSecurity(sec1)
			Expect(b.Err()).To(MatchError(analyzer.ErrEmptyWindow))
			b.SetBenchmark(index)
			Expect(b.Err()).To(BeNil())
		})
	})

	DescribeTable("parses modes", func(token string, expected analyzer.Mode, valid bool) {
		mode, err := analyzer.ParseMode(token)
		if valid {
			Expect(err).To(BeNil())
			Expect(mode).To(Equal(expected))
		} else {
			Expect(err).To(MatchError(analyzer.ErrInvalidMode))
		}
	},
		Entry("price", "px", analyzer.Price, true),
		Entry("total return", "TR", analyzer.TotalReturn, true),
		Entry("unknown", "close", analyzer.Mode(""), false),
	)
})
