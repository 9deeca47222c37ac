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
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/portfolio"
)

var _ = Describe("Cmd", func() {
	BeforeEach(func() {
		viper.Reset()
		viper.Set("analysis.mode", "px")
		viper.Set("analysis.frequency", "D")
		viper.Set("analysis.risk_free_rate", 0.02)
		viper.Set("analysis.initial_value", 1000.0)
		viper.Set("data.source", "sim")
		viper.Set("data.kind", "equity")
		viper.Set("data.start", "2020-01-01")
		viper.Set("data.end", "2020-03-31")
		viper.Set("cache.local_size", 16)
	})

	AfterEach(func() {
		viper.Reset()
	})

	Context("settings", func() {
		It("reads the analysis settings", func() {
			opts, err := analysisSettings()
			Expect(err).To(BeNil())
			Expect(opts.mode).To(Equal(analyzer.Price))
			Expect(opts.periodsPerYear).To(Equal(252.0))
			Expect(opts.riskFree).To(Equal(0.02))
			Expect(opts.initialValue).To(Equal(1000.0))
		})

		It("rejects an unknown mode", func() {
			viper.Set("analysis.mode", "close")
			_, err := analysisSettings()
			Expect(err).To(MatchError(analyzer.ErrInvalidMode))
		})

		It("rejects a frequency that cannot be annualized", func() {
			viper.Set("analysis.frequency", "data")
			_, err := analysisSettings()
			Expect(err).To(MatchError(calendar.ErrInvalidFrequency))
		})

		It("reads the date range", func() {
			begin, end, err := dateRange()
			Expect(err).To(BeNil())
			Expect(begin).To(Equal(calendar.Date(2020, 1, 1)))
			Expect(end).To(Equal(calendar.Date(2020, 3, 31)))
		})

		It("rejects a malformed date", func() {
			viper.Set("data.start", "01/01/2020")
			_, _, err := dateRange()
			Expect(err).To(HaveOccurred())
		})
	})

	Context("providers", func() {
		It("wraps the simulated provider in a cache", func() {
			provider, err := newProvider(context.Background())
			Expect(err).To(BeNil())
			Expect(provider).To(BeAssignableToTypeOf(&data.CachedProvider{}))

			sec, err := provider.Security(context.Background(), "1", calendar.Date(2020, 1, 1), calendar.Date(2020, 1, 10))
			Expect(err).To(BeNil())
			Expect(sec.TimeSeries().Len()).To(Equal(10))
		})

		It("can skip the cache", func() {
			viper.Set("cache.local_size", 0)
			viper.Set("data.source", "csv")
			provider, err := newProvider(context.Background())
			Expect(err).To(BeNil())
			Expect(provider).To(BeAssignableToTypeOf(&data.CSVProvider{}))
		})

		It("rejects an unknown source", func() {
			viper.Set("data.source", "postgres")
			_, err := newProvider(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	Context("reports", func() {
		It("formats percentages", func() {
			Expect(percent(0.0059, 3)).To(Equal("0.590%"))
			Expect(percent(0.7, 2)).To(Equal("70.00%"))
		})

		It("lists exposures with their contributors", func() {
			jan1 := calendar.Date(2020, 1, 1)
			sim, err := data.NewSimulatedProvider(data.KindEquityFund)
			Expect(err).To(BeNil())
			p := portfolio.New("funds")
			for _, id := range []string{"1", "2"} {
				sec, err := sim.Security(context.Background(), id, jan1, jan1.AddDate(0, 0, 5))
				Expect(err).To(BeNil())
				p.AddSecurity(sec, 0.5)
			}

			table := exposureTable(p)
			Expect(table).To(ContainSubstring("CATEGORY"))
			Expect(table).To(ContainSubstring("geography"))
			Expect(table).To(ContainSubstring("risk"))
		})

		It("renders a png chart", func() {
			provider, err := newProvider(context.Background())
			Expect(err).To(BeNil())
			secs, err := data.LoadAll(context.Background(), provider, []string{"1", "2"}, calendar.Date(2020, 1, 1), calendar.Date(2020, 1, 31))
			Expect(err).To(BeNil())

			a := analyzer.New()
			for _, sec := range secs {
				a.AddSecurity(sec)
			}
			res, err := a.RebasedIndex(analyzer.Price, 100)
			Expect(err).To(BeNil())

			img, err := renderChart("Growth of 100.00", res)
			Expect(err).To(BeNil())
			Expect(bytes.HasPrefix(img, []byte("\x89PNG"))).To(BeTrue())
		})
	})
})
