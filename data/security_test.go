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

package data_test

import (
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/timeseries"
)

var _ = Describe("Security", func() {
	var (
		inst *data.Instrument
	)

	BeforeEach(func() {
		series := timeseries.MustNew([]time.Time{calendar.Date(2020, 1, 1), calendar.Date(2020, 1, 2)}, []float64{10, 11}, []float64{100, 110.5})
		inst = data.NewInstrument("CA0000000001", data.KindEquityFund, series,
			map[string]any{"name": "Maple Fund", "fee": "0.015"},
			map[string]string{"geography": "Canada", "risk": "Low"})
	})

	It("exposes its identity", func() {
		Expect(inst.ID()).To(Equal("CA0000000001"))
		Expect(inst.Kind()).To(Equal(data.KindEquityFund))
		Expect(inst.TimeSeries().Len()).To(Equal(2))
	})

	It("returns copies of its maps", func() {
		desc := inst.Description()
		desc["name"] = "changed"
		exp := inst.Exposures()
		exp["geography"] = "changed"
		Expect(inst.Description()["name"]).To(Equal("Maple Fund"))
		Expect(inst.Exposures()["geography"]).To(Equal("Canada"))
	})

	It("reads fees stored as strings", func() {
		Expect(data.Fee(inst)).To(BeNumerically("~", 0.015, 1e-12))
	})

	It("treats a missing or malformed fee as zero", func() {
		noFee := data.NewInstrument("x", data.KindEquity, nil, nil, nil)
		Expect(data.Fee(noFee)).To(Equal(0.0))
		badFee := data.NewInstrument("y", data.KindEquity, nil, map[string]any{"fee": "n/a"}, nil)
		Expect(data.Fee(badFee)).To(Equal(0.0))
	})

	It("reports plain exposures as whole weights", func() {
		Expect(inst.ExposureWeights()).To(Equal(map[string]map[string]float64{
			"geography": {"Canada": 1},
			"risk":      {"Low": 1},
		}))
	})

	It("reports the heaviest bucket of weighted exposures", func() {
		inst.WithExposureWeights(map[string]map[string]float64{
			"geography": {"Canada": 0.4, "United States": 0.6},
		})
		Expect(inst.Exposures()["geography"]).To(Equal("United States"))
		Expect(inst.ExposureWeights()["geography"]).To(Equal(map[string]float64{"Canada": 0.4, "United States": 0.6}))
		Expect(inst.ExposureWeights()["risk"]).To(Equal(map[string]float64{"Low": 1}))
	})

	It("prints its description, exposures and history", func() {
		out := inst.String()
		Expect(out).To(ContainSubstring("CA0000000001 (equity-fund)"))
		Expect(out).To(ContainSubstring("geography:  Canada"))
		Expect(out).To(ContainSubstring("2020-01-02"))
	})

	It("survives a JSON round trip", func() {
		b, err := json.Marshal(inst)
		Expect(err).To(BeNil())

		decoded := &data.Instrument{}
		Expect(json.Unmarshal(b, decoded)).To(Succeed())
		Expect(decoded.ID()).To(Equal(inst.ID()))
		Expect(decoded.Kind()).To(Equal(data.KindEquityFund))
		Expect(decoded.Exposures()).To(Equal(inst.Exposures()))
		Expect(decoded.Description()).To(Equal(inst.Description()))
		Expect(decoded.TimeSeries().Dates()).To(Equal(inst.TimeSeries().Dates()))
	})

	DescribeTable("parses kinds", func(s string, expected data.Kind) {
		kind, err := data.ParseKind(s)
		Expect(err).To(BeNil())
		Expect(kind).To(Equal(expected))
		Expect(kind.String()).NotTo(BeEmpty())
	},
		Entry("equity", "equity", data.KindEquity),
		Entry("default", "", data.KindEquity),
		Entry("fund", "Equity-Fund", data.KindEquityFund),
		Entry("fund shorthand", "fund", data.KindEquityFund),
		Entry("portfolio", "portfolio", data.KindPortfolio),
	)

	It("rejects unknown kinds", func() {
		_, err := data.ParseKind("bond")
		Expect(err).To(MatchError(data.ErrUnknownKind))
	})
})
