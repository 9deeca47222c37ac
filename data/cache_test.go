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
	"context"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gmeasure"

	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
)

// countingProvider records how often the wrapped provider is hit
type countingProvider struct {
	provider data.Provider
	calls    int
}

func (p *countingProvider) Security(ctx context.Context, id string, begin, end time.Time) (data.Security, error) {
	p.calls++
	return p.provider.Security(ctx, id, begin, end)
}

var _ = Describe("CachedProvider", func() {
	var (
		ctx      context.Context
		counter  *countingProvider
		provider *data.CachedProvider
		begin    = calendar.Date(2021, 1, 1)
		end      = calendar.Date(2021, 6, 30)
	)

	BeforeEach(func() {
		ctx = context.Background()
		sim, err := data.NewSimulatedProvider(data.KindEquityFund)
		Expect(err).To(BeNil())
		counter = &countingProvider{provider: sim}
		provider, err = data.NewCachedProvider("sim", counter, 16)
		Expect(err).To(BeNil())
	})

	It("rejects a non-positive size", func() {
		_, err := data.NewCachedProvider("sim", counter, 0)
		Expect(err).NotTo(BeNil())
	})

	It("only loads a security once", func() {
		a, err := provider.Security(ctx, "5", begin, end)
		Expect(err).To(BeNil())
		b, err := provider.Security(ctx, "5", begin, end)
		Expect(err).To(BeNil())

		Expect(counter.calls).To(Equal(1))
		Expect(provider.Len()).To(Equal(1))

		pxA, trA := a.TimeSeries().Data()
		pxB, trB := b.TimeSeries().Data()
		Expect(pxB).To(Equal(pxA))
		Expect(trB).To(Equal(trA))
		Expect(b.Description()["fee"]).To(Equal(a.Description()["fee"]))
		Expect(b.Exposures()).To(Equal(a.Exposures()))
		Expect(b.Kind()).To(Equal(data.KindEquityFund))
	})

	It("keys on the date range", func() {
		_, err := provider.Security(ctx, "5", begin, end)
		Expect(err).To(BeNil())
		_, err = provider.Security(ctx, "5", begin, calendar.Date(2021, 3, 31))
		Expect(err).To(BeNil())
		Expect(counter.calls).To(Equal(2))
		Expect(provider.Key("5", begin, end)).NotTo(Equal(provider.Key("5", begin, calendar.Date(2021, 3, 31))))
		Expect(provider.Key("5", begin, end)).To(HaveLen(32))
	})

	It("does not cache failures", func() {
		_, err := provider.Security(ctx, "5", end, begin)
		Expect(err).To(MatchError(data.ErrInvalidTimeRange))
		Expect(provider.Len()).To(Equal(0))
	})

	It("compresses losslessly", func() {
		blob := []byte(`{"dates":["2021-01-01"],"price":[1],"totalReturn":[1]}`)
		compressed, err := data.Compress(blob)
		Expect(err).To(BeNil())
		decompressed, err := data.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(decompressed).To(Equal(blob))
	})

	It("benchmarks cache hits", func() {
		experiment := gmeasure.NewExperiment("cached provider")
		AddReportEntry(experiment.Name, experiment)

		_, err := provider.Security(ctx, "5", begin, end)
		Expect(err).To(BeNil())

		experiment.SampleDuration("cache hit", func(_ int) {
			_, err := provider.Security(ctx, "5", begin, end)
			Expect(err).To(BeNil())
		}, gmeasure.SamplingConfig{N: 100})

		Expect(counter.calls).To(Equal(1))
	})

	Context("with a redis tier", func() {
		var (
			mock redismock.ClientMock
			ttl  = 10 * time.Minute
		)

		BeforeEach(func() {
			db, m := redismock.NewClientMock()
			mock = m
			provider.WithRedis(db, ttl)
		})

		AfterEach(func() {
			Expect(mock.ExpectationsWereMet()).To(Succeed())
		})

		It("stores misses in redis", func() {
			sim, err := data.NewSimulatedProvider(data.KindEquityFund)
			Expect(err).To(BeNil())
			expected, err := sim.Security(ctx, "9", begin, end)
			Expect(err).To(BeNil())
			blob, err := json.Marshal(expected)
			Expect(err).To(BeNil())
			compressed, err := data.Compress(blob)
			Expect(err).To(BeNil())

			key := provider.Key("9", begin, end)
			mock.ExpectGet(key).RedisNil()
			mock.ExpectSet(key, compressed, ttl).SetVal("OK")

			_, err = provider.Security(ctx, "9", begin, end)
			Expect(err).To(BeNil())
			Expect(counter.calls).To(Equal(1))
		})

		It("serves hits from redis without loading", func() {
			sim, err := data.NewSimulatedProvider(data.KindEquityFund)
			Expect(err).To(BeNil())
			expected, err := sim.Security(ctx, "9", begin, end)
			Expect(err).To(BeNil())
			blob, err := json.Marshal(expected)
			Expect(err).To(BeNil())
			compressed, err := data.Compress(blob)
			Expect(err).To(BeNil())

			key := provider.Key("9", begin, end)
			mock.ExpectGet(key).SetVal(string(compressed))

			sec, err := provider.Security(ctx, "9", begin, end)
			Expect(err).To(BeNil())
			Expect(counter.calls).To(Equal(0))
			Expect(sec.ID()).To(Equal("9"))
			Expect(provider.Len()).To(Equal(1))
		})
	})
})
