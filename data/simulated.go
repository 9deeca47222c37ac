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

package data

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/timeseries"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/zeebo/blake3"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	sectors     = []string{"Technology", "Industrials", "Financials"}
	geographies = []string{"United States", "Canada"}
	strategies  = []string{"Growth", "Income", "Value", "Balanced"}
	risks       = []string{"High", "Medium", "Low"}
)

const tickerLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generatorParams bounds the random walk of a simulated asset class
type generatorParams struct {
	maxDrift        float64
	maxVol          float64
	maxDistribution float64
	minPrice        float64
	maxPrice        float64
}

var simulatedParams = map[Kind]generatorParams{
	KindEquity: {
		maxDrift:        0.001,
		maxVol:          0.05,
		maxDistribution: 0.005,
		minPrice:        1,
		maxPrice:        1000,
	},
	KindEquityFund: {
		maxDrift:        0.00025,
		maxVol:          0.02,
		maxDistribution: 0.002,
		minPrice:        50,
		maxPrice:        100,
	},
}

// SimulatedProvider generates reproducible securities of a single kind. Every
// field is derived from a generator seeded by the security id, so asking for
// the same id twice yields the same security.
type SimulatedProvider struct {
	kind   Kind
	params generatorParams
}

// NewSimulatedProvider creates a provider for equities or equity funds
func NewSimulatedProvider(kind Kind) (*SimulatedProvider, error) {
	params, ok := simulatedParams[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return &SimulatedProvider{
		kind:   kind,
		params: params,
	}, nil
}

// Seed converts a security id into a generator seed. Numeric ids are used
// directly; anything else is hashed.
func Seed(id string) uint64 {
	if seed, err := strconv.ParseUint(id, 10, 64); err == nil {
		return seed
	}
	digest := blake3.Sum256([]byte(id))
	var seed uint64
	for _, b := range digest[:8] {
		seed = seed<<8 | uint64(b)
	}
	return seed
}

// rng returns a fresh generator for seed; each generated field gets its own
// so that fields do not depend on the order they are generated in
func rng(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func (sim *SimulatedProvider) Security(ctx context.Context, id string, begin, end time.Time) (Security, error) {
	begin = calendar.Normalize(begin)
	end = calendar.Normalize(end)
	if err := checkRange(begin, end); err != nil {
		return nil, err
	}

	seed := Seed(id)
	series, err := sim.timeSeries(seed, begin, end)
	if err != nil {
		return nil, err
	}

	description := map[string]any{
		DescriptionName: fmt.Sprintf("Simulated Security %s", id),
	}
	exposures := map[string]string{
		"geography": choice(seed, geographies),
	}

	switch sim.kind {
	case KindEquity:
		description[DescriptionTicker] = ticker(seed)
		exposures["sector"] = choice(seed, sectors)
	case KindEquityFund:
		description[DescriptionFee] = fee(seed)
		exposures["strategy"] = choice(seed, strategies)
		exposures["risk"] = choice(seed, risks)
	}

	log.Debug().Str("SecurityID", id).Stringer("Kind", sim.kind).Time("Begin", begin).Time("End", end).
		Int("NumDays", series.Len()).Msg("generated simulated security")

	return NewInstrument(id, sim.kind, series, description, exposures), nil
}

// timeSeries builds one row per calendar day. Prices start at a random level
// and compound normally distributed daily returns; the total return index
// starts at 100 and compounds the same returns plus a constant distribution
// yield.
func (sim *SimulatedProvider) timeSeries(seed uint64, begin, end time.Time) (*timeseries.TimeSeries, error) {
	dates := make([]time.Time, 0, int(end.Sub(begin).Hours()/24)+1)
	for dt := begin; !dt.After(end); dt = dt.AddDate(0, 0, 1) {
		dates = append(dates, dt)
	}

	drift := rng(seed).Float64() * sim.params.maxDrift
	vol := rng(seed).Float64() * sim.params.maxVol
	distribution := rng(seed).Float64() * sim.params.maxDistribution
	initial := sim.params.minPrice + rng(seed).Float64()*(sim.params.maxPrice-sim.params.minPrice)

	normal := distuv.Normal{
		Mu:    drift,
		Sigma: vol,
		Src:   rand.NewSource(seed),
	}

	prices := make([]float64, len(dates))
	totalReturn := make([]float64, len(dates))
	for idx := range dates {
		if idx == 0 {
			prices[idx] = initial
			totalReturn[idx] = 100
			continue
		}
		r := normal.Rand()
		prices[idx] = prices[idx-1] * (1 + r)
		totalReturn[idx] = totalReturn[idx-1] * (1 + r + distribution)
	}

	return timeseries.New(dates, prices, totalReturn)
}

func choice(seed uint64, choices []string) string {
	return choices[rng(seed).Intn(len(choices))]
}

func ticker(seed uint64) string {
	length := 1 + rng(seed).Intn(4)
	buf := make([]byte, length)
	for ii := range buf {
		buf[ii] = tickerLetters[rng(seed+uint64(ii)).Intn(len(tickerLetters))]
	}
	return string(buf)
}

// fee is uniform on [0, 2%] rounded to 3 decimal places
func fee(seed uint64) float64 {
	return decimal.NewFromFloat(rng(seed).Float64() * 0.02).Round(3).InexactFloat64()
}
