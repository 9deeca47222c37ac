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

// Package portfolio combines weighted securities into a composite whose
// history is simulated from the weight trajectory of its holdings. A
// securitized portfolio is itself a data.Security and can be analyzed or
// nested inside another portfolio.
package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/portana/analyzer"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/penny-vault/portana/dataframe"
	"github.com/penny-vault/portana/timeseries"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConfigured     = errors.New("portfolio needs at least one security")
	ErrInvalidDefinition = errors.New("invalid portfolio definition")
)

const (
	DefaultStartingNAV = 100.0
	DescriptionID      = "portfolio_id"
)

// Portfolio is an ordered list of securities with target weights. Every
// mutation synchronously recomputes the common date axis and the weight
// trajectory.
//
// A Portfolio is not safe for concurrent use.
type Portfolio struct {
	id          uuid.UUID
	name        string
	securities  []data.Security
	weights     []float64
	startingNAV float64
	rebalance   bool
	frequency   calendar.Frequency
	cache       *trajectory
}

// New creates an empty portfolio that rebalances to its target weights on
// every observation
func New(name string) *Portfolio {
	p := &Portfolio{
		id:          uuid.New(),
		name:        name,
		securities:  []data.Security{},
		weights:     []float64{},
		startingNAV: DefaultStartingNAV,
		rebalance:   true,
		frequency:   calendar.Observation,
	}
	p.update()
	return p
}

// ID is the unique identifier assigned when the portfolio was created
func (p *Portfolio) ID() uuid.UUID {
	return p.id
}

func (p *Portfolio) Name() string {
	return p.name
}

// AddSecurity appends sec with the given target weight
func (p *Portfolio) AddSecurity(sec data.Security, weight float64) {
	p.securities = append(p.securities, sec)
	p.weights = append(p.weights, weight)
	p.update()
}

// SetStartingNAV sets the value of the securitized portfolio on its first date
func (p *Portfolio) SetStartingNAV(nav float64) {
	p.startingNAV = nav
}

// StartingNAV returns the value of the securitized portfolio on its first date
func (p *Portfolio) StartingNAV() float64 {
	return p.startingNAV
}

// SetRebalance configures how weights evolve. When enabled, freq must be
// calendar.Observation (hold target weights every period) or one of
// calendar.Monthly, calendar.Quarterly or calendar.Yearly (drift between
// period ends). When disabled weights drift for the whole history and freq
// is ignored.
func (p *Portfolio) SetRebalance(enabled bool, freq calendar.Frequency) error {
	if enabled && freq != calendar.Observation && !freq.IsPeriod() {
		return fmt.Errorf("%w: cannot rebalance at %q", calendar.ErrInvalidFrequency, string(freq))
	}

	p.rebalance = enabled
	p.frequency = freq
	p.update()
	return nil
}

// Rebalance returns the current rebalancing policy
func (p *Portfolio) Rebalance() (bool, calendar.Frequency) {
	return p.rebalance, p.frequency
}

// Securities returns the holdings in insertion order
func (p *Portfolio) Securities() []data.Security {
	res := make([]data.Security, len(p.securities))
	copy(res, p.securities)
	return res
}

// TargetWeights returns the target weight of each holding in insertion order
func (p *Portfolio) TargetWeights() []float64 {
	res := make([]float64, len(p.weights))
	copy(res, p.weights)
	return res
}

// Dates returns the common date axis of the holdings
func (p *Portfolio) Dates() []time.Time {
	res := make([]time.Time, len(p.cache.dates))
	copy(res, p.cache.dates)
	return res
}

// Err reports why the portfolio cannot currently be simulated, if anything
func (p *Portfolio) Err() error {
	return p.cache.err
}

// Weights returns the weight of every holding on every common date
func (p *Portfolio) Weights() (*dataframe.DataFrame, error) {
	if p.cache.err != nil {
		return nil, p.cache.err
	}

	rows, cols := p.cache.weights.Dims()
	df := &dataframe.DataFrame{
		Dates:    p.Dates(),
		ColNames: make([]string, cols),
		Vals:     make([][]float64, cols),
	}
	copy(df.ColNames, p.cache.colNames)
	for colIdx := range df.Vals {
		df.Vals[colIdx] = make([]float64, rows)
		for rowIdx := 0; rowIdx < rows; rowIdx++ {
			df.Vals[colIdx][rowIdx] = p.cache.weights.At(rowIdx, colIdx)
		}
	}
	return df, nil
}

// Returns computes the portfolio's period return: the sum over holdings of
// each holding's return weighted by its weight at the start of the period.
// The result has a single column named after the portfolio and starts on
// the second common date. Without rebalancing the compounded returns equal
// the value of buying and holding the target weights.
func (p *Portfolio) Returns(mode analyzer.Mode) (*dataframe.DataFrame, error) {
	if p.cache.err != nil {
		return nil, p.cache.err
	}

	var rets *dataframe.DataFrame
	switch mode {
	case analyzer.Price:
		rets = p.cache.priceReturns
	case analyzer.TotalReturn:
		rets = p.cache.totalReturns
	default:
		return nil, fmt.Errorf("%w: %q must be px or tr", analyzer.ErrInvalidMode, string(mode))
	}

	return &dataframe.DataFrame{
		Dates:    append([]time.Time{}, rets.Dates...),
		ColNames: []string{p.name},
		Vals:     [][]float64{weightedSum(p.cache.weights, rets)},
	}, nil
}

// Securitize compounds the portfolio's price and total returns forward from
// the starting NAV and wraps the result, the weighted fee and the weighted
// exposures into a new security of kind data.KindPortfolio
func (p *Portfolio) Securitize() (*data.Instrument, error) {
	pxRets, err := p.Returns(analyzer.Price)
	if err != nil {
		return nil, err
	}

	trRets, err := p.Returns(analyzer.TotalReturn)
	if err != nil {
		return nil, err
	}

	first := p.cache.dates[0]
	px := pxRets.Compound(first, p.startingNAV)
	tr := trRets.Compound(first, p.startingNAV)

	series, err := timeseries.New(px.Dates, px.Vals[0], tr.Vals[0])
	if err != nil {
		return nil, err
	}

	fees := p.Fees()
	description := map[string]any{
		data.DescriptionName: p.name,
		data.DescriptionFee:  fees[FeesKey],
		DescriptionID:        p.id.String(),
	}

	sec := data.NewInstrument(p.name, data.KindPortfolio, series, description, nil).
		WithExposureWeights(p.Exposures())

	log.Debug().Str("Portfolio", p.name).Str("PortfolioID", p.id.String()).Int("NumDates", series.Len()).
		Float64("Fees", fees[FeesKey]).Float64("FinalValue", px.Vals[0][px.Len()-1]).Msg("securitized portfolio")

	return sec, nil
}

// update rebuilds the derived state from the current holdings and policy
func (p *Portfolio) update() {
	p.cache = simulate(p.securities, p.weights, p.rebalance, p.frequency)
}
