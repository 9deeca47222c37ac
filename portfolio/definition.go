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

package portfolio

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/portana/calendar"
	"github.com/penny-vault/portana/data"
	"github.com/rs/zerolog/log"
)

// Definition is the on-disk description of a portfolio, e.g.:
//
//	name = "60/40"
//	starting_nav = 1000.0
//	benchmark = "VFINX"
//
//	[rebalance]
//	enabled = true
//	frequency = "Q"
//
//	[[holdings]]
//	id = "VTI"
//	weight = 0.6
//
//	[[holdings]]
//	id = "BND"
//	weight = 0.4
type Definition struct {
	Name        string              `toml:"name"`
	StartingNAV float64             `toml:"starting_nav"`
	Benchmark   string              `toml:"benchmark"`
	Start       string              `toml:"start"`
	End         string              `toml:"end"`
	Rebalance   RebalanceDefinition `toml:"rebalance"`
	Holdings    []HoldingDefinition `toml:"holdings"`
}

type RebalanceDefinition struct {
	Enabled   *bool  `toml:"enabled"`
	Frequency string `toml:"frequency"`
}

type HoldingDefinition struct {
	ID     string  `toml:"id"`
	Weight float64 `toml:"weight"`
}

// LoadDefinition parses and validates a TOML portfolio definition
func LoadDefinition(r io.Reader) (*Definition, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := toml.Unmarshal(doc, &def); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDefinition, err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// Validate checks that the definition describes a portfolio that can be built
func (def *Definition) Validate() error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}

	if len(def.Holdings) == 0 {
		return fmt.Errorf("%w: %s has no holdings", ErrInvalidDefinition, def.Name)
	}

	seen := make(map[string]bool, len(def.Holdings))
	for _, holding := range def.Holdings {
		if holding.ID == "" {
			return fmt.Errorf("%w: holding without an id", ErrInvalidDefinition)
		}
		if seen[holding.ID] {
			return fmt.Errorf("%w: %s is listed more than once", ErrInvalidDefinition, holding.ID)
		}
		seen[holding.ID] = true

		if holding.Weight < 0 || math.IsNaN(holding.Weight) || math.IsInf(holding.Weight, 0) {
			return fmt.Errorf("%w: weight of %s must be a non-negative number", ErrInvalidDefinition, holding.ID)
		}
	}

	if def.StartingNAV < 0 {
		return fmt.Errorf("%w: starting_nav must not be negative", ErrInvalidDefinition)
	}

	if _, err := def.frequency(); err != nil {
		return err
	}

	if _, _, err := def.window(time.Time{}, time.Time{}); err != nil {
		return err
	}

	return nil
}

func (def *Definition) frequency() (calendar.Frequency, error) {
	if def.Rebalance.Frequency == "" {
		return calendar.Observation, nil
	}
	return calendar.ParseFrequency(def.Rebalance.Frequency)
}

// window returns the definition's start and end dates, falling back to
// begin and end when they are not set
func (def *Definition) window(begin, end time.Time) (time.Time, time.Time, error) {
	var err error
	if def.Start != "" {
		if begin, err = calendar.Parse(def.Start); err != nil {
			return begin, end, fmt.Errorf("%w: start: %s", ErrInvalidDefinition, err)
		}
	}
	if def.End != "" {
		if end, err = calendar.Parse(def.End); err != nil {
			return begin, end, fmt.Errorf("%w: end: %s", ErrInvalidDefinition, err)
		}
	}
	return begin, end, nil
}

// Build loads every holding from provider and assembles the portfolio. The
// start and end of the definition take precedence over begin and end.
func (def *Definition) Build(ctx context.Context, provider data.Provider, begin, end time.Time) (*Portfolio, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	begin, end, err := def.window(begin, end)
	if err != nil {
		return nil, err
	}

	freq, err := def.frequency()
	if err != nil {
		return nil, err
	}

	p := New(def.Name)
	if def.StartingNAV > 0 {
		p.SetStartingNAV(def.StartingNAV)
	}

	enabled := true
	if def.Rebalance.Enabled != nil {
		enabled = *def.Rebalance.Enabled
	}
	if err := p.SetRebalance(enabled, freq); err != nil {
		return nil, err
	}

	for _, holding := range def.Holdings {
		sec, err := provider.Security(ctx, holding.ID, begin, end)
		if err != nil {
			log.Error().Err(err).Str("Portfolio", def.Name).Str("SecurityID", holding.ID).Msg("could not load portfolio holding")
			return nil, err
		}
		p.AddSecurity(sec, holding.Weight)
	}

	log.Info().Str("Portfolio", def.Name).Str("PortfolioID", p.ID().String()).Int("NumHoldings", len(def.Holdings)).
		Bool("Rebalance", enabled).Str("Frequency", string(freq)).Msg("built portfolio")

	return p, nil
}
