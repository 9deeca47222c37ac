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

// Package data defines the securities consumed by the analyzer and portfolio
// packages together with the providers that load them.
package data

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/portana/timeseries"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

// Kind identifies the concrete asset class of a security. It is resolved once
// by the provider that creates the security.
type Kind int

const (
	KindEquity Kind = iota
	KindEquityFund
	KindPortfolio
)

const (
	DescriptionName   = "name"
	DescriptionTicker = "ticker"
	DescriptionFee    = "fee"
)

func (k Kind) String() string {
	switch k {
	case KindEquity:
		return "equity"
	case KindEquityFund:
		return "equity-fund"
	case KindPortfolio:
		return "portfolio"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts the string form of a Kind back into its value
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equity", "":
		return KindEquity, nil
	case "equity-fund", "fund":
		return KindEquityFund, nil
	case "portfolio":
		return KindPortfolio, nil
	}
	return KindEquity, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Security is a read-only view of a tradeable asset and its history
type Security interface {
	// ID is the unique, immutable identifier (e.g. an ISIN)
	ID() string
	Kind() Kind
	TimeSeries() *timeseries.TimeSeries
	// Description holds descriptive fields such as name, ticker and fee
	Description() map[string]any
	// Exposures maps an exposure category (e.g. geography) to its bucket (e.g. Canada)
	Exposures() map[string]string
}

// WeightedExposer is implemented by securities whose exposure to a category
// is split across several buckets, e.g. a securitized portfolio that is 60%
// United States and 40% Canada. The weights of each category sum to 1.
type WeightedExposer interface {
	ExposureWeights() map[string]map[string]float64
}

// Instrument is the concrete Security returned by every provider
type Instrument struct {
	id              string
	kind            Kind
	series          *timeseries.TimeSeries
	description     map[string]any
	exposures       map[string]string
	exposureWeights map[string]map[string]float64
}

// NewInstrument creates a security; description and exposures are copied
func NewInstrument(id string, kind Kind, series *timeseries.TimeSeries, description map[string]any, exposures map[string]string) *Instrument {
	if series == nil {
		series = timeseries.MustNew(nil, nil, nil)
	}

	inst := &Instrument{
		id:          id,
		kind:        kind,
		series:      series,
		description: make(map[string]any, len(description)),
		exposures:   make(map[string]string, len(exposures)),
	}

	for k, v := range description {
		inst.description[k] = v
	}

	for k, v := range exposures {
		inst.exposures[k] = v
	}

	return inst
}

// WithExposureWeights attaches fractional exposures to the instrument. The
// plain Exposures of each category are set to its heaviest bucket.
func (inst *Instrument) WithExposureWeights(weights map[string]map[string]float64) *Instrument {
	inst.exposureWeights = make(map[string]map[string]float64, len(weights))
	for category, buckets := range weights {
		inst.exposureWeights[category] = make(map[string]float64, len(buckets))
		for bucket, w := range buckets {
			inst.exposureWeights[category][bucket] = w
		}
		inst.exposures[category] = heaviest(buckets)
	}
	return inst
}

// heaviest returns the bucket with the largest weight; ties go to the
// alphabetically first bucket
func heaviest(buckets map[string]float64) string {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestWeight := 0.0
	for idx, name := range names {
		if idx == 0 || buckets[name] > bestWeight {
			best = name
			bestWeight = buckets[name]
		}
	}
	return best
}

func (inst *Instrument) ID() string {
	return inst.id
}

func (inst *Instrument) Kind() Kind {
	return inst.kind
}

func (inst *Instrument) TimeSeries() *timeseries.TimeSeries {
	return inst.series
}

// Description returns a copy of the descriptive fields
func (inst *Instrument) Description() map[string]any {
	res := make(map[string]any, len(inst.description))
	for k, v := range inst.description {
		res[k] = v
	}
	return res
}

// Exposures returns a copy of the exposure fields
func (inst *Instrument) Exposures() map[string]string {
	res := make(map[string]string, len(inst.exposures))
	for k, v := range inst.exposures {
		res[k] = v
	}
	return res
}

// ExposureWeights returns the fractional exposures of the instrument. Plain
// exposures count as a weight of 1 in their single bucket.
func (inst *Instrument) ExposureWeights() map[string]map[string]float64 {
	res := make(map[string]map[string]float64, len(inst.exposures))
	for category, bucket := range inst.exposures {
		if buckets, ok := inst.exposureWeights[category]; ok {
			res[category] = make(map[string]float64, len(buckets))
			for k, v := range buckets {
				res[category][k] = v
			}
			continue
		}
		res[category] = map[string]float64{bucket: 1}
	}
	return res
}

// Fee returns the fee recorded in the security's description. Securities
// without a fee, or with a fee that cannot be read as a number, have a fee of 0.
func Fee(sec Security) float64 {
	val, ok := sec.Description()[DescriptionFee]
	if !ok {
		return 0
	}

	fee, err := cast.ToFloat64E(val)
	if err != nil {
		log.Warn().Err(err).Str("SecurityID", sec.ID()).Interface("Fee", val).Msg("fee is not a number; treating as 0")
		return 0
	}
	return fee
}

func (inst *Instrument) String() string {
	sb := &strings.Builder{}
	divider := strings.Repeat("-", 41) + "\n"

	fmt.Fprintf(sb, "ID:   %s (%s)\n", inst.id, inst.kind)
	sb.WriteString(divider)
	for _, k := range sortedKeys(inst.description) {
		fmt.Fprintf(sb, "%s:  %v\n", k, inst.description[k])
	}
	sb.WriteString(divider)
	for _, k := range sortedKeys(inst.exposures) {
		fmt.Fprintf(sb, "%s:  %s\n", k, inst.exposures[k])
	}
	sb.WriteString(divider)
	sb.WriteString(inst.series.Table())

	return sb.String()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type instrumentJSON struct {
	ID              string                        `json:"id"`
	Kind            string                        `json:"kind"`
	TimeSeries      *timeseries.TimeSeries        `json:"timeSeries"`
	Description     map[string]any                `json:"description"`
	Exposures       map[string]string             `json:"exposures"`
	ExposureWeights map[string]map[string]float64 `json:"exposureWeights,omitempty"`
}

func (inst *Instrument) MarshalJSON() ([]byte, error) {
	return json.Marshal(instrumentJSON{
		ID:              inst.id,
		Kind:            inst.kind.String(),
		TimeSeries:      inst.series,
		Description:     inst.description,
		Exposures:       inst.exposures,
		ExposureWeights: inst.exposureWeights,
	})
}

func (inst *Instrument) UnmarshalJSON(b []byte) error {
	var in instrumentJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}

	decoded := NewInstrument(in.ID, kind, in.TimeSeries, in.Description, in.Exposures)
	if in.ExposureWeights != nil {
		decoded.WithExposureWeights(in.ExposureWeights)
	}

	*inst = *decoded
	return nil
}
