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
	"sort"

	"github.com/penny-vault/portana/data"
	"github.com/rs/zerolog/log"
)

const FeesKey = "fees"

// Contribution is the share of an exposure bucket held through one security
type Contribution struct {
	SecurityID string  `json:"securityId"`
	Weight     float64 `json:"weight"`
}

// Exposures sums the target weight allocated to every bucket of every
// exposure category found on any holding, e.g.
//
//	{"geography": {"United States": 0.5, "Canada": 0.5}}
//
// Holdings that split a category across buckets (such as a securitized
// portfolio) contribute their weight proportionally to each bucket.
func (p *Portfolio) Exposures() map[string]map[string]float64 {
	res := make(map[string]map[string]float64)
	for category, buckets := range p.ExposuresDetailed() {
		res[category] = make(map[string]float64, len(buckets))
		for bucket, contributions := range buckets {
			for _, c := range contributions {
				res[category][bucket] += c.Weight
			}
		}
	}
	return res
}

// ExposuresDetailed groups holdings like Exposures but keeps the list of
// securities contributing to each bucket, in insertion order
func (p *Portfolio) ExposuresDetailed() map[string]map[string][]*Contribution {
	res := make(map[string]map[string][]*Contribution)
	for idx, sec := range p.securities {
		for category, buckets := range exposureWeights(sec) {
			if _, ok := res[category]; !ok {
				res[category] = make(map[string][]*Contribution)
			}
			for _, bucket := range sortedBuckets(buckets) {
				c := &Contribution{
					SecurityID: sec.ID(),
					Weight:     p.weights[idx] * buckets[bucket],
				}
				log.Trace().Str("Category", category).Str("Bucket", bucket).Object("Contribution", c).Msg("exposure contribution")
				res[category][bucket] = append(res[category][bucket], c)
			}
		}
	}
	return res
}

// Fees is the target weighted sum of each holding's fee. Holdings without a
// fee count as 0.
func (p *Portfolio) Fees() map[string]float64 {
	fees := 0.0
	for idx, sec := range p.securities {
		fees += p.weights[idx] * data.Fee(sec)
	}
	return map[string]float64{FeesKey: fees}
}

func exposureWeights(sec data.Security) map[string]map[string]float64 {
	if weighted, ok := sec.(data.WeightedExposer); ok {
		return weighted.ExposureWeights()
	}

	res := make(map[string]map[string]float64)
	for category, bucket := range sec.Exposures() {
		res[category] = map[string]float64{bucket: 1}
	}
	return res
}

func sortedBuckets(buckets map[string]float64) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
