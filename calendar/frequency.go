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

package calendar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// Frequency identifies a sampling or rebalancing period
type Frequency string

const (
	Observation Frequency = "data"
	Daily       Frequency = "D"
	Weekly      Frequency = "W"
	Monthly     Frequency = "M"
	Quarterly   Frequency = "Q"
	Yearly      Frequency = "Y"
)

// ParseFrequency converts a user supplied token into a Frequency. Tokens are
// case-insensitive; "data" means every observation.
func ParseFrequency(token string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "DATA":
		return Observation, nil
	case "D":
		return Daily, nil
	case "W":
		return Weekly, nil
	case "M":
		return Monthly, nil
	case "Q":
		return Quarterly, nil
	case "Y", "A":
		return Yearly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, token)
}

// IsPeriod is true for the calendar frequencies that have period boundaries (M, Q, Y)
func (f Frequency) IsPeriod() bool {
	return f == Monthly || f == Quarterly || f == Yearly
}

// PeriodsPerYear returns the annualization factor for data sampled at frequency f
func (f Frequency) PeriodsPerYear() (float64, error) {
	switch f {
	case Daily:
		return 252, nil
	case Weekly:
		return 52, nil
	case Monthly:
		return 12, nil
	case Quarterly:
		return 4, nil
	case Yearly:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: cannot annualize %q", ErrInvalidFrequency, string(f))
}
