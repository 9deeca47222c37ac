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
	"time"

	"github.com/penny-vault/portana/calendar"
	"github.com/rs/zerolog/log"
)

// Provider loads securities restricted to the inclusive date range [begin, end]
type Provider interface {
	Security(ctx context.Context, id string, begin, end time.Time) (Security, error)
}

// LoadAll retrieves each of the requested securities in order. The first
// failure aborts the load.
func LoadAll(ctx context.Context, provider Provider, ids []string, begin, end time.Time) ([]Security, error) {
	securities := make([]Security, 0, len(ids))
	for _, id := range ids {
		sec, err := provider.Security(ctx, id, begin, end)
		if err != nil {
			log.Error().Err(err).Str("SecurityID", id).Msg("could not load security")
			return nil, err
		}
		securities = append(securities, sec)
	}
	return securities, nil
}

func checkRange(begin, end time.Time) error {
	if end.Before(begin) {
		return fmt.Errorf("%w: begin %s end %s", ErrInvalidTimeRange, calendar.Format(begin), calendar.Format(end))
	}
	return nil
}
