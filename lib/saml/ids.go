/*
 * samlsp
 * Copyright (C) 2026  Gravitational, Inc.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package saml

import (
	"time"

	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/utils"
)

// newMessageID returns a fresh protocol message identifier. Identifiers are
// valid XML NCNames and carry 160 bits of entropy, enough to correlate
// requests with responses without a registry of issued values.
func newMessageID() (string, error) {
	id, err := utils.GenerateUniqueID()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return id, nil
}

// formatInstant renders t as a SAML UTC timestamp with second precision.
func formatInstant(t time.Time) string {
	return t.UTC().Format(samlsp.TimeFormat)
}

// parseInstant parses a SAML timestamp. Fractional seconds and explicit
// zone offsets are accepted since identity providers emit both.
func parseInstant(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, trace.BadParameter("invalid timestamp %q: %v", value, err)
	}
	return t.UTC(), nil
}
