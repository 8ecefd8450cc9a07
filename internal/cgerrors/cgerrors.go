// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cgerrors holds the sentinel error kinds pkg/codegraph returns, so
// callers can branch with errors.Is instead of string matching.
package cgerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when a path given to pkg/codegraph cannot
	// be made absolute or repository-relative, does not exist, or cannot
	// be read.
	ErrInvalidPath = errors.New("cgerrors: invalid path")
	// ErrUnsupported is returned when Index is given a directory other
	// than the repository root.
	ErrUnsupported = errors.New("cgerrors: unsupported file type")
	// ErrStoreFailure wraps any error surfaced by pkg/graphstore.
	ErrStoreFailure = errors.New("cgerrors: store failure")
	// ErrTraversalError wraps any error surfaced by pkg/walker.
	ErrTraversalError = errors.New("cgerrors: traversal error")
)

// Wrap joins err under kind so errors.Is(result, kind) succeeds while the
// original message and any wrapped chain is preserved.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
