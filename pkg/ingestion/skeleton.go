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

package ingestion

import "strings"

// goSkeleton builds a Go declaration's skeleton_code: the signature prefix
// up to bodyStart, with the body replaced by a multi-line ellipsis block.
// bodyStart <= 0 or >= len(code) means there is no body to strip (a type
// alias, an interface method signature), so code is returned unchanged.
func goSkeleton(code string, bodyStart int) string {
	if bodyStart <= 0 || bodyStart >= len(code) {
		return code
	}
	return strings.TrimRight(code[:bodyStart], " \t\n") + " {\n...\n}"
}

// tsSkeleton mirrors goSkeleton for TypeScript, using the single-line
// `{ ... }` body marker its grammar's call sites expect.
func tsSkeleton(code string, bodyStart int) string {
	if bodyStart <= 0 || bodyStart >= len(code) {
		return code
	}
	return strings.TrimRight(code[:bodyStart], " \t\n") + " { ... }"
}
