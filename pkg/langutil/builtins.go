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

package langutil

// goBuiltins are the predeclared Go type names skipped when extracting
// parameter-type references. Deliberately closed, matching the source's
// behavior of never treating a builtin as a REFERENCES target.
var goBuiltins = map[string]bool{
	"bool": true, "string": true, "error": true, "any": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"byte": true, "rune": true,
	"float32": true, "float64": true,
	"complex64": true, "complex128": true,
}

// IsGoBuiltin reports whether name is a predeclared Go type.
func IsGoBuiltin(name string) bool { return goBuiltins[name] }

// tsBuiltins is the closed builtin-exclusion set for TypeScript parameter
// types. Aliases from lib.d.ts not in this list (e.g.
// ReadonlyArray) are intentionally treated as user types — see
// DESIGN.md's open-question 3.
var tsBuiltins = map[string]bool{
	"string": true, "number": true, "boolean": true, "any": true, "void": true,
	"null": true, "undefined": true, "unknown": true, "never": true, "object": true,
	"bigint": true, "symbol": true, "function": true,
	"Map": true, "Promise": true, "Array": true, "Record": true, "Partial": true,
}

// IsTSBuiltin reports whether name is in the closed TypeScript builtin set.
func IsTSBuiltin(name string) bool { return tsBuiltins[name] }
