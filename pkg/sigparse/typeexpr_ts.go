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

package sigparse

import "strings"

// TSTypeRef is one identifier extracted from a TypeScript type expression,
// split into an optional qualifier ("A" in "A.B") and the base name.
type TSTypeRef struct {
	Qualifier string // "" when the reference is unqualified.
	Name      string
}

// ExtractTSTypeRefs tokenizes a raw TypeScript type expression and returns
// every identifier reference it contains, recognizing generic arguments
// ("Foo<Bar>"), union/intersection ("A | B", "A & B"), conditional types
// ("T extends U ? X : Y"), and array suffixes ("Foo[]"). Keywords and
// punctuation are skipped; the caller is responsible for filtering
// TypeScript builtins via IsTSBuiltin-equivalent logic.
func ExtractTSTypeRefs(expr string) []TSTypeRef {
	var refs []TSTypeRef
	i := 0
	n := len(expr)
	for i < n {
		c := expr[i]
		switch {
		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(expr[i]) {
				i++
			}
			ident := expr[start:i]
			if ident == "extends" || ident == "keyof" || ident == "typeof" || ident == "infer" {
				continue
			}
			// Qualified reference: Namespace.Member
			if i < n && expr[i] == '.' {
				j := i + 1
				for j < n && isIdentPart(expr[j]) {
					j++
				}
				if j > i+1 {
					refs = append(refs, TSTypeRef{Qualifier: ident, Name: expr[i+1 : j]})
					i = j
					continue
				}
			}
			refs = append(refs, TSTypeRef{Name: ident})
		default:
			i++
		}
	}
	return refs
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// TrimArraySuffix strips trailing "[]" repetitions from a type expression.
func TrimArraySuffix(t string) string {
	for strings.HasSuffix(t, "[]") {
		t = strings.TrimSuffix(t, "[]")
	}
	return t
}
