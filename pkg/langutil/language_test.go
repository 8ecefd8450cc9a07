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

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/codegraph/pkg/graph"
)

func TestLanguageForPath(t *testing.T) {
	cases := []struct {
		path string
		lang graph.Language
		ok   bool
	}{
		{"main.go", graph.LangGo, true},
		{"src/App.TS", graph.LangTypeScript, true},
		{"tool.py", graph.LangPython, true},
		{"README.md", graph.LangNone, false},
		{"noext", graph.LangNone, false},
	}
	for _, c := range cases {
		lang, ok := LanguageForPath(c.path)
		assert.Equal(t, c.ok, ok, "ok for %q", c.path)
		if c.ok {
			assert.Equal(t, c.lang, lang, "lang for %q", c.path)
		}
	}
}

func TestIsSupportedExt(t *testing.T) {
	assert.True(t, IsSupportedExt("a/b.go"))
	assert.False(t, IsSupportedExt("a/b.rb"))
}
