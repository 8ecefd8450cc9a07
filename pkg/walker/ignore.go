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

package walker

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// rule is one compiled gitignore-style pattern.
type rule struct {
	negate    bool
	dirOnly   bool
	anchored  bool // pattern contained a "/" before the final segment
	pattern   string
	hasDouble bool // pattern contains "**"
}

// ignoreSet evaluates a stack of gitignore-style rule lists plus an
// explicit extra pattern list (the walker's Config.IgnorePatterns),
// applied in order so later rules (closer to the matched path, or later
// in Config.IgnorePatterns) can override earlier ones via negation.
type ignoreSet struct {
	rules []rule
}

func newIgnoreSet() *ignoreSet { return &ignoreSet{} }

// loadGitignore reads a single .gitignore-style file and appends its rules.
func (s *ignoreSet) loadGitignore(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s.addPattern(sc.Text())
	}
}

// addPatterns appends each of an explicit ignore-pattern list, in order.
func (s *ignoreSet) addPatterns(patterns []string) {
	for _, p := range patterns {
		s.addPattern(p)
	}
}

func (s *ignoreSet) addPattern(line string) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}
	r := rule{}
	if strings.HasPrefix(trimmed, "!") {
		r.negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		r.dirOnly = true
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	if strings.HasPrefix(trimmed, "/") {
		r.anchored = true
		trimmed = strings.TrimPrefix(trimmed, "/")
	}
	if strings.Contains(trimmed, "/") {
		r.anchored = true // a mid-pattern slash anchors the match to the full relative path.
	}
	r.hasDouble = strings.Contains(trimmed, "**")
	r.pattern = trimmed
	s.rules = append(s.rules, r)
}

// Match reports whether relPath (POSIX-style, repo-relative, no leading
// slash) should be ignored. isDir tells dirOnly rules whether they apply.
// Rules are evaluated in order; the last matching rule wins, matching
// gitignore's documented precedence (negations override suppression).
func (s *ignoreSet) Match(relPath string, isDir bool) bool {
	ignored := false
	base := path.Base(relPath)
	for _, r := range s.rules {
		if r.dirOnly && !isDir {
			continue
		}
		var hit bool
		if r.anchored {
			hit = matchGlob(r.pattern, relPath) || (r.hasDouble && matchDoubleStar(r.pattern, relPath))
		} else {
			hit = matchGlob(r.pattern, base)
		}
		if hit {
			ignored = !r.negate
		}
	}
	return ignored
}

func matchGlob(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// matchDoubleStar handles a "**" segment by trying the pattern against
// every suffix of the path's segments, since filepath.Match has no
// concept of "match any number of directories".
func matchDoubleStar(pattern, relPath string) bool {
	parts := strings.Split(pattern, "**")
	if len(parts) != 2 {
		return matchGlob(pattern, relPath)
	}
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")
	if prefix != "" && !strings.HasPrefix(relPath, prefix) {
		return false
	}
	rest := strings.TrimPrefix(relPath, prefix)
	rest = strings.TrimPrefix(rest, "/")
	if suffix == "" {
		return true
	}
	segments := strings.Split(rest, "/")
	for i := range segments {
		candidate := strings.Join(segments[i:], "/")
		if matchGlob(suffix, candidate) {
			return true
		}
	}
	return false
}
