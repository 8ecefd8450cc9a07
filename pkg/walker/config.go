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

// Package walker traverses a repository honoring gitignore semantics and
// an explicit ignore list, emitting Directory/File nodes and parent→child
// CONTAINS edges for every admitted entry.
package walker

// Config governs traversal. Zero value matches DefaultConfig's documented
// defaults except Recursive and UseGitignoreFiles, which default true, and
// Concurrency, which defaults to 4; callers should start from DefaultConfig.
type Config struct {
	Recursive         bool
	FollowLinks       bool
	MaxDepth          int // 0 = unlimited
	ContinueOnError   bool
	IgnorePatterns    []string
	UseGitignoreFiles bool
	// Concurrency is the worker pool size Walk uses to parse admitted
	// files once the directory scan completes. 0 or 1 parses sequentially
	// on the caller's goroutine; Walk also falls back to sequential for
	// batches under 10 files, where pool setup costs more than it saves.
	Concurrency int
}

// DefaultConfig returns the walker's documented default Config.
func DefaultConfig() Config {
	return Config{
		Recursive:         true,
		FollowLinks:       false,
		MaxDepth:          0,
		ContinueOnError:   false,
		IgnorePatterns:    nil,
		UseGitignoreFiles: true,
		Concurrency:       4,
	}
}
