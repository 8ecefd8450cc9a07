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

// Package projectconfig loads the optional .codegraph.yaml file a
// repository can carry to override the engine's walker/store defaults.
package projectconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = ".codegraph.yaml"

// Config is the on-disk shape of .codegraph.yaml. Every field is optional;
// the zero value means "use the CLI default".
type Config struct {
	DataDir  string         `yaml:"data_dir,omitempty"`
	Engine   string         `yaml:"engine,omitempty"`
	Indexing IndexingConfig `yaml:"indexing,omitempty"`
}

// IndexingConfig mirrors walker.Config's knobs in the on-disk format.
type IndexingConfig struct {
	FollowLinks       bool     `yaml:"follow_links,omitempty"`
	MaxDepth          int      `yaml:"max_depth,omitempty"`
	ContinueOnError   bool     `yaml:"continue_on_error,omitempty"`
	IgnorePatterns    []string `yaml:"ignore_patterns,omitempty"`
	UseGitignoreFiles *bool    `yaml:"use_gitignore_files,omitempty"`
}

// Load reads repoRoot/.codegraph.yaml, returning a zero Config and no error
// if the file doesn't exist: the CLI's own flags carry every documented
// default.
func Load(repoRoot string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, fileName))
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", fileName, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", fileName, err)
	}
	return cfg, nil
}
