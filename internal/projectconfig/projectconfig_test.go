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

package projectconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadParsesFields(t *testing.T) {
	root := t.TempDir()
	content := `
data_dir: .codegraph
engine: rocksdb
indexing:
  follow_links: true
  max_depth: 5
  continue_on_error: true
  ignore_patterns:
    - "*.generated.go"
  use_gitignore_files: false
`
	require.NoError(t, os.WriteFile(filepath.Join(root, fileName), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, ".codegraph", cfg.DataDir)
	assert.Equal(t, "rocksdb", cfg.Engine)
	assert.True(t, cfg.Indexing.FollowLinks)
	assert.Equal(t, 5, cfg.Indexing.MaxDepth)
	assert.True(t, cfg.Indexing.ContinueOnError)
	assert.Equal(t, []string{"*.generated.go"}, cfg.Indexing.IgnorePatterns)
	require.NotNil(t, cfg.Indexing.UseGitignoreFiles)
	assert.False(t, *cfg.Indexing.UseGitignoreFiles)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, fileName), []byte("data_dir: [unclosed\n"), 0o644))

	_, err := Load(root)
	assert.Error(t, err)
}
