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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoModulePath(t *testing.T) {
	dir := t.TempDir()
	content := "module github.com/acme/widget\n\ngo 1.24.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0o644))
	assert.Equal(t, "github.com/acme/widget", GoModulePath(dir))
}

func TestGoModulePathMissingFile(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", GoModulePath(dir))
}

func TestGoModulePathNoModuleLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("go 1.24.0\n"), 0o644))
	assert.Equal(t, "", GoModulePath(dir))
}

func TestResolveGoImportPath(t *testing.T) {
	rel, ok := ResolveGoImportPath("github.com/acme/widget", "github.com/acme/widget/pkg/foo")
	assert.True(t, ok)
	assert.Equal(t, "pkg/foo", rel)
}

func TestResolveGoImportPathExactModule(t *testing.T) {
	rel, ok := ResolveGoImportPath("github.com/acme/widget", "github.com/acme/widget")
	assert.True(t, ok)
	assert.Equal(t, "", rel)
}

func TestResolveGoImportPathOutsideModule(t *testing.T) {
	_, ok := ResolveGoImportPath("github.com/acme/widget", "github.com/other/lib")
	assert.False(t, ok)
}

func TestResolveGoImportPathEmptyInputs(t *testing.T) {
	_, ok := ResolveGoImportPath("", "github.com/acme/widget")
	assert.False(t, ok)
	_, ok = ResolveGoImportPath("github.com/acme/widget", "")
	assert.False(t, ok)
}
