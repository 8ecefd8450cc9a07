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

// Package logging wires the CLI's verbosity flags to a structured
// log/slog.Logger, with colorized level prefixes gated on TTY detection.
package logging

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is the CLI's own verbosity enum: Trace sits below slog's own
// LevelDebug, since -vvv asks for more than the standard library's scale
// reaches.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// slogLevelTrace is Trace's custom slog.Level, one step below LevelDebug.
const slogLevelTrace = slog.Level(-8)

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	case LevelTrace:
		return slogLevelTrace
	default:
		return slog.LevelDebug
	}
}

// InitLogger builds the process-wide logger for the given verbosity level.
// noColor carries the CLI's --no-color flag (and the NO_COLOR env var,
// checked by the caller); color is used only when noColor is false and w
// is a terminal.
func InitLogger(level Level, w *os.File, noColor bool) *slog.Logger {
	useColor := !noColor && isatty.IsTerminal(w.Fd())
	color.NoColor = !useColor

	opts := &slog.HandlerOptions{
		Level: level.toSlog(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.LevelKey {
				return a
			}
			lvl, _ := a.Value.Any().(slog.Level)
			a.Value = slog.StringValue(colorizeLevel(lvl, useColor))
			return a
		},
	}
	handler := slog.NewTextHandler(w, opts)
	return slog.New(handler)
}

func colorizeLevel(lvl slog.Level, useColor bool) string {
	label := levelLabel(lvl)
	if !useColor {
		return label
	}
	switch {
	case lvl >= slog.LevelError:
		return color.RedString(label)
	case lvl >= slog.LevelWarn:
		return color.YellowString(label)
	case lvl >= slog.LevelInfo:
		return color.CyanString(label)
	default:
		return color.HiBlackString(label)
	}
}

func levelLabel(lvl slog.Level) string {
	switch {
	case lvl <= slogLevelTrace:
		return "TRACE"
	case lvl < slog.LevelInfo:
		return "DEBUG"
	case lvl < slog.LevelWarn:
		return "INFO"
	case lvl < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseVerbosity maps the CLI's -v/-vv/-vvv count flag to a Level.
func ParseVerbosity(count int) Level {
	switch {
	case count <= 0:
		return LevelWarn
	case count == 1:
		return LevelInfo
	case count == 2:
		return LevelDebug
	default:
		return LevelTrace
	}
}
