// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package logctx

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	newCtx := WithLogger(ctx, logger)

	retrieved := FromContext(newCtx)
	if retrieved != logger {
		t.Error("expected retrieved logger to match stored logger")
	}
}

func TestFromContext_NoLogger(t *testing.T) {
	ctx := context.Background()

	logger := FromContext(ctx)
	if logger == nil {
		t.Error("expected default logger when none stored in context")
	}
}

func TestFromContext_WithLogger(t *testing.T) {
	ctx := context.Background()
	originalLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx = WithLogger(ctx, originalLogger)
	retrievedLogger := FromContext(ctx)

	if retrievedLogger != originalLogger {
		t.Error("expected retrieved logger to match original logger")
	}
}

func TestRecorderCapturesAttrs(t *testing.T) {
	rec := NewRecorder(10)
	logger := slog.New(rec)

	logger.Warn("beam failed", "track", 2, "pair", 1)

	entries := rec.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "beam failed" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[0].Level != slog.LevelWarn {
		t.Errorf("unexpected level %v", entries[0].Level)
	}
	if entries[0].Attrs["track"] != int64(2) {
		t.Errorf("unexpected track attr %v", entries[0].Attrs["track"])
	}

	rec.Reset()
	if len(rec.Entries()) != 0 {
		t.Error("expected entries cleared after Reset")
	}
}

func TestRecorderBoundsToCapacity(t *testing.T) {
	rec := NewRecorder(2)
	logger := slog.New(rec)

	logger.Info("one")
	logger.Info("two")
	logger.Info("three")

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected entries bounded to capacity 2, got %d", len(entries))
	}
	if entries[0].Message != "two" || entries[1].Message != "three" {
		t.Errorf("expected oldest entry evicted, got %+v", entries)
	}
}
