// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupTest creates a temporary directory and returns its path and a cleanup function.
func setupTest(t *testing.T) (string, func()) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "async-logger-test-*")
	require.NoError(t, err)

	cleanup := func() {
		os.RemoveAll(tempDir)
	}

	return tempDir, cleanup
}

func TestAsyncLogger_WriteAndClose(t *testing.T) {
	// Arrange
	tempDir, cleanup := setupTest(t)
	defer cleanup()
	logPath := filepath.Join(tempDir, "test.log")
	lj := &lumberjack.Logger{Filename: logPath}
	asyncLogger := NewAsyncLogger(lj, 10)

	// Act
	fmt.Fprintln(asyncLogger, "message 1")
	fmt.Fprintln(asyncLogger, "message 2")
	fmt.Fprintln(asyncLogger, "message 3")
	err := asyncLogger.Close()

	// Assert
	require.NoError(t, err)
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	expected := "message 1\nmessage 2\nmessage 3\n"
	assert.Equal(t, expected, string(content))
}

func TestAsyncLogger_DropMessageWhenBufferFull(t *testing.T) {
	// Arrange: a writer that blocks until released, so the buffer fills up
	// behind it no matter how fast the drain goroutine would otherwise be.
	release := make(chan struct{})
	first := make(chan struct{}, 1)
	bw := &blockingWriter{release: release, first: first}
	bufferSize := 2
	asyncLogger := NewAsyncLogger(bw, bufferSize)

	// Act: write enough messages that some must be dropped while the first
	// one is stuck mid-write.
	fmt.Fprintf(asyncLogger, "message %d\n", 0)
	<-first // wait until the drain goroutine has picked up message 0 and is blocked
	for i := 1; i < 20; i++ {
		fmt.Fprintf(asyncLogger, "message %d\n", i)
	}
	close(release)
	require.NoError(t, asyncLogger.Close())

	// Assert
	assert.Greater(t, asyncLogger.DroppedCount(), int64(0))
	assert.Less(t, asyncLogger.DroppedCount(), int64(20))
}

// blockingWriter blocks its first Write until release is closed, signalling
// via first once it has started blocking.
type blockingWriter struct {
	release chan struct{}
	first   chan struct{}
	started bool
}

func (b *blockingWriter) Write(p []byte) (int, error) {
	if !b.started {
		b.started = true
		b.first <- struct{}{}
		<-b.release
	}
	return len(p), nil
}

func (b *blockingWriter) Close() error { return nil }
