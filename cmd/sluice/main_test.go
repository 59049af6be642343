package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/sluice"
	"github.com/zoobzio/sluice/pkg/postgres"
	"github.com/zoobzio/sluice/pkg/sqldb"
	sluicetest "github.com/zoobzio/sluice/testing"
	"go.uber.org/zap"
)

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func setupSource(t *testing.T) (dir string, db *sql.DB) {
	t.Helper()
	dir = t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, "config.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE config (key TEXT PRIMARY KEY, data TEXT NOT NULL, version INTEGER NOT NULL);
		INSERT INTO config VALUES ('app', '{"max_items": 3}', 1);
	`)
	require.NoError(t, err)
	return dir, db
}

func sourceYAML(dir string) string {
	return `
source:
  url: sqlite://` + filepath.Join(dir, "config.db") + `
  query: SELECT data FROM config WHERE key = ?
  params: [app]
  watch:
    query: SELECT version FROM config WHERE key = ?
    params: [app]
    interval: 20ms
column: data
format: json
`
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sluice.yaml")
	writeFile(t, path, sourceYAML("/data"))

	s, err := loadSettings(path)
	require.NoError(t, err)

	want := sluice.Config{
		URL:    "sqlite:///data/config.db",
		Query:  "SELECT data FROM config WHERE key = ?",
		Params: []any{"app"},
		Watch: &sluice.WatchConfig{
			Query:    "SELECT version FROM config WHERE key = ?",
			Params:   []any{"app"},
			Interval: "20ms",
		},
	}
	if diff := cmp.Diff(want, s.Source); diff != "" {
		t.Errorf("source mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "data", s.Column)
	require.Equal(t, "sluice:changes", s.Broadcast.Channel)
	require.Len(t, s.transforms(), 1)
}

func TestLoadSettings_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sluice.yaml")
	writeFile(t, path, sourceYAML("/data"))
	t.Setenv("SLUICE_SOURCE_URL", "postgres://override/app")

	s, err := loadSettings(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://override/app", s.Source.URL)
}

func TestLoadSettings_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown format", "column: data\nformat: toml\n", "unknown format"},
		{"format without column", "format: json\n", "requires a column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sluice.yaml")
			writeFile(t, path, tt.content)
			_, err := loadSettings(path)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := loadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDialerFor(t *testing.T) {
	d, err := dialerFor("postgres://localhost/app")
	require.NoError(t, err)
	require.IsType(t, &postgres.Dialer{}, d)

	d, err = dialerFor("sqlite:///tmp/config.db")
	require.NoError(t, err)
	require.IsType(t, &sqldb.Dialer{}, d)

	d, err = dialerFor("")
	require.NoError(t, err)
	require.Nil(t, d)

	_, err = dialerFor("mysql://localhost/app")
	require.ErrorContains(t, err, "unsupported scheme")
}

func TestRunner_Once(t *testing.T) {
	dir, _ := setupSource(t)
	path := filepath.Join(dir, "sluice.yaml")
	writeFile(t, path, sourceYAML(dir))

	out := &syncBuffer{}
	r := &runner{path: path, once: true, log: zap.NewNop(), out: out}
	require.NoError(t, r.loop(context.Background()))
	require.JSONEq(t, `{"max_items": 3}`, out.String())
}

func TestRunner_OnceReportsLoadError(t *testing.T) {
	dir, _ := setupSource(t)
	path := filepath.Join(dir, "sluice.yaml")
	writeFile(t, path, strings.Replace(sourceYAML(dir), "FROM config WHERE", "FROM nope WHERE", 1))

	r := &runner{path: path, once: true, log: zap.NewNop(), out: &syncBuffer{}}
	err := r.loop(context.Background())
	require.Equal(t, sluice.KindQuery, sluice.KindOf(err))
}

func TestRunner_ReloadsOnSourceChange(t *testing.T) {
	dir, db := setupSource(t)
	path := filepath.Join(dir, "sluice.yaml")
	writeFile(t, path, sourceYAML(dir))

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	r := &runner{path: path, log: zap.NewNop(), out: out}

	done := make(chan error, 1)
	go func() { done <- r.loop(ctx) }()

	require.True(t, sluicetest.WaitFor(t, 5*time.Second, func() bool {
		return strings.Contains(out.String(), `"max_items": 3`)
	}))

	_, err := db.Exec(`UPDATE config SET data = '{"max_items": 7}', version = 2 WHERE key = 'app'`)
	require.NoError(t, err)

	require.True(t, sluicetest.WaitFor(t, 5*time.Second, func() bool {
		return strings.Contains(out.String(), `"max_items": 7`)
	}))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for runner to stop")
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sluice.yaml")
	writeFile(t, path, "column: a\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed, err := watchFile(ctx, path)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "other.yaml"), "x: 1\n")
	writeFile(t, path, "column: b\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for file change")
	}
}
