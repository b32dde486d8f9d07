package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/repositories"
	"github.com/desertthunder/trackrip/internal/services"
	"github.com/desertthunder/trackrip/internal/shared"
	tu "github.com/desertthunder/trackrip/internal/testing"
)

const testToken = "test-token"

func testCredentials(string) (*shared.Credentials, error) {
	return &shared.Credentials{Username: "tester", Token: testToken}, nil
}

// seedCatalog adds one playable track, "Artist - Title", referenced as ABC123.
func seedCatalog(t *testing.T, plain []byte) (*tu.Catalog, models.ID) {
	t.Helper()
	ref, err := models.IDFromBase62("ABC123")
	if err != nil {
		t.Fatalf("bad id: %v", err)
	}

	c := tu.NewCatalog()
	c.AddArtist(tu.SeqID(1), "Artist")
	c.AddAlbum(&models.Album{ID: tu.SeqID(2), Name: "Album", Date: models.Date{Year: 2020}})
	c.AddTrack(&models.Track{
		ID:        ref,
		Name:      "Title",
		Artists:   []models.ID{tu.SeqID(1)},
		Album:     tu.SeqID(2),
		Available: true,
		Files:     map[models.FileFormat]models.FileID{models.OggVorbis320: tu.SeqFileID(1)},
	})

	enc, err := services.DecryptAudio(tu.SeqKey(1), plain)
	if err != nil {
		t.Fatalf("failed to encrypt fixture: %v", err)
	}
	c.AddFile(tu.SeqFileID(1), tu.SeqKey(1), enc)
	return c, ref
}

// writeConfig writes a config file for proxyURL with every path inside dir.
func writeConfig(t *testing.T, dir, proxyURL string) string {
	t.Helper()
	content := fmt.Sprintf(`[session]
proxy_url = %q
requests_per_second = 100.0
burst = 10
chunk_size = 512
request_timeout_ms = 5000
poll_interval_ms = 10

[credentials]
path = %q

[output]
directory = %q

[database]
path = %q
enabled = true
max_open_conns = 1
max_idle_conns = 1

[logging]
level = "debug"
`, proxyURL, filepath.Join(dir, "credentials.toml"), filepath.Join(dir, "out"), filepath.Join(dir, "history.db"))

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func newTestRunner(input string, output *bytes.Buffer, logs *bytes.Buffer) *Runner {
	return NewRunner(RunnerOpts{
		Logger:      log.New(logs),
		Input:       strings.NewReader(input),
		Output:      output,
		Credentials: testCredentials,
	})
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")

			runner := NewRunner(RunnerOpts{
				Config:      config,
				Logger:      logger,
				Input:       input,
				Output:      output,
				Credentials: testCredentials,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.credentials == nil || runner.connect == nil {
				t.Error("expected credentials and connect to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.input != os.Stdin {
				t.Error("expected stdin input")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout output")
			}
			if runner.connect == nil || runner.credentials == nil {
				t.Error("expected default session factory and credentials generator")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s\n", "world"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.String() != "hello world\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes Track File", func(t *testing.T) {
		plain := bytes.Repeat([]byte("0123456789abcdef"), 100)
		c, _ := seedCatalog(t, plain)
		server := tu.NewProxyServer(c, testToken)
		defer server.Close()

		dir := t.TempDir()
		cfg := writeConfig(t, dir, server.URL)
		output, logs := &bytes.Buffer{}, &bytes.Buffer{}
		runner := newTestRunner("\nspotify:track:ABC123\nnot a track\n", output, logs)

		if err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg}); err != nil {
			t.Fatalf("unexpected error: %v\nlogs: %s", err, logs.String())
		}

		got, err := os.ReadFile(filepath.Join(dir, "out", "Artist - Title.ogg"))
		if err != nil {
			t.Fatalf("expected track file: %v", err)
		}
		if !bytes.Equal(got, plain[0xa7:]) {
			t.Errorf("expected %d payload bytes, got %d", len(plain)-0xa7, len(got))
		}

		if !strings.Contains(output.String(), "Processed: 1") {
			t.Errorf("expected summary in output, got %q", output.String())
		}
		if !strings.Contains(logs.String(), "cannot parse track from line") {
			t.Errorf("expected warning for malformed line, got %q", logs.String())
		}
		if _, err := os.Stat(filepath.Join(dir, "credentials.toml")); err != nil {
			t.Errorf("expected provisioned credentials to be saved: %v", err)
		}
	})

	t.Run("Line Failure Does Not Fail Run", func(t *testing.T) {
		c, _ := seedCatalog(t, bytes.Repeat([]byte{1}, 400))
		server := tu.NewProxyServer(c, testToken)
		defer server.Close()

		dir := t.TempDir()
		cfg := writeConfig(t, dir, server.URL)
		output, logs := &bytes.Buffer{}, &bytes.Buffer{}
		runner := newTestRunner("spotify:track:ZZZ999\n", output, logs)

		if err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg, "--no-history"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Processed: 1") || !strings.Contains(output.String(), "Failed:") {
			t.Errorf("expected failure in summary, got %q", output.String())
		}
		if _, err := os.Stat(filepath.Join(dir, "history.db")); !os.IsNotExist(err) {
			t.Error("expected no history database with --no-history")
		}
	})

	t.Run("Skip Retrieved", func(t *testing.T) {
		c, _ := seedCatalog(t, bytes.Repeat([]byte{2}, 400))
		server := tu.NewProxyServer(c, testToken)
		defer server.Close()

		dir := t.TempDir()
		cfg := writeConfig(t, dir, server.URL)

		for i := range 2 {
			output, logs := &bytes.Buffer{}, &bytes.Buffer{}
			runner := newTestRunner("spotify:track:ABC123\n", output, logs)
			args := []string{shared.AppName, "--config", cfg, "--skip-retrieved"}
			if err := runner.root().Run(ctx, args); err != nil {
				t.Fatalf("run %d: unexpected error: %v", i, err)
			}
		}

		if n := c.Calls("stream"); n != 1 {
			t.Errorf("expected one stream request across both runs, got %d", n)
		}
	})

	t.Run("Summary Write Failure", func(t *testing.T) {
		c, _ := seedCatalog(t, bytes.Repeat([]byte{5}, 400))
		server := tu.NewProxyServer(c, testToken)
		defer server.Close()

		dir := t.TempDir()
		cfg := writeConfig(t, dir, server.URL)
		printed := &bytes.Buffer{}
		output := tu.NewLimitedWriter(1, 0, printed)
		runner := NewRunner(RunnerOpts{
			Logger:      log.New(&bytes.Buffer{}),
			Input:       strings.NewReader("spotify:track:ABC123\n"),
			Output:      &output,
			Credentials: testCredentials,
		})

		err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg, "--no-history"})
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected summary write error, got %v", err)
		}
		if !strings.Contains(printed.String(), "Artist - Title") {
			t.Errorf("expected the outcome line before the failed summary, got %q", printed.String())
		}
	})

	t.Run("Default Config In Working Directory", func(t *testing.T) {
		c, _ := seedCatalog(t, bytes.Repeat([]byte{6}, 400))
		server := tu.NewProxyServer(c, testToken)
		defer server.Close()

		dir := t.TempDir()
		writeConfig(t, dir, server.URL)

		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		output := &bytes.Buffer{}
		runner := newTestRunner("spotify:track:ABC123\n", output, &bytes.Buffer{})
		if err := runner.root().Run(ctx, []string{shared.AppName, "--no-history"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertDirExists(t, filepath.Join(dir, "out"))
		tu.AssertFileExists(t, filepath.Join(dir, "out", "Artist - Title.ogg"))
	})

	t.Run("Helper Named Like Subcommand", func(t *testing.T) {
		plain := bytes.Repeat([]byte{7}, 400)
		c, _ := seedCatalog(t, plain)
		server := tu.NewProxyServer(c, testToken)
		defer server.Close()

		dir := t.TempDir()
		cfg := writeConfig(t, dir, server.URL)
		script := "#!/bin/sh\ncat > \"$(dirname \"$0\")/received.ogg\"\n"
		if err := os.WriteFile(filepath.Join(dir, "history"), []byte(script), 0755); err != nil {
			t.Fatalf("failed to write helper: %v", err)
		}

		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		output := &bytes.Buffer{}
		runner := newTestRunner("spotify:track:ABC123\n", output, &bytes.Buffer{})
		if err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg, "--no-history", "./history"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := os.ReadFile(filepath.Join(dir, "received.ogg"))
		if err != nil {
			t.Fatalf("expected helper to receive the track: %v", err)
		}
		if !bytes.Equal(got, plain[0xa7:]) {
			t.Errorf("expected %d payload bytes, got %d", len(plain)-0xa7, len(got))
		}
		if !strings.Contains(rootDescription, "./history") {
			t.Error("expected usage to explain how to pass such a helper")
		}
	})

	t.Run("Too Many Arguments", func(t *testing.T) {
		runner := newTestRunner("", &bytes.Buffer{}, &bytes.Buffer{})
		err := runner.root().Run(ctx, []string{shared.AppName, "one", "two"})
		if !errors.Is(err, shared.ErrUsage) {
			t.Errorf("expected ErrUsage, got %v", err)
		}
	})

	t.Run("Missing Explicit Config", func(t *testing.T) {
		runner := newTestRunner("", &bytes.Buffer{}, &bytes.Buffer{})
		missing := filepath.Join(t.TempDir(), "nope.toml")
		err := runner.root().Run(ctx, []string{shared.AppName, "--config", missing})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Rejected Token", func(t *testing.T) {
		c, _ := seedCatalog(t, bytes.Repeat([]byte{3}, 400))
		server := tu.NewProxyServer(c, "other-token")
		defer server.Close()

		dir := t.TempDir()
		cfg := writeConfig(t, dir, server.URL)
		runner := newTestRunner("spotify:track:ABC123\n", &bytes.Buffer{}, &bytes.Buffer{})

		err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeConfig(t, dir, "http://127.0.0.1:1")
		runner := NewRunner(RunnerOpts{
			Logger:      log.New(&bytes.Buffer{}),
			Input:       strings.NewReader(""),
			Output:      &bytes.Buffer{},
			Credentials: shared.NoCredentials,
		})

		err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	c, _ := seedCatalog(t, bytes.Repeat([]byte{4}, 400))
	server := tu.NewProxyServer(c, testToken)
	defer server.Close()

	dir := t.TempDir()
	cfg := writeConfig(t, dir, server.URL)

	runner := newTestRunner("spotify:track:ABC123\n", &bytes.Buffer{}, &bytes.Buffer{})
	if err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg}); err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	t.Run("List", func(t *testing.T) {
		for _, format := range []string{"table", "plain", "csv", "md"} {
			t.Run(format, func(t *testing.T) {
				output := &bytes.Buffer{}
				runner := newTestRunner("", output, &bytes.Buffer{})
				args := []string{shared.AppName, "--config", cfg, "history", "list", "--format", format}
				if err := runner.root().Run(ctx, args); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !strings.Contains(output.String(), "Title") {
					t.Errorf("expected retrieved track in %s listing, got %q", format, output.String())
				}
			})
		}
	})

	t.Run("List Unknown Format", func(t *testing.T) {
		runner := newTestRunner("", &bytes.Buffer{}, &bytes.Buffer{})
		args := []string{shared.AppName, "--config", cfg, "history", "list", "--format", "xml"}
		if err := runner.root().Run(ctx, args); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Export", func(t *testing.T) {
		path := filepath.Join(dir, "history.csv")
		runner := newTestRunner("", &bytes.Buffer{}, &bytes.Buffer{})
		args := []string{shared.AppName, "--config", cfg, "history", "list", "--format", "csv", "--export", path}
		if err := runner.root().Run(ctx, args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("Forget", func(t *testing.T) {
		conf, err := shared.LoadConfig(cfg)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		db, err := shared.OpenJournal(conf.Database, conf.DatabasePath())
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		rows, err := repositories.NewRetrievalRepository(db).List(nil)
		db.Close()
		if err != nil || len(rows) != 1 {
			t.Fatalf("expected one retrieval, got %d (%v)", len(rows), err)
		}

		output := &bytes.Buffer{}
		runner := newTestRunner("", output, &bytes.Buffer{})
		args := []string{shared.AppName, "--config", cfg, "history", "forget", rows[0].ID()}
		if err := runner.root().Run(ctx, args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		runner = newTestRunner("", output, &bytes.Buffer{})
		args = []string{shared.AppName, "--config", cfg, "history", "forget", rows[0].ID()}
		if err := runner.root().Run(ctx, args); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second forget, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Config And Database", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		cfg := filepath.Join(dir, "config.toml")

		output := &bytes.Buffer{}
		runner := newTestRunner("", output, &bytes.Buffer{})
		if err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg, "setup"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, cfg)
		tu.AssertFileExists(t, filepath.Join(dir, shared.AppName, "history.db"))
		if !strings.Contains(output.String(), "History:") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Keeps Existing Config", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeConfig(t, dir, "http://127.0.0.1:1")
		before, err := os.ReadFile(cfg)
		if err != nil {
			t.Fatal(err)
		}

		runner := newTestRunner("", &bytes.Buffer{}, &bytes.Buffer{})
		if err := runner.root().Run(ctx, []string{shared.AppName, "--config", cfg, "setup"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		after, err := os.ReadFile(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(before, after) {
			t.Error("expected existing config to be left untouched")
		}
		tu.AssertFileExists(t, filepath.Join(dir, "history.db"))
	})
}
