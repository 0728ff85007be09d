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
	"time"

	"github.com/urfave/cli/v3"

	"monthify/internal/models"
	"monthify/internal/repositories"
	"monthify/internal/services"
	"monthify/internal/shared"
	tu "monthify/internal/testing"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "monthify.db")
	return config
}

// runCLI executes one subcommand the way main would.
func runCLI(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "monthify", Commands: runner.register()}
	return app.Run(context.Background(), append([]string{"monthify"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Spotify: spotify,
				Logger:  logger,
				Output:  output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.spotify != services.Service(spotify) {
				t.Error("expected spotify to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if expected := `{"key":"value"}` + "\n"; output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("formats into the output writer", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("ensureAuthenticated", func(t *testing.T) {
		t.Run("without a service", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			_, err := runner.ensureAuthenticated(context.Background())
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("non-OAuth service resolves the user directly", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Spotify: &tu.MockService{UserID: "tester"}})

			userID, err := runner.ensureAuthenticated(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if userID != "tester" {
				t.Errorf("expected tester, got %q", userID)
			}
		})

		t.Run("surfaces a failed user lookup", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Spotify: &tu.MockService{UserErr: fmt.Errorf("boom")}})

			if _, err := runner.ensureAuthenticated(context.Background()); err == nil {
				t.Error("expected error from user lookup")
			}
		})
	})
}

func TestSyncCommand(t *testing.T) {
	watermark := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	newService := func() *tu.MockService {
		return &tu.MockService{
			UserID: "tester",
			Pages: map[int]*services.SavedTrackPage{
				0: {
					Tracks: []models.Track{
						{ID: "t1", Name: "Song 1", AddedAt: newest},
						{ID: "t2", Name: "Song 2", AddedAt: watermark.Add(24 * time.Hour)},
					},
					Total: 2,
				},
			},
			Lists: []models.Playlist{{ID: "pl-other", Name: "Road Trip"}},
		}
	}

	t.Run("runs a pass and reports in text", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: newService(),
			Output:  output,
		})

		if err := runCLI(t, runner, "sync", "--since", "2024-01-10T00:00:00Z"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Jan '24 (created)") {
			t.Errorf("expected the created bucket, got:\n%s", out)
		}
		if !strings.Contains(out, "Added:           2") {
			t.Errorf("expected 2 additions, got:\n%s", out)
		}
	})

	t.Run("persists the watermark and run history", func(t *testing.T) {
		config := testConfig(t)
		runner := NewRunner(RunnerOpts{
			Config:  config,
			Spotify: newService(),
			Output:  &bytes.Buffer{},
		})

		if err := runCLI(t, runner, "sync", "--since", "2024-01-10T00:00:00Z"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		stored, err := repositories.NewWatermarkRepository(db).Get("tester")
		if err != nil {
			t.Fatalf("expected a stored watermark, got %v", err)
		}
		if !stored.Equal(newest) {
			t.Errorf("expected watermark %v, got %v", newest, stored)
		}

		latest, err := repositories.NewRunRepository(db).Latest("tester")
		if err != nil {
			t.Fatalf("expected a recorded run, got %v", err)
		}
		if latest.BucketName != "Jan '24" || latest.Added != 2 {
			t.Errorf("unexpected run %+v", latest)
		}
	})

	t.Run("json format", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: newService(),
			Output:  output,
		})

		if err := runCLI(t, runner, "sync", "--since", "2024-01-10T00:00:00Z", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"bucket":"Jan '24"`) {
			t.Errorf("expected JSON output, got:\n%s", output.String())
		}
	})

	t.Run("rejects a malformed since flag", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: newService(),
			Output:  &bytes.Buffer{},
		})

		err := runCLI(t, runner, "sync", "--since", "not-a-timestamp")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("propagates a fetch failure", func(t *testing.T) {
		svc := newService()
		svc.PagesErr = fmt.Errorf("boom")
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: svc,
			Output:  &bytes.Buffer{},
		})

		err := runCLI(t, runner, "sync", "--since", "2024-01-10T00:00:00Z")
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
	})
}

func TestPlaylistsCommand(t *testing.T) {
	newService := func() *tu.MockService {
		return &tu.MockService{
			UserID: "tester",
			Lists: []models.Playlist{
				{ID: "pl1", Name: "Jan '24", TrackCount: 12},
				{ID: "pl2", Name: "Road Trip", TrackCount: 40},
			},
		}
	}

	t.Run("text listing", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: newService(),
			Output:  output,
		})

		if err := runCLI(t, runner, "playlists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "1. Jan '24 (12 tracks)") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("json listing", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: newService(),
			Output:  output,
		})

		if err := runCLI(t, runner, "playlists", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"Name":"Jan '24"`) {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		svc := newService()
		svc.ListsErr = fmt.Errorf("boom")
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: svc,
			Output:  &bytes.Buffer{},
		})

		if err := runCLI(t, runner, "playlists"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestStatusCommand(t *testing.T) {
	t.Run("empty state", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Spotify: &tu.MockService{UserID: "tester"},
			Output:  output,
		})

		if err := runCLI(t, runner, "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Watermark: none stored") {
			t.Errorf("expected the empty watermark line, got:\n%s", out)
		}
		if !strings.Contains(out, "No runs recorded.") {
			t.Errorf("expected the empty history line, got:\n%s", out)
		}
	})

	t.Run("after a pass", func(t *testing.T) {
		config := testConfig(t)
		watermark := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
		svc := &tu.MockService{
			UserID: "tester",
			Pages: map[int]*services.SavedTrackPage{
				0: {Tracks: []models.Track{{ID: "t1", Name: "Song 1", AddedAt: watermark.Add(24 * time.Hour)}}},
			},
			Lists: []models.Playlist{{ID: "pl-other", Name: "Road Trip"}},
		}
		runner := NewRunner(RunnerOpts{Config: config, Spotify: svc, Output: &bytes.Buffer{}})

		if err := runCLI(t, runner, "sync", "--since", "2024-01-10T00:00:00Z"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := &bytes.Buffer{}
		runner.output = output
		if err := runCLI(t, runner, "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Watermark: 2024-01-11T00:00:00Z") {
			t.Errorf("expected the stored watermark, got:\n%s", out)
		}
		if !strings.Contains(out, "Jan '24") {
			t.Errorf("expected the run history, got:\n%s", out)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir) // the created config points the database at the working directory
		path := filepath.Join(dir, "config.toml")

		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "monthify.db")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output})

		if err := runCLI(t, runner, "setup", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Setup complete.") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("refuses to overwrite an existing config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("existing"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{Config: testConfig(t), Output: &bytes.Buffer{}})
		if err := runCLI(t, runner, "setup", "--config", path); err == nil {
			t.Error("expected error for existing config")
		}
	})
}
