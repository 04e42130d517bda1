// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ik5/multitrack/internal/audiotest"
)

const testRate = 8000

// run executes the command line and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeWAV stores seconds of constant audio in dir.
func writeWAV(t *testing.T, dir, name string, seconds float64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data := audiotest.ConstantWAV(testRate, 1, int(seconds*testRate), 0.5)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// writeConfig writes a config running the engine at testRate with the
// given inline tracks.
func writeConfig(t *testing.T, dir string, urls ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("engine:\n  sample_rate: 8000\n  poll_interval: 1ms\nproject:\n  id: cli\n  tracks:\n")
	for i, u := range urls {
		b.WriteString("    - id: t" + string(rune('a'+i)) + "\n")
		b.WriteString("      url: " + u + "\n")
		b.WriteString("      volume: 1\n")
	}

	path := filepath.Join(dir, "multitrack.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestConfigInit_Stdout(t *testing.T) {
	t.Parallel()

	out, err := run(t, "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	for _, want := range []string{"sample_rate: 44100", "poll_interval: 16ms", "server:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestConfigInit_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "multitrack.yaml")
	if _, err := run(t, "config", "init", path); err != nil {
		t.Fatalf("first init error = %v", err)
	}
	if _, err := run(t, "config", "init", path); err == nil {
		t.Error("second init without --force succeeded")
	}
	if _, err := run(t, "config", "init", "--force", path); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	// The written file loads as a config.
	if _, err := run(t, "--config", path, "probe", writeWAV(t, t.TempDir(), "a.wav", 0.5)); err != nil {
		t.Errorf("probe with the generated config error = %v", err)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wav := writeWAV(t, dir, "one.wav", 1)

	out, err := run(t, "--config", cfg, "probe", wav)
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}
	for _, want := range []string{"wav", "8000", "1.000s", "native"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	out, err = run(t, "--config", cfg, "probe", wav, filepath.Join(dir, "missing.wav"))
	if err == nil {
		t.Error("probe of a missing file succeeded")
	}
	if !strings.Contains(out, "error:") || !strings.Contains(out, "1.000s") {
		t.Errorf("output should report both files:\n%s", out)
	}
}

func TestMix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeConfig(t, dir, writeWAV(t, dir, "a.wav", 1), writeWAV(t, dir, "b.wav", 0.5))
	out := filepath.Join(dir, "mix.wav")

	if _, err := run(t, "--config", cfg, "mix", "--out", out); err != nil {
		t.Fatalf("mix error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading mixdown: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatal("mixdown is not a RIFF file")
	}
	// one second of 16-bit stereo after the 44 byte header
	if got, want := len(data), 44+testRate*2*2; got != want {
		t.Errorf("mixdown size = %d, want %d", got, want)
	}
}

func TestMix_ExportWithoutStorage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeConfig(t, dir, writeWAV(t, dir, "a.wav", 0.25))

	if _, err := run(t, "--config", cfg, "mix", "--export"); err == nil {
		t.Error("mix --export without object storage succeeded")
	}
}

func TestWaveform(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wav := writeWAV(t, dir, "one.wav", 1)

	out, err := run(t, "--config", cfg, "waveform", "--buckets", "4", wav)
	if err != nil {
		t.Fatalf("waveform error = %v", err)
	}
	var got struct {
		Peaks []float32          `json:"peaks"`
		Trim  map[string]float64 `json:"trim"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(got.Peaks) != 4 {
		t.Errorf("got %d peaks, want 4", len(got.Peaks))
	}
	for i, p := range got.Peaks {
		if p != 1 {
			t.Errorf("peak %d = %v, want 1 for constant audio", i, p)
		}
	}
	if got.Trim != nil {
		t.Errorf("trim = %v without trim flags", got.Trim)
	}

	out, err = run(t, "--config", cfg, "waveform", "--buckets", "4", "--start", "50", wav)
	if err != nil {
		t.Fatalf("waveform --start error = %v", err)
	}
	got.Trim = nil
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if got.Trim["start"] != 0.5 || got.Trim["end"] != 1 {
		t.Errorf("trim = %v, want start 0.5 end 1", got.Trim)
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  sample_rate: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", path, "probe", "x.wav"); err == nil {
		t.Error("an out of range sample rate was accepted")
	}
}
