// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.wav":
			_, _ = w.Write([]byte("RIFF payload"))
		case "/big.wav":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := HTTPFetcher{Client: srv.Client(), MaxBytes: 32}

	data, err := f.Fetch(context.Background(), srv.URL+"/ok.wav")
	if err != nil || string(data) != "RIFF payload" {
		t.Errorf("Fetch(ok) = %q, %v, want payload", data, err)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.wav"); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("Fetch(missing) error = %v, want ErrHTTPStatus", err)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/big.wav"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch(big) error = %v, want ErrTooLarge", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx, srv.URL+"/ok.wav"); !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestSchemeFetcher_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "take.wav")
	if err := os.WriteFile(p, []byte("local"), 0o600); err != nil {
		t.Fatal(err)
	}

	f := SchemeFetcher{}
	for _, ref := range []string{p, "file://" + p} {
		data, err := f.Fetch(context.Background(), ref)
		if err != nil || string(data) != "local" {
			t.Errorf("Fetch(%q) = %q, %v, want local", ref, data, err)
		}
	}

	if _, err := f.Fetch(context.Background(), "ftp://host/take.wav"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Fetch(ftp) error = %v, want ErrUnsupportedScheme", err)
	}

	if _, err := f.Fetch(context.Background(), filepath.Join(dir, "nope.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Fetch(missing) error = %v, want os.ErrNotExist", err)
	}
}
