package journal

import (
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newService(t *testing.T) *Service {
	t.Helper()

	s := &Service{}
	if err := s.Connect(filepath.Join(t.TempDir(), "journal.db"), 0600, nil); err != nil {
		t.Fatal(err)
	}
	s.SetLogger(log.New(io.Discard))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})
	return s
}

func TestInsertAndRecent(t *testing.T) {
	s := newService(t)

	records := []Record{
		{Time: time.Now(), RemoteAddr: "127.0.0.1", Method: http.MethodGet, Path: "/index.html", Status: 200, Bytes: 18},
		{Time: time.Now(), RemoteAddr: "127.0.0.1", Method: http.MethodGet, Path: "/missing.txt", Status: 404, Bytes: 19},
		{Time: time.Now(), RemoteAddr: "127.0.0.1", Method: http.MethodHead, Path: "/index.html", Status: 200, Bytes: 0},
	}
	for _, r := range records {
		if err := s.Insert(r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d records, want 2", len(got))
	}

	// Newest first.
	if got[0].Method != http.MethodHead || got[0].Path != "/index.html" {
		t.Errorf("newest record = %s %s, want HEAD /index.html", got[0].Method, got[0].Path)
	}
	if got[1].Status != 404 {
		t.Errorf("second record status = %d, want 404", got[1].Status)
	}

	n, err := s.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != len(records) {
		t.Errorf("Len() = %d, want %d", n, len(records))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newService(t)

	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Recent on an empty journal returned %d records", len(got))
	}
}
