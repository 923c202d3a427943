package remoteindex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const indexPage = `<!DOCTYPE html>
<html><body>
<h1>Index of /datasets/adk</h1>
<a href="../">Parent Directory</a>
<a href="adk4AKE.psf">adk4AKE.psf</a>
<a href="trajectory/1ake_007.dcd">1ake_007.dcd</a>
<a href="https://mirror.example.org/adk/readme.txt">readme.txt</a>
<a href="about.html">About</a>
<a href="#top">Back to top</a>
<a href="adk4AKE.psf">duplicate link</a>
<a href="mailto:admin@example.org">Contact</a>
</body></html>`

func TestScanExtractsFileLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indexPage))
	}))
	defer server.Close()

	scanner := NewScanner(nil)
	links, err := scanner.Scan(context.Background(), server.URL+"/datasets/adk/")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := map[string]string{
		"adk4AKE.psf":  server.URL + "/datasets/adk/adk4AKE.psf",
		"1ake_007.dcd": server.URL + "/datasets/adk/trajectory/1ake_007.dcd",
		"readme.txt":   "https://mirror.example.org/adk/readme.txt",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(links), links)
	}
	for _, l := range links {
		wantURL, ok := want[l.Name]
		if !ok {
			t.Fatalf("unexpected link %q", l.Name)
		}
		if l.URL != wantURL {
			t.Fatalf("link %q url = %q, want %q", l.Name, l.URL, wantURL)
		}
	}
}

func TestScanRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewScanner(nil).Scan(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 404 page")
	}
}

func TestScanRejectsBadScheme(t *testing.T) {
	if _, err := NewScanner(nil).Scan(context.Background(), "ftp://example.org/"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
