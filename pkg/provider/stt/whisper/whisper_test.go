package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRequiresServerURL(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty serverURL, got nil")
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language field = %q, want %q", got, "en")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			f.Close()
			if hdr.Filename != "clip.wav" {
				t.Errorf("filename = %q, want %q", hdr.Filename, "clip.wav")
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  I am going to the gym. "}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithLanguage("en"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Transcribe(context.Background(), []byte("RIFF...."), "clip.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if want := "I am going to the gym."; got != want {
		t.Errorf("Transcribe = %q, want %q", got, want)
	}
}

func TestTranscribeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), []byte("RIFF"), "clip.wav"); err == nil {
		t.Fatal("expected error on HTTP 500, got nil")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	t.Parallel()

	p, err := New("http://localhost:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), nil, "clip.wav"); err == nil {
		t.Fatal("expected error for empty audio, got nil")
	}
}
