package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/screenplays"},
		{"/screenplays/abc", "/screenplays/abc"},
		{"/scenes/xyz", "/scenes/xyz"},
		{"https://evil.example", "/screenplays"},
		{"//evil.example", "/screenplays"},
		{"javascript:alert(1)", "/screenplays"},
		{"/ok\r\nSet-Cookie: x", "/screenplays"},
		{"\\evil", "/screenplays"},
	}

	for _, tt := range tests {
		if got := safeNext(tt.next, "/screenplays"); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestSanitizeStripsHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain text  ", "plain text"},
		{"<b>bold</b> claim", "bold claim"},
		{"<script>alert(1)</script>INT. OFFICE", "INT. OFFICE"},
		{"<img src=x onerror=alert(1)>", ""},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec, Flash{
		Message: "title is required",
		Field:   "title",
		Values:  map[string]string{"logline": "kept"},
	})

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	r := httptest.NewRequest(http.MethodGet, "/screenplays", nil)
	r.AddCookie(cookies[0])

	rec2 := httptest.NewRecorder()
	f := popFlash(rec2, r)
	if f == nil {
		t.Fatal("popFlash returned nil")
	}
	if f.Message != "title is required" || f.Field != "title" {
		t.Errorf("flash = %+v", f)
	}
	if f.Values["logline"] != "kept" {
		t.Errorf("values not preserved: %+v", f.Values)
	}

	// popFlash must clear the cookie.
	var cleared bool
	for _, c := range rec2.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("flash cookie was not cleared")
	}
}

func TestPopFlash_MalformedCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: flashCookie, Value: "not base64 json %%%"})

	if f := popFlash(httptest.NewRecorder(), r); f != nil {
		t.Errorf("popFlash on garbage = %+v, want nil", f)
	}
}
