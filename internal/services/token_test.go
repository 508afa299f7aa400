package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewToken_ShapeAndAlphabet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if len(tok) != TokenLength {
			t.Fatalf("token %q has length %d", tok, len(tok))
		}
		for _, c := range tok {
			if !strings.ContainsRune(tokenAlphabet, c) {
				t.Fatalf("token %q contains %q outside the alphabet", tok, c)
			}
		}
		seen[tok] = true
	}
	// 2000 draws from 62^6 collide with negligible probability.
	if len(seen) < 1990 {
		t.Fatalf("too many duplicate tokens: %d unique of 2000", len(seen))
	}
	if len(tokenAlphabet) != 62 {
		t.Fatalf("alphabet must have 62 symbols, has %d", len(tokenAlphabet))
	}
}

func TestValidToken(t *testing.T) {
	good := []string{"a", "aB3dE9", strings.Repeat("Z", 64)}
	bad := []string{"", "ab-12", "ab 12", "ab/cd", "tok€n", strings.Repeat("a", 65), "favicon.ico"}
	for _, s := range good {
		if !ValidToken(s) {
			t.Fatalf("ValidToken(%q) = false", s)
		}
	}
	for _, s := range bad {
		if ValidToken(s) {
			t.Fatalf("ValidToken(%q) = true", s)
		}
	}
}

func TestExtractURLs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"no links here", nil},
		{"see https://viralbox.in/a and http://x.y/b?c=d\nhttps://z", []string{"https://viralbox.in/a", "http://x.y/b?c=d", "https://z"}},
		{"ftp://nope https//nope", nil},
		{"(https://viralbox.in/a)", []string{"https://viralbox.in/a)"}},
	}
	for _, tc := range cases {
		if got := ExtractURLs(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ExtractURLs(%q) = %#v; want %#v", tc.in, got, tc.want)
		}
	}
}

func TestOnDomain(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://viralbox.in/abc", true},
		{"https://VIRALBOX.in/abc", true},
		{"https://go.viralbox.in/abc", true},
		{"http://viralbox.in:8080/abc", true},
		{"https://notviralbox.in/abc", false},
		{"https://viralbox.in.evil.com/abc", false},
		{"https://evil.com/viralbox.in", false},
		{"viralbox.in/abc", false},
		{"https://%zz", false},
	}
	for _, tc := range cases {
		if got := OnDomain(tc.url, "viralbox.in"); got != tc.want {
			t.Fatalf("OnDomain(%q) = %v; want %v", tc.url, got, tc.want)
		}
	}
	if OnDomain("https://viralbox.in/x", "") {
		t.Fatalf("empty domain must not match")
	}
}

func TestLongURL(t *testing.T) {
	if got := LongURL("https://w.example//", "aB3dE9"); got != "https://w.example/aB3dE9" {
		t.Fatalf("LongURL = %q", got)
	}
}
