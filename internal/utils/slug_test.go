package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Hello,   World!  ", "hello-world"},
		{"Go 1.24 released", "go-1-24-released"},
		{"Café Crème", "cafe-creme"},
		{"already-a-slug", "already-a-slug"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildPostsListCacheKey(t *testing.T) {
	cat := "  ABC  "
	got := BuildPostsListCacheKey(3, 2, 10, &cat)
	want := "posts:list:v1:gen=3:page=2:limit=10:category=abc"

	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if BuildPostsListCacheKey(3, 2, 10, nil) == got {
		t.Fatalf("expected category to change the key")
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("6f1c1d2e-8d6f-4c0e-9a3b-1f2e3d4c5b6a") {
		t.Fatalf("expected valid uuid")
	}
	if IsUUID("hello-world") {
		t.Fatalf("expected slug to be rejected")
	}
}
