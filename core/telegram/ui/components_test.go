package ui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewArticle(t *testing.T) {
	short := NewArticle("0", "Коротко")
	if short.Title != "Коротко" || short.Text != "Коротко" || short.ResultID() != "0" {
		t.Fatalf("article = %+v", short)
	}

	long := strings.Repeat("ж", ArticleTitleLimit+5)
	a := NewArticle("1", long)
	if a.Text != long {
		t.Fatal("message text must not be shortened")
	}
	if n := utf8.RuneCountInString(a.Title); n != ArticleTitleLimit {
		t.Fatalf("title runes = %d", n)
	}
	if !strings.HasSuffix(a.Title, "…") {
		t.Fatalf("title = %q", a.Title)
	}
}
