package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActionRoundTrip(t *testing.T) {
	for _, a := range []Action{
		{Kind: ActSaveFetched},
		{Kind: ActSaveCategory, Category: "Точно в цель"},
		{Kind: ActMyPage, Page: 3, Category: "a|b"},
		{Kind: ActDeleteQuote, QuoteID: 42},
		{Kind: ActNoop},
	} {
		got, ok := ParseAction(a.Unique(), a.Payload())
		assert.True(t, ok, a.Unique())
		assert.Equal(t, a, got)
	}
}

func TestParseActionRejectsMalformed(t *testing.T) {
	cases := [][2]string{
		{"savequote_category_x", ""},
		{"", ""},
		{"quote_del", "abc"},
		{"quote_show", "-1"},
		{"save_cat", ""},
		{"my_page", "2"},
	}
	for _, c := range cases {
		_, ok := ParseAction(c[0], c[1])
		assert.False(t, ok, "%q %q", c[0], c[1])
	}
}

func TestParseActionClampsPage(t *testing.T) {
	for _, p := range []string{"0", "-4", "x", ""} {
		a, ok := ParseAction("my_page", p+"|cat")
		assert.True(t, ok)
		assert.Equal(t, 1, a.Page, p)
	}
}
