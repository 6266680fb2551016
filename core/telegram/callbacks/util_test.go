package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data, unique, payload string
	}{
		{"\fmy_page|2|Повседневное", "my_page", "2|Повседневное"},
		{"\fq_save", "q_save", ""},
		{"\fquote_del|17", "quote_del", "17"},
		{"plain", "plain", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(&tele.Callback{Data: tc.data})
		if u != tc.unique || p != tc.payload {
			t.Errorf("ParseCallbackData(%q) = %q, %q; want %q, %q", tc.data, u, p, tc.unique, tc.payload)
		}
	}
}

func TestSplitPrefersRoutedUnique(t *testing.T) {
	u, p := Split(&tele.Callback{Unique: "save_cat", Data: "Такое себе"})
	if u != "save_cat" || p != "Такое себе" {
		t.Fatalf("Split = %q, %q", u, p)
	}
	if u, p := Split(nil); u != "" || p != "" {
		t.Fatalf("Split(nil) = %q, %q", u, p)
	}
}
