package conversation

import (
	"strconv"
	"strings"
)

// ActionKind is the callback unique carried by an inline button.
type ActionKind string

const (
	ActSaveFetched  ActionKind = "q_save"
	ActNewQuote     ActionKind = "q_new"
	ActSaveCategory ActionKind = "save_cat"
	ActMyCategory   ActionKind = "my_cat"
	ActMyPage       ActionKind = "my_page"
	ActShowCategory ActionKind = "show_cat"
	ActShowQuote    ActionKind = "quote_show"
	ActDeleteQuote  ActionKind = "quote_del"
	ActEditQuote    ActionKind = "quote_edit"
	ActCancel       ActionKind = "cancel"
	ActNoop         ActionKind = "noop"
)

// ActionKinds lists every callback unique the machine understands.
var ActionKinds = []ActionKind{
	ActSaveFetched, ActNewQuote, ActSaveCategory, ActMyCategory, ActMyPage,
	ActShowCategory, ActShowQuote, ActDeleteQuote, ActEditQuote, ActCancel, ActNoop,
}

const payloadSep = "|"

// Action is a parsed inline button press.
type Action struct {
	Kind     ActionKind
	Category string
	QuoteID  int64
	Page     int
}

// Unique returns the callback unique for the action.
func (a Action) Unique() string { return string(a.Kind) }

// Payload encodes the action arguments; ParseAction is its inverse.
func (a Action) Payload() string {
	switch a.Kind {
	case ActSaveCategory, ActMyCategory, ActShowCategory:
		return a.Category
	case ActMyPage:
		return strconv.Itoa(a.Page) + payloadSep + a.Category
	case ActShowQuote, ActDeleteQuote, ActEditQuote:
		return strconv.FormatInt(a.QuoteID, 10)
	}
	return ""
}

// ParseAction decodes a callback unique and payload.
// Unknown uniques and malformed ids report false; a bad page number is clamped to 1.
func ParseAction(unique, payload string) (Action, bool) {
	kind := ActionKind(strings.TrimSpace(unique))
	switch kind {
	case ActSaveFetched, ActNewQuote, ActCancel, ActNoop:
		return Action{Kind: kind}, true
	case ActSaveCategory, ActMyCategory, ActShowCategory:
		if payload == "" {
			return Action{}, false
		}
		return Action{Kind: kind, Category: payload}, true
	case ActMyPage:
		pageStr, cat, ok := strings.Cut(payload, payloadSep)
		if !ok || cat == "" {
			return Action{}, false
		}
		return Action{Kind: kind, Category: cat, Page: clampPage(pageStr)}, true
	case ActShowQuote, ActDeleteQuote, ActEditQuote:
		id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
		if err != nil || id <= 0 {
			return Action{}, false
		}
		return Action{Kind: kind, QuoteID: id}, true
	}
	return Action{}, false
}

func clampPage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
