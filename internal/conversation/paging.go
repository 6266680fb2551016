package conversation

import "fmt"

// Page is one window over a chat's quotes in a category.
type Page struct {
	Number int
	Total  int
	Offset int
	Size   int
}

// Paginate clamps requested into [1, total pages] for count rows.
// With zero rows it still reports page 1 of 1.
func Paginate(count, size, requested int) Page {
	if size < 1 {
		size = 1
	}
	total := (count + size - 1) / size
	if total < 1 {
		total = 1
	}
	n := requested
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return Page{Number: n, Total: total, Offset: (n - 1) * size, Size: size}
}

// HasPrev reports whether a previous button belongs on this page.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next button belongs on this page.
func (p Page) HasNext() bool { return p.Number < p.Total }

func pagerRow(category string, p Page) []Button {
	row := make([]Button, 0, 3)
	if p.HasPrev() {
		row = append(row, Button{Text: btnPrev, Action: Action{Kind: ActMyPage, Page: p.Number - 1, Category: category}})
	}
	row = append(row, Button{Text: fmt.Sprintf(pageFormat, p.Number, p.Total), Action: Action{Kind: ActNoop}})
	if p.HasNext() {
		row = append(row, Button{Text: btnNext, Action: Action{Kind: ActMyPage, Page: p.Number + 1, Category: category}})
	}
	return row
}
