// Package conversation maps chat events to replies, keeping the per-chat
// pending step in a state.Manager and records in a quotes.Store.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/quotebot/core/logger"
	"github.com/m3rciful/quotebot/core/telegram/format"
	"github.com/m3rciful/quotebot/core/telegram/state"
	"github.com/m3rciful/quotebot/internal/quotes"
)

// Pending steps.
const (
	StateAwaitingQuoteText state.State = "awaiting_quote_text"
	StateAwaitingCategory  state.State = "awaiting_category"
	StateAwaitingSearch    state.State = "awaiting_search_text"
	StateAwaitingEditText  state.State = "awaiting_edit_text"
)

const (
	keyDraft   = "draft"
	keyQuoteID = "quote_id"
)

// Scope selects whose quotes search and category browse see.
type Scope string

const (
	ScopeChat   Scope = "chat"
	ScopeGlobal Scope = "global"
)

// Options tunes listing sizes and visibility.
type Options struct {
	PageSize    int
	SearchLimit int
	Scope       Scope
}

// Machine is the conversation state machine. It is safe for concurrent use;
// updates of the same chat are not serialized.
type Machine struct {
	store    quotes.Store
	provider quotes.Provider
	sessions state.Manager
	opts     Options
}

// New builds a Machine. Zero options mean page size 5, search limit 10, chat scope.
func New(store quotes.Store, provider quotes.Provider, sessions state.Manager, opts Options) *Machine {
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	if opts.Scope != ScopeGlobal {
		opts.Scope = ScopeChat
	}
	return &Machine{store: store, provider: provider, sessions: sessions, opts: opts}
}

// Handle processes one event. A nil reply means nothing is sent.
// The returned error is for logging only; the reply already carries the user-facing text.
func (m *Machine) Handle(ctx context.Context, ev Event) (*Reply, error) {
	var (
		r   *Reply
		err error
	)
	switch ev.Kind {
	case EventCommand:
		r, err = m.handleCommand(ctx, ev)
	case EventText:
		r, err = m.handleText(ctx, ev)
	case EventCallback:
		r, err = m.handleCallback(ctx, ev)
	}
	if r != nil {
		r.Muted = m.store.GetMuteStatus(ctx, ev.ChatID)
	}
	return r, err
}

// InProgress reports whether the chat has a pending step.
func (m *Machine) InProgress(ctx context.Context, chatID int64) bool {
	sess, err := m.sessions.Get(ctx, chatID)
	return err == nil && sess.Active()
}

// Search returns quote texts containing text, honouring the configured scope.
func (m *Machine) Search(ctx context.Context, chatID int64, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return m.store.SearchQuotes(ctx, m.scoped(chatID), text, m.opts.SearchLimit, 0)
}

func (m *Machine) scoped(chatID int64) int64 {
	if m.opts.Scope == ScopeGlobal {
		return 0
	}
	return chatID
}

func (m *Machine) handleCommand(ctx context.Context, ev Event) (*Reply, error) {
	pending, _ := m.sessions.Get(ctx, ev.ChatID)
	if err := m.reset(ctx, ev.ChatID); err != nil {
		return m.fail(ctx, ev.ChatID, err)
	}

	switch ev.Command {
	case CmdStart:
		return &Reply{Text: textGreeting, MainMenu: true}, nil
	case CmdHelp:
		return &Reply{Text: textHelp, MainMenu: true}, nil
	case CmdGetQuote:
		return m.fetchQuote(ctx), nil
	case CmdSaveQuote:
		return m.prompt(ctx, ev.ChatID, state.Session{State: StateAwaitingQuoteText}, textAskQuote)
	case CmdSearch:
		return m.prompt(ctx, ev.ChatID, state.Session{State: StateAwaitingSearch}, textAskSearch)
	case CmdMyQuotes:
		return m.categoryMenu(ctx, ActMyCategory)
	case CmdShowCategory:
		return m.categoryMenu(ctx, ActShowCategory)
	case CmdMute:
		return m.mute(ctx, ev.ChatID, ev.Arg)
	case CmdCancel:
		if !pending.Active() {
			return textReply(textNothingToCancel), nil
		}
		return textReply(textCancelled), nil
	case CmdStats:
		st, err := m.store.Stats(ctx)
		if err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		return textReply(fmt.Sprintf(textStats, st.Quotes, st.Chats, st.Categories, st.Muted)), nil
	}
	return nil, nil
}

func (m *Machine) handleText(ctx context.Context, ev Event) (*Reply, error) {
	sess, err := m.sessions.Get(ctx, ev.ChatID)
	if err != nil {
		return m.fail(ctx, ev.ChatID, err)
	}
	text := strings.TrimSpace(ev.Text)

	switch sess.State {
	case StateAwaitingQuoteText:
		if text == "" {
			return &Reply{Text: textAskQuote, Inline: [][]Button{cancelRow()}}, nil
		}
		return m.askCategory(ctx, ev.ChatID, text)
	case StateAwaitingSearch:
		if err := m.reset(ctx, ev.ChatID); err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		found, err := m.Search(ctx, ev.ChatID, text)
		if err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		if len(found) == 0 {
			return textReply(textNothingFound), nil
		}
		return textReply(numbered(textSearchResults, found, 1)), nil
	case StateAwaitingEditText:
		id, ok := sess.Int64(keyQuoteID)
		if !ok {
			_ = m.reset(ctx, ev.ChatID)
			return textReply(textNotFound), nil
		}
		if text == "" {
			return &Reply{Text: textAskEdit, Inline: [][]Button{cancelRow()}}, nil
		}
		return m.editQuote(ctx, ev.ChatID, id, text)
	case StateAwaitingCategory:
		// A new text replaces the draft.
		if text == "" {
			return nil, nil
		}
		return m.askCategory(ctx, ev.ChatID, text)
	}
	return nil, nil
}

func (m *Machine) handleCallback(ctx context.Context, ev Event) (*Reply, error) {
	a := ev.Action
	switch a.Kind {
	case ActNoop:
		return nil, nil
	case ActSaveCategory:
		return m.saveDraft(ctx, ev.ChatID, a.Category)
	case ActSaveFetched:
		draft := parseFormattedQuote(ev.Source)
		if draft == "" {
			return m.prompt(ctx, ev.ChatID, state.Session{State: StateAwaitingQuoteText}, textAskQuote)
		}
		return m.askCategory(ctx, ev.ChatID, draft)
	case ActEditQuote:
		q, err := m.ownQuote(ctx, ev.ChatID, a.QuoteID)
		if err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		sess := state.Session{State: StateAwaitingEditText}.With(keyQuoteID, strconv.FormatInt(q.ID, 10))
		return m.prompt(ctx, ev.ChatID, sess, textAskEdit)
	case ActCancel:
		pending, _ := m.sessions.Get(ctx, ev.ChatID)
		if err := m.reset(ctx, ev.ChatID); err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		if !pending.Active() {
			return &Reply{Text: textNothingToCancel, Edit: true}, nil
		}
		return &Reply{Text: textCancelled, Edit: true}, nil
	}

	if err := m.reset(ctx, ev.ChatID); err != nil {
		return m.fail(ctx, ev.ChatID, err)
	}
	switch a.Kind {
	case ActNewQuote:
		return m.fetchQuote(ctx), nil
	case ActMyCategory:
		return m.page(ctx, ev.ChatID, a.Category, 1, false)
	case ActMyPage:
		return m.page(ctx, ev.ChatID, a.Category, a.Page, true)
	case ActShowCategory:
		return m.browse(ctx, ev.ChatID, a.Category)
	case ActShowQuote:
		q, err := m.ownQuote(ctx, ev.ChatID, a.QuoteID)
		if err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		text := `"` + q.Text + "\"\n\n" + fmt.Sprintf(textQuoteCategory, format.Deref(q.Category, textNoCategory))
		return &Reply{Text: text, Inline: quoteKeyboard(q.ID)}, nil
	case ActDeleteQuote:
		q, err := m.ownQuote(ctx, ev.ChatID, a.QuoteID)
		if err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		if err := m.store.DeleteQuoteByID(ctx, q.ID); err != nil {
			return m.fail(ctx, ev.ChatID, err)
		}
		return &Reply{Text: textDeleted, DeleteSource: true}, nil
	}
	return nil, nil
}

func (m *Machine) fetchQuote(ctx context.Context) *Reply {
	q, err := m.provider.FetchRandomQuote(ctx)
	if err != nil {
		return &Reply{Text: textProviderFailed, Inline: fetchedQuoteKeyboard()}
	}
	return &Reply{Text: FormatQuote(q), Inline: fetchedQuoteKeyboard()}
}

func (m *Machine) prompt(ctx context.Context, chatID int64, sess state.Session, text string) (*Reply, error) {
	if err := m.transition(ctx, chatID, sess); err != nil {
		return m.fail(ctx, chatID, err)
	}
	return &Reply{Text: text, Inline: [][]Button{cancelRow()}}, nil
}

func (m *Machine) askCategory(ctx context.Context, chatID int64, draft string) (*Reply, error) {
	names, err := m.store.ListCategories(ctx)
	if err != nil {
		_ = m.reset(ctx, chatID)
		logFailure(ctx, chatID, err)
		return textReply(textCategoriesError), err
	}
	sess := state.Session{State: StateAwaitingCategory}.With(keyDraft, draft)
	if err := m.transition(ctx, chatID, sess); err != nil {
		return m.fail(ctx, chatID, err)
	}
	rows := append(categoryKeyboard(names, ActSaveCategory), cancelRow())
	return &Reply{Text: textAskCategory, Inline: rows}, nil
}

func (m *Machine) saveDraft(ctx context.Context, chatID int64, category string) (*Reply, error) {
	sess, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return m.fail(ctx, chatID, err)
	}
	draft := sess.Value(keyDraft)
	if sess.State != StateAwaitingCategory || draft == "" {
		return textReply(textNoDraft), nil
	}
	if err := m.reset(ctx, chatID); err != nil {
		return m.fail(ctx, chatID, err)
	}
	id, err := m.store.SaveQuote(ctx, chatID, draft, category)
	if err != nil {
		return m.fail(ctx, chatID, err)
	}
	m.index(ctx, chatID, draft)
	logger.Info(ctx, logger.ComponentQuotes, "quote.saved",
		slog.Int64("quote_id", id),
		slog.String("category", category),
	)
	return textReply(fmt.Sprintf(textSaved, category)), nil
}

func (m *Machine) editQuote(ctx context.Context, chatID, id int64, text string) (*Reply, error) {
	if err := m.reset(ctx, chatID); err != nil {
		return m.fail(ctx, chatID, err)
	}
	q, err := m.ownQuote(ctx, chatID, id)
	if err != nil {
		return m.fail(ctx, chatID, err)
	}
	if err := m.store.UpdateQuoteByID(ctx, q.ID, text, q.Category); err != nil {
		return m.fail(ctx, chatID, err)
	}
	m.index(ctx, chatID, text)
	return textReply(textUpdated), nil
}

// index appends to the full-text table; failures are logged and dropped.
func (m *Machine) index(ctx context.Context, chatID int64, text string) {
	err := m.store.IndexText(ctx, quotes.FullTextEntry{Text: text, ChatID: chatID, Type: quotes.EntryTypeQuote})
	if err != nil {
		logger.Warn(ctx, logger.ComponentQuotes, "fts.skip", slog.String("err", err.Error()))
	}
}

func (m *Machine) categoryMenu(ctx context.Context, kind ActionKind) (*Reply, error) {
	names, err := m.store.ListCategories(ctx)
	if err != nil {
		return textReply(textCategoriesError), err
	}
	return &Reply{Text: textAskCategory, Inline: categoryKeyboard(names, kind)}, nil
}

func (m *Machine) page(ctx context.Context, chatID int64, category string, requested int, edit bool) (*Reply, error) {
	count, err := m.store.CountQuotes(ctx, chatID, &category)
	if err != nil {
		return m.fail(ctx, chatID, err)
	}
	if count == 0 {
		return &Reply{Text: fmt.Sprintf(textCategoryEmpty, category), Edit: edit}, nil
	}
	p := Paginate(count, m.opts.PageSize, requested)
	refs, err := m.store.ListQuotesPaged(ctx, chatID, &category, p.Size, p.Offset)
	if err != nil {
		return m.fail(ctx, chatID, err)
	}

	texts := make([]string, len(refs))
	rows := make([][]Button, 0, len(refs)+1)
	for i, ref := range refs {
		texts[i] = ref.Text
		label := fmt.Sprintf("%d. %s", p.Offset+i+1, truncate(ref.Text, buttonTextLimit))
		rows = append(rows, []Button{{Text: label, Action: Action{Kind: ActShowQuote, QuoteID: ref.ID}}})
	}
	rows = append(rows, pagerRow(category, p))

	header := fmt.Sprintf(textPageHeader, category, p.Number, p.Total)
	return &Reply{Text: numbered(header, texts, p.Offset+1), Inline: rows, Edit: edit}, nil
}

func (m *Machine) browse(ctx context.Context, chatID int64, category string) (*Reply, error) {
	list, err := m.store.ListCategoryQuotes(ctx, category, m.scoped(chatID))
	if err != nil {
		return m.fail(ctx, chatID, err)
	}
	if len(list) == 0 {
		return textReply(fmt.Sprintf(textCategoryEmpty, category)), nil
	}
	return textReply(numbered(fmt.Sprintf(textCategoryHeader, category), list, 1)), nil
}

func (m *Machine) mute(ctx context.Context, chatID int64, arg string) (*Reply, error) {
	var muted bool
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case MuteOn:
		muted = true
	case MuteOff:
		muted = false
	default:
		muted = !m.store.GetMuteStatus(ctx, chatID)
	}
	if err := m.store.SetMuteStatus(ctx, chatID, muted); err != nil {
		return m.fail(ctx, chatID, err)
	}
	text := textUnmuted
	if muted {
		text = textMuted
	}
	return &Reply{Text: text, MainMenu: true}, nil
}

// ownQuote hides quotes of other chats behind ErrNotFound.
func (m *Machine) ownQuote(ctx context.Context, chatID, id int64) (quotes.SavedQuote, error) {
	q, err := m.store.GetQuoteByID(ctx, id)
	if err != nil {
		return quotes.SavedQuote{}, err
	}
	if q.ChatID != chatID {
		return quotes.SavedQuote{}, quotes.ErrNotFound
	}
	return q, nil
}

func (m *Machine) transition(ctx context.Context, chatID int64, sess state.Session) error {
	if err := m.sessions.Put(ctx, chatID, sess); err != nil {
		return err
	}
	logger.Debug(ctx, logger.ComponentState, "state.set",
		slog.Int64("chat_id", chatID),
		slog.String("state", string(sess.State)),
	)
	return nil
}

func (m *Machine) reset(ctx context.Context, chatID int64) error {
	return m.sessions.Clear(ctx, chatID)
}

// fail clears the pending step and maps err to a user-facing reply.
// ErrNotFound is an expected outcome and is not returned.
func (m *Machine) fail(ctx context.Context, chatID int64, err error) (*Reply, error) {
	_ = m.reset(ctx, chatID)
	if errors.Is(err, quotes.ErrNotFound) {
		return textReply(textNotFound), nil
	}
	logFailure(ctx, chatID, err)
	return textReply(textStoreError), err
}

func logFailure(ctx context.Context, chatID int64, err error) {
	logger.Warn(ctx, logger.ComponentState, "turn.fail",
		slog.Int64("chat_id", chatID),
		slog.String("err", err.Error()),
	)
}
