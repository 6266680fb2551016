package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tg "github.com/m3rciful/quotebot/core/telegram"
	"github.com/m3rciful/quotebot/core/telegram/ui"
	"github.com/m3rciful/quotebot/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	text string
	opts *tele.SendOptions
	edit bool
}

type fakeContext struct {
	tele.Context
	upd     tele.Update
	store   map[string]any
	sent    []sent
	deleted int
	answer  *tele.QueryResponse
}

func newContext(upd tele.Update) *fakeContext {
	return &fakeContext{upd: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update       { return f.upd }
func (f *fakeContext) Callback() *tele.Callback  { return f.upd.Callback }
func (f *fakeContext) Query() *tele.Query        { return f.upd.Query }
func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }

func (f *fakeContext) Message() *tele.Message {
	if f.upd.Callback != nil {
		return f.upd.Callback.Message
	}
	return f.upd.Message
}

func (f *fakeContext) Chat() *tele.Chat {
	if m := f.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.upd.Callback != nil:
		return f.upd.Callback.Sender
	case f.upd.Query != nil:
		return f.upd.Query.Sender
	case f.upd.Message != nil:
		return f.upd.Message.Sender
	}
	return nil
}

func (f *fakeContext) Text() string {
	if m := f.Message(); m != nil {
		return m.Text
	}
	return ""
}

func (f *fakeContext) record(what any, edit bool, opts []any) {
	s := sent{text: what.(string), edit: edit}
	if len(opts) > 0 {
		s.opts, _ = opts[0].(*tele.SendOptions)
	}
	f.sent = append(f.sent, s)
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.record(what, false, opts)
	return nil
}

func (f *fakeContext) EditOrSend(what any, opts ...any) error {
	f.record(what, true, opts)
	return nil
}

func (f *fakeContext) Delete() error {
	f.deleted++
	return nil
}

func (f *fakeContext) Answer(resp *tele.QueryResponse) error {
	f.answer = resp
	return nil
}

type fakeMachine struct {
	events  []conversation.Event
	reply   *conversation.Reply
	err     error
	pending bool
	found   []string
	query   struct {
		chatID int64
		text   string
	}
}

func (m *fakeMachine) Handle(_ context.Context, ev conversation.Event) (*conversation.Reply, error) {
	m.events = append(m.events, ev)
	return m.reply, m.err
}

func (m *fakeMachine) InProgress(context.Context, int64) bool { return m.pending }

func (m *fakeMachine) Search(_ context.Context, chatID int64, text string) ([]string, error) {
	m.query.chatID, m.query.text = chatID, text
	return m.found, nil
}

func messageUpdate(chatID int64, text, payload string) tele.Update {
	return tele.Update{ID: 1, Message: &tele.Message{
		Text:    text,
		Payload: payload,
		Chat:    &tele.Chat{ID: chatID},
		Sender:  &tele.User{ID: chatID},
	}}
}

func callbackUpdate(chatID int64, data, source string) tele.Update {
	return tele.Update{ID: 2, Callback: &tele.Callback{
		Data:    data,
		Sender:  &tele.User{ID: chatID},
		Message: &tele.Message{ID: 10, Text: source, Chat: &tele.Chat{ID: chatID}},
	}}
}

func TestMarkupInlineRows(t *testing.T) {
	r := &conversation.Reply{Inline: [][]conversation.Button{
		{{Text: "Удалить", Action: conversation.Action{Kind: conversation.ActDeleteQuote, QuoteID: 42}}},
		{{Text: "▶️", Action: conversation.Action{Kind: conversation.ActMyPage, Page: 2, Category: "Повседневное"}}},
	}, MainMenu: true}

	m := Markup(r)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "quote_del", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "42", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "my_page", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "2|Повседневное", m.InlineKeyboard[1][0].Data)
	assert.Empty(t, m.ReplyKeyboard, "inline rows take precedence over the main menu")
}

func TestMarkupMainMenuFollowsMute(t *testing.T) {
	m := Markup(&conversation.Reply{MainMenu: true, Muted: true})
	require.NotNil(t, m)
	require.Len(t, m.ReplyKeyboard, 3)
	assert.Equal(t, conversation.LabelUnmute, m.ReplyKeyboard[2][0].Text)
	assert.True(t, m.ResizeKeyboard)

	assert.Nil(t, Markup(&conversation.Reply{Text: "plain"}))
	assert.Nil(t, Markup(nil))
}

func TestRenderSendsWithMute(t *testing.T) {
	c := newContext(messageUpdate(5, "/quote", ""))
	require.NoError(t, Render(c, &conversation.Reply{Text: "hi", Muted: true}))
	require.Len(t, c.sent, 1)
	assert.Equal(t, "hi", c.sent[0].text)
	assert.False(t, c.sent[0].edit)
	assert.True(t, c.sent[0].opts.DisableNotification)

	require.NoError(t, Render(c, nil))
	assert.Len(t, c.sent, 1)
}

func TestRenderEditAndDelete(t *testing.T) {
	c := newContext(callbackUpdate(5, "\fquote_del|3", "quote"))
	require.NoError(t, Render(c, &conversation.Reply{Text: "Цитата удалена.", DeleteSource: true}))
	assert.Equal(t, 1, c.deleted)
	require.Len(t, c.sent, 1)
	assert.False(t, c.sent[0].edit)

	require.NoError(t, Render(c, &conversation.Reply{Text: "page", Edit: true}))
	assert.True(t, c.sent[1].edit)

	msg := newContext(messageUpdate(5, "x", ""))
	require.NoError(t, Render(msg, &conversation.Reply{Text: "no source", Edit: true}))
	assert.False(t, msg.sent[0].edit)
}

func TestCommandMapsMuteLabels(t *testing.T) {
	m := &fakeMachine{reply: &conversation.Reply{Text: "ok"}}
	h := New(m)
	handler := h.command(conversation.CmdMute)

	require.NoError(t, handler(newContext(messageUpdate(7, conversation.LabelMute, ""))))
	require.NoError(t, handler(newContext(messageUpdate(7, conversation.LabelUnmute, ""))))
	require.NoError(t, handler(newContext(messageUpdate(7, "/mute", ""))))
	require.NoError(t, handler(newContext(messageUpdate(7, "/mute on", " on "))))

	require.Len(t, m.events, 4)
	assert.Equal(t, conversation.MuteOn, m.events[0].Arg)
	assert.Equal(t, conversation.MuteOff, m.events[1].Arg)
	assert.Equal(t, "", m.events[2].Arg)
	assert.Equal(t, conversation.MuteOn, m.events[3].Arg)
	assert.Equal(t, int64(7), m.events[0].ChatID)
	assert.Equal(t, conversation.EventCommand, m.events[0].Kind)
}

func TestCallbackParsesActionAndSource(t *testing.T) {
	m := &fakeMachine{reply: &conversation.Reply{Text: "ok"}}
	h := New(m)

	c := newContext(callbackUpdate(9, "\fmy_page|3|Точно в цель", "list"))
	require.NoError(t, h.Callback(c))
	require.Len(t, m.events, 1)
	ev := m.events[0]
	assert.Equal(t, conversation.EventCallback, ev.Kind)
	assert.Equal(t, conversation.ActMyPage, ev.Action.Kind)
	assert.Equal(t, 3, ev.Action.Page)
	assert.Equal(t, "Точно в цель", ev.Action.Category)
	assert.Equal(t, "list", ev.Source)
	assert.Equal(t, int64(9), ev.ChatID)
}

func TestCallbackDropsMalformed(t *testing.T) {
	m := &fakeMachine{}
	h := New(m)
	for _, data := range []string{"\fquote_del|abc", "\fbogus|1", "\fsave_cat"} {
		c := newContext(callbackUpdate(9, data, ""))
		require.NoError(t, h.Callback(c))
		assert.Empty(t, c.sent)
	}
	assert.Empty(t, m.events)
}

func TestDispatchKeepsMachineError(t *testing.T) {
	boom := errors.New("store down")
	m := &fakeMachine{reply: &conversation.Reply{Text: "Произошла ошибка. Попробуйте ещё раз."}, err: boom}
	c := newContext(messageUpdate(1, "текст", ""))

	err := New(m).ManagerHandler(c)
	assert.ErrorIs(t, err, boom)
	require.Len(t, c.sent, 1, "the error reply is still delivered")
	assert.Equal(t, conversation.EventText, m.events[0].Kind)
	assert.Equal(t, "текст", m.events[0].Text)
}

func TestInProgressWithoutChat(t *testing.T) {
	m := &fakeMachine{pending: true}
	h := New(m)
	assert.True(t, h.InProgress(newContext(messageUpdate(1, "x", ""))))
	assert.False(t, h.InProgress(newContext(tele.Update{})))
}

func TestInlineQueryAnswersPersonalResults(t *testing.T) {
	long := strings.Repeat("я", ui.ArticleTitleLimit+10)
	m := &fakeMachine{found: []string{"short", long}}
	c := newContext(tele.Update{Query: &tele.Query{Text: "я", Sender: &tele.User{ID: 77}}})

	require.NoError(t, New(m).InlineQuery(c))
	assert.Equal(t, int64(77), m.query.chatID)
	assert.Equal(t, "я", m.query.text)
	require.NotNil(t, c.answer)
	assert.True(t, c.answer.IsPersonal)
	require.Len(t, c.answer.Results, 2)

	article := c.answer.Results[1].(*tele.ArticleResult)
	assert.Equal(t, long, article.Text)
	assert.Equal(t, ui.ArticleTitleLimit, len([]rune(article.Title)))
	assert.Equal(t, "1", article.ResultID())
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 {
		f.sent = append(f.sent, sent{text: "toast:" + resp[0].Text})
	}
	return nil
}

func TestRateLimitedReply(t *testing.T) {
	msg := newContext(messageUpdate(1, "x", ""))
	require.NoError(t, RateLimited(msg))
	require.Len(t, msg.sent, 1)
	assert.Equal(t, textRateLimited, msg.sent[0].text)

	cb := newContext(callbackUpdate(1, "\fq_new", ""))
	require.NoError(t, RateLimited(cb))
	require.Len(t, cb.sent, 1)
	assert.Equal(t, "toast:"+textRateLimited, cb.sent[0].text)
}

func TestRegisterCoversActionsAndAliases(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, New(&fakeMachine{}).Register(reg))

	for _, kind := range conversation.ActionKinds {
		_, ok := reg.GetCallback(string(kind))
		assert.True(t, ok, "callback %s", kind)
	}
	for _, label := range []string{
		conversation.LabelGetQuote, conversation.LabelSaveQuote, conversation.LabelMyQuotes,
		conversation.LabelShowCategory, conversation.LabelSearch,
		conversation.LabelMute, conversation.LabelUnmute,
	} {
		_, _, ok := reg.LookupCommand(label)
		assert.True(t, ok, "alias %q", label)
	}
	key, cmd, ok := reg.LookupCommand("/stats")
	require.True(t, ok)
	assert.Equal(t, "/stats", key)
	assert.True(t, cmd.AdminOnly)
}
