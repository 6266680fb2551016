package conversation

// CommandKind names a menu command or slash command.
type CommandKind string

const (
	CmdStart        CommandKind = "start"
	CmdHelp         CommandKind = "help"
	CmdGetQuote     CommandKind = "quote"
	CmdSaveQuote    CommandKind = "save"
	CmdMyQuotes     CommandKind = "mine"
	CmdShowCategory CommandKind = "category"
	CmdSearch       CommandKind = "search"
	CmdMute         CommandKind = "mute"
	CmdCancel       CommandKind = "cancel"
	CmdStats        CommandKind = "stats"
)

// Mute command arguments. An empty argument toggles.
const (
	MuteOn  = "on"
	MuteOff = "off"
)

// EventKind tags the Event variant.
type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventText
	EventCallback
)

// Event is one inbound chat turn, parsed at the transport boundary.
type Event struct {
	Kind   EventKind
	ChatID int64

	Command CommandKind
	Arg     string

	Text string

	Action Action
	// Source is the text of the message the pressed button belongs to.
	Source string
}

// CommandEvent builds a command event.
func CommandEvent(chatID int64, cmd CommandKind, arg string) Event {
	return Event{Kind: EventCommand, ChatID: chatID, Command: cmd, Arg: arg}
}

// TextEvent builds a free-text event.
func TextEvent(chatID int64, text string) Event {
	return Event{Kind: EventText, ChatID: chatID, Text: text}
}

// CallbackEvent builds a button press event.
func CallbackEvent(chatID int64, action Action, source string) Event {
	return Event{Kind: EventCallback, ChatID: chatID, Action: action, Source: source}
}
