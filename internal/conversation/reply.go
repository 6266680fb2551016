package conversation

// Button is an inline button bound to an action.
type Button struct {
	Text   string
	Action Action
}

// Reply is what the transport sends back for one event.
type Reply struct {
	Text   string
	Inline [][]Button
	// MainMenu attaches the persistent reply keyboard.
	MainMenu bool
	// Edit replaces the source message instead of sending a new one.
	Edit bool
	// DeleteSource removes the message the pressed button belongs to.
	DeleteSource bool
	// Muted suppresses the notification for this reply.
	Muted bool
}

func textReply(text string) *Reply {
	return &Reply{Text: text}
}
