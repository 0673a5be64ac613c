package adapter

import "context"

// Button is one chat keyboard button. Data makes it an inline callback
// button, URL a link button; with neither set it is a plain reply button.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a transport-neutral keyboard description. Inline selects an
// inline keyboard; otherwise a one-shot reply keyboard is rendered.
type Keyboard struct {
	Inline bool
	Rows   [][]Button
}

// Invoice describes a platform-native payment request.
type Invoice struct {
	Title       string
	Description string
	Payload     string // opaque; carried back on the successful-payment signal
	Currency    string
	Amount      int64
}

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageKB(ctx context.Context, chatID int64, text string, kb *Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, kb *Keyboard) error
	SendInvoice(ctx context.Context, chatID int64, inv Invoice) error
	// IsChatMember reports whether the user currently belongs to the channel
	// or group identified by its @username.
	IsChatMember(ctx context.Context, chat string, userID int64) (bool, error)
	BotUsername() string
}
