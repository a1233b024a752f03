package models

// EventKind discriminates the shapes of inbound transport events.
type EventKind string

const (
	// EventText is a plain text message (or a /command when Command is set).
	EventText EventKind = "text"
	// EventButton is an inline-keyboard button tap.
	EventButton EventKind = "button"
	// EventContact is a shared contact card.
	EventContact EventKind = "contact"
	// EventLocation is a shared map location.
	EventLocation EventKind = "location"
)

// Contact is a contact card shared by a user.
type Contact struct {
	UserID    int64
	Phone     string
	FirstName string
	LastName  string
}

// Location is a geographic point shared by a user.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Event is a single inbound update, already decoded into a typed shape.
// The transport tags every event with the originating user and chat; button
// taps additionally carry the message the tapped keyboard was attached to,
// so handlers can edit it in place.
type Event struct {
	Kind      EventKind
	UserID    int64
	ChatID    int64
	MessageID int

	// UserName is the sender's display name as built by the transport.
	UserName string

	// Text is the message body for EventText.
	Text string
	// Command and CommandArgs are set when the text is a /command.
	Command     string
	CommandArgs string

	Button   *Callback
	Contact  *Contact
	Location *Location
}

// IsCommand reports whether the event is a /command message.
func (e Event) IsCommand() bool {
	return e.Kind == EventText && e.Command != ""
}

// IsPlainText reports whether the event is a non-command text message.
func (e Event) IsPlainText() bool {
	return e.Kind == EventText && e.Command == ""
}

// TappedAction reports whether the event is a button tap carrying action a.
func (e Event) TappedAction(a Action) bool {
	return e.Kind == EventButton && e.Button != nil && e.Button.Action == a
}
