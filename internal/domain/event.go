package domain

// EventKind tags what a delivered Event carries.
type EventKind string

const (
	// EventMessage is a text posted by Sender.
	EventMessage EventKind = "message"
	// EventUserLeft is queued when Sender leaves the room.
	EventUserLeft EventKind = "left"
	// EventRoomClosed is pushed to every member when the server closes the room.
	// It has no sender.
	EventRoomClosed EventKind = "closed"
)

const (
	LeftRoomNotice   = "has left the room"
	RoomClosedNotice = "room closed by server"
)

// Event is what a room delivers to its members.
type Event struct {
	Kind   EventKind `json:"kind"`
	Sender UserName  `json:"sender,omitempty"`
	Text   string    `json:"text"`
}

func MessageEvent(sender UserName, text string) Event {
	return Event{Kind: EventMessage, Sender: sender, Text: text}
}

func UserLeftEvent(sender UserName) Event {
	return Event{Kind: EventUserLeft, Sender: sender, Text: LeftRoomNotice}
}

func RoomClosedEvent() Event {
	return Event{Kind: EventRoomClosed, Text: RoomClosedNotice}
}

// HasSender is false only for the close notification.
func (e Event) HasSender() bool { return e.Kind != EventRoomClosed }

func (e Event) IsRoomClosed() bool { return e.Kind == EventRoomClosed }
