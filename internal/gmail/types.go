// internal/gmail/types.go
package gmail

type MessageID string
type ThreadID string
type LabelID string

// Header is one raw message header. Names are not unique: a message may carry
// several In-Reply-To or Received headers.
type Header struct {
	Name  string
	Value string
}

// Headers keeps the order the provider returned them in.
type Headers []Header

// Get returns the value of the first header named exactly name.
func (h Headers) Get(name string) (string, bool) {
	for _, hd := range h {
		if hd.Name == name {
			return hd.Value, true
		}
	}
	return "", false
}

// Count reports how many headers are named exactly name.
func (h Headers) Count(name string) int {
	n := 0
	for _, hd := range h {
		if hd.Name == name {
			n++
		}
	}
	return n
}

type Message struct {
	ID       MessageID
	ThreadID ThreadID
	Headers  Headers
	Subject  string // value of the Subject header
}

// Visibility mirrors Gmail's labelListVisibility/messageListVisibility pair.
type Visibility struct {
	LabelList   string
	MessageList string
}

// VisibilityShown shows a label both in the label list and the message list.
var VisibilityShown = Visibility{LabelList: "labelShow", MessageList: "show"}

type Label struct {
	ID         LabelID
	Name       string
	Visibility Visibility
}

type Query struct {
	Raw string // Gmail query string, already formed (e.g., `is:unread`)
}
