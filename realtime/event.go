package realtime

import "time"

// Audience flavors of a delivered event.
const (
	AudienceStudent = "student"
	AudienceParent  = "parent"
)

// Event is a domain event pushed over the realtime bus. Delivery is
// fire-and-forget: recipients without an open connection miss it here and
// recover it, if at all, from the durable notification store.
type Event struct {
	Type     string    `json:"type"`
	Title    string    `json:"title,omitempty"`
	Body     string    `json:"body,omitempty"`
	Audience string    `json:"audience,omitempty"`
	TenantID string    `json:"tenant_id,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

func NewEvent(typ, title, body string) Event {
	return Event{Type: typ, Title: title, Body: body, SentAt: time.Now().UTC()}
}

// forParent returns the guardian-flavored copy of the event.
func (e Event) forParent() Event {
	e.Audience = AudienceParent
	return e
}

func (e Event) forStudent() Event {
	e.Audience = AudienceStudent
	return e
}
