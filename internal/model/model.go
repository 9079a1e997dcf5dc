package model

import "time"

// Event is a raw calendar row as returned by an event source, before
// normalization. All-day events carry UTC midnight boundaries; timed events
// carry absolute instants.
type Event struct {
	ID         int64  // event identity, unique within its source kind
	CalendarID string // source calendar identifier (allow-list key)

	Title       string
	Description string
	Location    string

	Start time.Time
	End   time.Time

	AllDay   bool
	HasAlarm bool // at least one reminder is attached
}

// AnniversaryType mirrors the contact-event type codes of the upstream
// address book schema. The numeric values are part of the source contract.
type AnniversaryType int

const (
	TypeCustom      AnniversaryType = 0
	TypeAnniversary AnniversaryType = 1
	TypeOther       AnniversaryType = 2
	TypeBirthday    AnniversaryType = 3
)

// Anniversary is a raw contact-event row. StartDate is kept as the stored
// string; parsing it is the normalizer's job since the shapes vary (with or
// without year, several ISO-8601 variants).
type Anniversary struct {
	ContactID   int64
	DisplayName string
	StartDate   string
	Type        AnniversaryType
	Label       string // used verbatim when Type is TypeCustom
}

// Item is the unit of display. Items are immutable once constructed; an
// Item never changes after it has been placed in a store.
type Item struct {
	ID     int64
	Title  string
	Detail string

	Start time.Time
	End   time.Time

	AllDay      bool
	Anniversary bool
}

// ClickTarget describes what the rendering layer should open when an item
// is activated.
type ClickTarget struct {
	Kind string `json:"kind"` // "event" or "contact"
	ID   int64  `json:"id"`

	// Start/End accompany event targets so viewers land on the right
	// instance of the event. Zero for contact targets.
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// Target returns the click target descriptor for the item.
func (it Item) Target() ClickTarget {
	if it.Anniversary {
		return ClickTarget{Kind: "contact", ID: it.ID}
	}
	return ClickTarget{Kind: "event", ID: it.ID, Start: it.Start, End: it.End}
}
