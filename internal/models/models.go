// Package models defines the core data structures used across BringAlong.
package models

import "time"

// Validation limits shared by all text-entry dialogue steps.
const (
	// NameMaxLen caps party and filling names.
	NameMaxLen = 100
	// InfoMaxLen caps free-text party info fields.
	InfoMaxLen = 500
	// BroadcastMaxLen caps admin broadcast messages.
	BroadcastMaxLen = 1000
)

// InfoField identifies one of the optional party info fields.
type InfoField string

const (
	InfoWhen        InfoField = "info_datetime"
	InfoAddress     InfoField = "info_address"
	InfoMapLink     InfoField = "info_map_link"
	InfoDescription InfoField = "info_description"
)

// InfoFields lists all valid info fields in display order.
var InfoFields = []InfoField{InfoWhen, InfoAddress, InfoMapLink, InfoDescription}

// Valid reports whether f is a known info field.
func (f InfoField) Valid() bool {
	switch f {
	case InfoWhen, InfoAddress, InfoMapLink, InfoDescription:
		return true
	}
	return false
}

// PartyInfo holds the optional free-text info fields of a party.
// Empty string means the field is unset.
type PartyInfo struct {
	When        string
	Address     string
	MapLink     string
	Description string
}

// Get returns the value stored under field.
func (i PartyInfo) Get(field InfoField) string {
	switch field {
	case InfoWhen:
		return i.When
	case InfoAddress:
		return i.Address
	case InfoMapLink:
		return i.MapLink
	case InfoDescription:
		return i.Description
	}
	return ""
}

// IsEmpty reports whether no info field is set.
func (i PartyInfo) IsEmpty() bool {
	return i.When == "" && i.Address == "" && i.MapLink == "" && i.Description == ""
}

// Party is a coordinated event with a unique name per creator and a unique
// invite code.
type Party struct {
	ID        int64
	Name      string
	Code      string
	CreatorID int64
	CreatedAt time.Time
	Info      PartyInfo
}

// PartySummary is a party row joined with the creator's display name,
// as shown in the "my parties" list.
type PartySummary struct {
	Party
	CreatorName string
}

// Member links a user to a party with a display name and an admin flag.
// (PartyID, UserID) pairs are unique.
type Member struct {
	PartyID     int64
	UserID      int64
	DisplayName string
	IsAdmin     bool
	JoinedAt    time.Time
}

// Filling is a named contribution a member commits to bringing to a party.
// Filling names are unique per party, case-insensitively.
type Filling struct {
	ID          int64
	PartyID     int64
	Name        string
	AddedByID   int64
	AddedByName string
	CreatedAt   time.Time
}

// Rating is a member's 1-5 star rating of a party. At most one rating per
// (party, user); a later submission overwrites the earlier one.
type Rating struct {
	PartyID     int64
	UserID      int64
	DisplayName string
	Stars       int
	RatedAt     time.Time
}
