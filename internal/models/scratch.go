package models

import "time"

// Scratch is the accumulated input of an in-progress dialogue. Each dialogue
// has its own concrete scratch type, constructed fresh when the dialogue
// starts and threaded through every step transition.
type Scratch interface {
	isScratch()
}

// CreatePartyScratch carries no state: the only input is the typed name.
type CreatePartyScratch struct{}

// AddFillingScratch remembers which party the filling is being added to.
type AddFillingScratch struct {
	PartyID int64
}

// RenameFillingScratch remembers the filling being renamed and its party.
type RenameFillingScratch struct {
	FillingID int64
	PartyID   int64
}

// SearchMemberScratch remembers which party's member list is being searched.
type SearchMemberScratch struct {
	PartyID int64
}

// SetInfoScratch is the state of the info-editing dialogue: the target field
// plus, for the date & time field, the calendar cursor, the picked date and
// the time-grid page.
type SetInfoScratch struct {
	PartyID int64
	Field   InfoField

	CalYear  int
	CalMonth time.Month

	PickedDate string // "2006-01-02", set once a calendar day is tapped

	TimePage int
}

// BroadcastScratch remembers which party the admin is broadcasting to.
type BroadcastScratch struct {
	PartyID int64
}

func (CreatePartyScratch) isScratch()   {}
func (AddFillingScratch) isScratch()    {}
func (RenameFillingScratch) isScratch() {}
func (SearchMemberScratch) isScratch()  {}
func (SetInfoScratch) isScratch()       {}
func (BroadcastScratch) isScratch()     {}
