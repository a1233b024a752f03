// Package store provides storage backends for BringAlong.
//
// It defines the persistence gateway consumed by the dialogue layer and
// implements it for SQLite and PostgreSQL.
package store

import (
	"github.com/bringalong/bringalong/internal/models"
)

// Opts holds configuration for store construction.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite, a
	// connection URL for Postgres.
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithDSN sets the database DSN.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Store is the persistence gateway. Lookups return (nil, nil) when the
// entity does not exist; callers treat that as a graceful "not found",
// never as a fault.
type Store interface {
	// Parties
	CreateParty(name, code string, creatorID int64) (int64, error)
	GetPartyByID(id int64) (*models.Party, error)
	GetPartyByCode(code string) (*models.Party, error)
	PartiesForUser(userID int64) ([]models.PartySummary, error)
	// HasPartyWithName checks whether the creator already owns a party with
	// this name, case-insensitively.
	HasPartyWithName(creatorID int64, name string) (bool, error)
	// DeleteParty removes the party together with its members, fillings and
	// ratings.
	DeleteParty(partyID int64) error
	// PartiesWithDate returns every party whose date & time info is set,
	// for the daily reminder sweep.
	PartiesWithDate() ([]models.Party, error)

	// Party info
	GetPartyInfo(partyID int64) (*models.PartyInfo, error)
	// UpdatePartyInfo sets a single info field; nil clears it.
	UpdatePartyInfo(partyID int64, field models.InfoField, value *string) error

	// Members
	// AddMember enrolls a user. It reports true when the user was newly
	// added; an existing member only gets their display name refreshed.
	AddMember(partyID, userID int64, displayName string, isAdmin bool) (bool, error)
	GetMember(partyID, userID int64) (*models.Member, error)
	GetMembers(partyID int64) ([]models.Member, error)
	// SearchMembers matches display names by case-insensitive substring.
	SearchMembers(partyID int64, query string) ([]models.Member, error)
	// RemoveMember removes the member and all fillings they contributed.
	RemoveMember(partyID, userID int64) error
	PromoteAdmin(partyID, userID int64) error
	DemoteAdmin(partyID, userID int64) error
	IsAdmin(partyID, userID int64) (bool, error)

	// Fillings
	AddFilling(partyID int64, name string, addedByID int64, addedByName string) (int64, error)
	GetFillings(partyID int64) ([]models.Filling, error)
	GetUserFillings(partyID, userID int64) ([]models.Filling, error)
	GetFillingByID(id int64) (*models.Filling, error)
	// FindDuplicateFilling looks up a filling with the same name in the
	// party, case-insensitively.
	FindDuplicateFilling(partyID int64, name string) (*models.Filling, error)
	RenameFilling(id int64, newName string) error
	DeleteFilling(id int64) error

	// Ratings
	// SaveRating upserts: a later submission overwrites the earlier one.
	SaveRating(partyID, userID int64, stars int) error
	GetRatings(partyID int64) ([]models.Rating, error)
	GetUserRating(partyID, userID int64) (*models.Rating, error)

	Close() error
}
