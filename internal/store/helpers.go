package store

import (
	"database/sql"
	"fmt"

	"github.com/bringalong/bringalong/internal/models"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const partyColumns = "id, name, code, creator_id, created_at, info_datetime, info_address, info_map_link, info_description"

func scanParty(s scanner) (*models.Party, error) {
	var p models.Party
	var when, addr, maplink, desc sql.NullString
	err := s.Scan(&p.ID, &p.Name, &p.Code, &p.CreatorID, &p.CreatedAt, &when, &addr, &maplink, &desc)
	if err != nil {
		return nil, err
	}
	p.Info = models.PartyInfo{
		When:        when.String,
		Address:     addr.String,
		MapLink:     maplink.String,
		Description: desc.String,
	}
	return &p, nil
}

const memberColumns = "party_id, user_id, display_name, is_admin, joined_at"

func scanMember(s scanner) (*models.Member, error) {
	var m models.Member
	if err := s.Scan(&m.PartyID, &m.UserID, &m.DisplayName, &m.IsAdmin, &m.JoinedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

const fillingColumns = "id, party_id, name, added_by_id, added_by_name, created_at"

func scanFilling(s scanner) (*models.Filling, error) {
	var f models.Filling
	if err := s.Scan(&f.ID, &f.PartyID, &f.Name, &f.AddedByID, &f.AddedByName, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// infoColumn maps a validated info field to its column name. Callers must
// have checked field.Valid(); the panic guards against SQL built from an
// unchecked string.
func infoColumn(field models.InfoField) string {
	if !field.Valid() {
		panic(fmt.Sprintf("store: invalid info field %q", field))
	}
	return string(field)
}
