// Package store provides storage backends for BringAlong.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/bringalong/bringalong/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given options. The DSN
// is a file path to the database file; its directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Parties ---

func (s *SQLiteStore) CreateParty(name, code string, creatorID int64) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO parties (name, code, creator_id, created_at) VALUES (?, ?, ?, ?)`,
		name, code, creatorID, time.Now().UTC(),
	)
	if err != nil {
		slog.Error("SQLiteStore CreateParty failed", "error", err, "creatorID", creatorID)
		return 0, fmt.Errorf("failed to insert party: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read party id: %w", err)
	}
	slog.Debug("SQLiteStore CreateParty succeeded", "partyID", id, "creatorID", creatorID)
	return id, nil
}

func (s *SQLiteStore) GetPartyByID(id int64) (*models.Party, error) {
	row := s.db.QueryRow(`SELECT `+partyColumns+` FROM parties WHERE id = ?`, id)
	p, err := scanParty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetPartyByID failed", "error", err, "partyID", id)
		return nil, fmt.Errorf("failed to query party %d: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) GetPartyByCode(code string) (*models.Party, error) {
	row := s.db.QueryRow(`SELECT `+partyColumns+` FROM parties WHERE code = ?`, code)
	p, err := scanParty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetPartyByCode failed", "error", err)
		return nil, fmt.Errorf("failed to query party by code: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) PartiesForUser(userID int64) ([]models.PartySummary, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.code, p.creator_id, p.created_at,
		       p.info_datetime, p.info_address, p.info_map_link, p.info_description,
		       COALESCE(creator_pm.display_name, '')
		FROM parties p
		JOIN party_members pm ON p.id = pm.party_id
		LEFT JOIN party_members creator_pm
			ON p.id = creator_pm.party_id AND p.creator_id = creator_pm.user_id
		WHERE pm.user_id = ?
		ORDER BY p.created_at DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore PartiesForUser query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query parties for user %d: %w", userID, err)
	}
	defer rows.Close()

	var parties []models.PartySummary
	for rows.Next() {
		var ps models.PartySummary
		var when, addr, maplink, desc sql.NullString
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Code, &ps.CreatorID, &ps.CreatedAt,
			&when, &addr, &maplink, &desc, &ps.CreatorName); err != nil {
			return nil, fmt.Errorf("failed to scan party row: %w", err)
		}
		ps.Info = models.PartyInfo{When: when.String, Address: addr.String, MapLink: maplink.String, Description: desc.String}
		parties = append(parties, ps)
	}
	return parties, rows.Err()
}

func (s *SQLiteStore) PartiesWithDate() ([]models.Party, error) {
	rows, err := s.db.Query(`SELECT ` + partyColumns + ` FROM parties WHERE info_datetime IS NOT NULL AND info_datetime != ''`)
	if err != nil {
		slog.Error("SQLiteStore PartiesWithDate query failed", "error", err)
		return nil, fmt.Errorf("failed to query dated parties: %w", err)
	}
	defer rows.Close()

	var parties []models.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party row: %w", err)
		}
		parties = append(parties, *p)
	}
	return parties, rows.Err()
}

func (s *SQLiteStore) HasPartyWithName(creatorID int64, name string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM parties WHERE creator_id = ? AND LOWER(name) = LOWER(?) LIMIT 1`,
		creatorID, name,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check party name: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) DeleteParty(partyID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM fillings WHERE party_id = ?`,
		`DELETE FROM party_members WHERE party_id = ?`,
		`DELETE FROM ratings WHERE party_id = ?`,
		`DELETE FROM parties WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, partyID); err != nil {
			slog.Error("SQLiteStore DeleteParty failed", "error", err, "partyID", partyID)
			return fmt.Errorf("failed to delete party %d: %w", partyID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit party delete: %w", err)
	}
	slog.Info("SQLiteStore DeleteParty succeeded", "partyID", partyID)
	return nil
}

// --- Party info ---

func (s *SQLiteStore) GetPartyInfo(partyID int64) (*models.PartyInfo, error) {
	var when, addr, maplink, desc sql.NullString
	err := s.db.QueryRow(
		`SELECT info_datetime, info_address, info_map_link, info_description FROM parties WHERE id = ?`,
		partyID,
	).Scan(&when, &addr, &maplink, &desc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query party info %d: %w", partyID, err)
	}
	return &models.PartyInfo{When: when.String, Address: addr.String, MapLink: maplink.String, Description: desc.String}, nil
}

func (s *SQLiteStore) UpdatePartyInfo(partyID int64, field models.InfoField, value *string) error {
	_, err := s.db.Exec(
		`UPDATE parties SET `+infoColumn(field)+` = ? WHERE id = ?`,
		value, partyID,
	)
	if err != nil {
		slog.Error("SQLiteStore UpdatePartyInfo failed", "error", err, "partyID", partyID, "field", field)
		return fmt.Errorf("failed to update party info: %w", err)
	}
	slog.Debug("SQLiteStore UpdatePartyInfo succeeded", "partyID", partyID, "field", field, "cleared", value == nil)
	return nil
}

// --- Members ---

func (s *SQLiteStore) AddMember(partyID, userID int64, displayName string, isAdmin bool) (bool, error) {
	existing, err := s.GetMember(partyID, userID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		// Already in the party: keep the display name current.
		_, err := s.db.Exec(
			`UPDATE party_members SET display_name = ? WHERE party_id = ? AND user_id = ?`,
			displayName, partyID, userID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to refresh member name: %w", err)
		}
		return false, nil
	}
	_, err = s.db.Exec(
		`INSERT INTO party_members (party_id, user_id, display_name, is_admin, joined_at) VALUES (?, ?, ?, ?, ?)`,
		partyID, userID, displayName, isAdmin, time.Now().UTC(),
	)
	if err != nil {
		slog.Error("SQLiteStore AddMember failed", "error", err, "partyID", partyID, "userID", userID)
		return false, fmt.Errorf("failed to insert member: %w", err)
	}
	slog.Debug("SQLiteStore AddMember succeeded", "partyID", partyID, "userID", userID, "isAdmin", isAdmin)
	return true, nil
}

func (s *SQLiteStore) GetMember(partyID, userID int64) (*models.Member, error) {
	row := s.db.QueryRow(
		`SELECT `+memberColumns+` FROM party_members WHERE party_id = ? AND user_id = ?`,
		partyID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) GetMembers(partyID int64) ([]models.Member, error) {
	return s.queryMembers(
		`SELECT `+memberColumns+` FROM party_members WHERE party_id = ? ORDER BY joined_at`,
		partyID,
	)
}

func (s *SQLiteStore) SearchMembers(partyID int64, query string) ([]models.Member, error) {
	return s.queryMembers(
		`SELECT `+memberColumns+` FROM party_members
		 WHERE party_id = ? AND LOWER(display_name) LIKE LOWER(?)
		 ORDER BY display_name`,
		partyID, "%"+query+"%",
	)
}

func (s *SQLiteStore) queryMembers(q string, args ...any) ([]models.Member, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *SQLiteStore) RemoveMember(partyID, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin remove transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fillings WHERE party_id = ? AND added_by_id = ?`, partyID, userID); err != nil {
		return fmt.Errorf("failed to delete member fillings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM party_members WHERE party_id = ? AND user_id = ?`, partyID, userID); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member removal: %w", err)
	}
	slog.Info("SQLiteStore RemoveMember succeeded", "partyID", partyID, "userID", userID)
	return nil
}

func (s *SQLiteStore) PromoteAdmin(partyID, userID int64) error {
	return s.setAdmin(partyID, userID, true)
}

func (s *SQLiteStore) DemoteAdmin(partyID, userID int64) error {
	return s.setAdmin(partyID, userID, false)
}

func (s *SQLiteStore) setAdmin(partyID, userID int64, isAdmin bool) error {
	_, err := s.db.Exec(
		`UPDATE party_members SET is_admin = ? WHERE party_id = ? AND user_id = ?`,
		isAdmin, partyID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsAdmin(partyID, userID int64) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRow(
		`SELECT is_admin FROM party_members WHERE party_id = ? AND user_id = ?`,
		partyID, userID,
	).Scan(&isAdmin)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query admin flag: %w", err)
	}
	return isAdmin, nil
}

// --- Fillings ---

func (s *SQLiteStore) AddFilling(partyID int64, name string, addedByID int64, addedByName string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO fillings (party_id, name, added_by_id, added_by_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		partyID, name, addedByID, addedByName, time.Now().UTC(),
	)
	if err != nil {
		slog.Error("SQLiteStore AddFilling failed", "error", err, "partyID", partyID)
		return 0, fmt.Errorf("failed to insert filling: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read filling id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetFillings(partyID int64) ([]models.Filling, error) {
	return s.queryFillings(
		`SELECT `+fillingColumns+` FROM fillings WHERE party_id = ? ORDER BY created_at`,
		partyID,
	)
}

func (s *SQLiteStore) GetUserFillings(partyID, userID int64) ([]models.Filling, error) {
	return s.queryFillings(
		`SELECT `+fillingColumns+` FROM fillings WHERE party_id = ? AND added_by_id = ? ORDER BY created_at`,
		partyID, userID,
	)
}

func (s *SQLiteStore) queryFillings(q string, args ...any) ([]models.Filling, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fillings: %w", err)
	}
	defer rows.Close()

	var fillings []models.Filling
	for rows.Next() {
		f, err := scanFilling(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filling row: %w", err)
		}
		fillings = append(fillings, *f)
	}
	return fillings, rows.Err()
}

func (s *SQLiteStore) GetFillingByID(id int64) (*models.Filling, error) {
	row := s.db.QueryRow(`SELECT `+fillingColumns+` FROM fillings WHERE id = ?`, id)
	f, err := scanFilling(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query filling %d: %w", id, err)
	}
	return f, nil
}

func (s *SQLiteStore) FindDuplicateFilling(partyID int64, name string) (*models.Filling, error) {
	row := s.db.QueryRow(
		`SELECT `+fillingColumns+` FROM fillings WHERE party_id = ? AND LOWER(name) = LOWER(?)`,
		partyID, name,
	)
	f, err := scanFilling(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate filling: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) RenameFilling(id int64, newName string) error {
	_, err := s.db.Exec(`UPDATE fillings SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("failed to rename filling %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteFilling(id int64) error {
	_, err := s.db.Exec(`DELETE FROM fillings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete filling %d: %w", id, err)
	}
	return nil
}

// --- Ratings ---

func (s *SQLiteStore) SaveRating(partyID, userID int64, stars int) error {
	_, err := s.db.Exec(
		`INSERT INTO ratings (party_id, user_id, stars, rated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(party_id, user_id) DO UPDATE SET stars = excluded.stars, rated_at = excluded.rated_at`,
		partyID, userID, stars, time.Now().UTC(),
	)
	if err != nil {
		slog.Error("SQLiteStore SaveRating failed", "error", err, "partyID", partyID, "userID", userID)
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRatings(partyID int64) ([]models.Rating, error) {
	rows, err := s.db.Query(
		`SELECT r.party_id, r.user_id, COALESCE(pm.display_name, ''), r.stars, r.rated_at
		 FROM ratings r
		 LEFT JOIN party_members pm ON r.party_id = pm.party_id AND r.user_id = pm.user_id
		 WHERE r.party_id = ? ORDER BY r.rated_at`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.PartyID, &r.UserID, &r.DisplayName, &r.Stars, &r.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func (s *SQLiteStore) GetUserRating(partyID, userID int64) (*models.Rating, error) {
	var r models.Rating
	err := s.db.QueryRow(
		`SELECT party_id, user_id, stars, rated_at FROM ratings WHERE party_id = ? AND user_id = ?`,
		partyID, userID,
	).Scan(&r.PartyID, &r.UserID, &r.Stars, &r.RatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user rating: %w", err)
	}
	return &r, nil
}
