package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bringalong/bringalong/internal/models"
)

// fakeStore is an in-memory store.Store used by the bot tests.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	parties  map[int64]*models.Party
	members  map[int64]map[int64]*models.Member
	fillings map[int64]*models.Filling
	ratings  map[int64]map[int64]*models.Rating
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		parties:  make(map[int64]*models.Party),
		members:  make(map[int64]map[int64]*models.Member),
		fillings: make(map[int64]*models.Filling),
		ratings:  make(map[int64]map[int64]*models.Rating),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateParty(name, code string, creatorID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.parties[id] = &models.Party{ID: id, Name: name, Code: code, CreatorID: creatorID, CreatedAt: time.Now()}
	f.members[id] = make(map[int64]*models.Member)
	return id, nil
}

func (f *fakeStore) GetPartyByID(id int64) (*models.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parties[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetPartyByCode(code string) (*models.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.parties {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PartiesForUser(userID int64) ([]models.PartySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PartySummary
	for id, p := range f.parties {
		if _, ok := f.members[id][userID]; !ok {
			continue
		}
		ps := models.PartySummary{Party: *p}
		if creator, ok := f.members[id][p.CreatorID]; ok {
			ps.CreatorName = creator.DisplayName
		}
		out = append(out, ps)
	}
	return out, nil
}

func (f *fakeStore) HasPartyWithName(creatorID int64, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.parties {
		if p.CreatorID == creatorID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteParty(partyID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.parties, partyID)
	delete(f.members, partyID)
	delete(f.ratings, partyID)
	for id, fl := range f.fillings {
		if fl.PartyID == partyID {
			delete(f.fillings, id)
		}
	}
	return nil
}

func (f *fakeStore) PartiesWithDate() ([]models.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Party
	for _, p := range f.parties {
		if p.Info.When != "" {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPartyInfo(partyID int64) (*models.PartyInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parties[partyID]
	if !ok {
		return nil, nil
	}
	info := p.Info
	return &info, nil
}

func (f *fakeStore) UpdatePartyInfo(partyID int64, field models.InfoField, value *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parties[partyID]
	if !ok {
		return fmt.Errorf("party %d not found", partyID)
	}
	v := ""
	if value != nil {
		v = *value
	}
	switch field {
	case models.InfoWhen:
		p.Info.When = v
	case models.InfoAddress:
		p.Info.Address = v
	case models.InfoMapLink:
		p.Info.MapLink = v
	case models.InfoDescription:
		p.Info.Description = v
	}
	return nil
}

func (f *fakeStore) AddMember(partyID, userID int64, displayName string, isAdmin bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[partyID] == nil {
		f.members[partyID] = make(map[int64]*models.Member)
	}
	if m, ok := f.members[partyID][userID]; ok {
		m.DisplayName = displayName
		return false, nil
	}
	f.members[partyID][userID] = &models.Member{PartyID: partyID, UserID: userID, DisplayName: displayName, IsAdmin: isAdmin, JoinedAt: time.Now()}
	return true, nil
}

func (f *fakeStore) GetMember(partyID, userID int64) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[partyID][userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) GetMembers(partyID int64) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Member
	for _, m := range f.members[partyID] {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) SearchMembers(partyID int64, query string) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Member
	for _, m := range f.members[partyID] {
		if strings.Contains(strings.ToLower(m.DisplayName), strings.ToLower(query)) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) RemoveMember(partyID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[partyID], userID)
	for id, fl := range f.fillings {
		if fl.PartyID == partyID && fl.AddedByID == userID {
			delete(f.fillings, id)
		}
	}
	return nil
}

func (f *fakeStore) PromoteAdmin(partyID, userID int64) error {
	return f.setAdmin(partyID, userID, true)
}

func (f *fakeStore) DemoteAdmin(partyID, userID int64) error {
	return f.setAdmin(partyID, userID, false)
}

func (f *fakeStore) setAdmin(partyID, userID int64, isAdmin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[partyID][userID]; ok {
		m.IsAdmin = isAdmin
	}
	return nil
}

func (f *fakeStore) IsAdmin(partyID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[partyID][userID]
	return ok && m.IsAdmin, nil
}

func (f *fakeStore) AddFilling(partyID int64, name string, addedByID int64, addedByName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.fillings[id] = &models.Filling{ID: id, PartyID: partyID, Name: name, AddedByID: addedByID, AddedByName: addedByName, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) GetFillings(partyID int64) ([]models.Filling, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Filling
	for _, fl := range f.fillings {
		if fl.PartyID == partyID {
			out = append(out, *fl)
		}
	}
	return out, nil
}

func (f *fakeStore) GetUserFillings(partyID, userID int64) ([]models.Filling, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Filling
	for _, fl := range f.fillings {
		if fl.PartyID == partyID && fl.AddedByID == userID {
			out = append(out, *fl)
		}
	}
	return out, nil
}

func (f *fakeStore) GetFillingByID(id int64) (*models.Filling, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.fillings[id]
	if !ok {
		return nil, nil
	}
	cp := *fl
	return &cp, nil
}

func (f *fakeStore) FindDuplicateFilling(partyID int64, name string) (*models.Filling, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range f.fillings {
		if fl.PartyID == partyID && strings.EqualFold(fl.Name, name) {
			cp := *fl
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) RenameFilling(id int64, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fl, ok := f.fillings[id]; ok {
		fl.Name = newName
	}
	return nil
}

func (f *fakeStore) DeleteFilling(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fillings, id)
	return nil
}

func (f *fakeStore) SaveRating(partyID, userID int64, stars int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ratings[partyID] == nil {
		f.ratings[partyID] = make(map[int64]*models.Rating)
	}
	name := ""
	if m, ok := f.members[partyID][userID]; ok {
		name = m.DisplayName
	}
	f.ratings[partyID][userID] = &models.Rating{PartyID: partyID, UserID: userID, DisplayName: name, Stars: stars, RatedAt: time.Now()}
	return nil
}

func (f *fakeStore) GetRatings(partyID int64) ([]models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Rating
	for _, r := range f.ratings[partyID] {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) GetUserRating(partyID, userID int64) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[partyID][userID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) Close() error { return nil }

type outboundMessage struct {
	ChatID   int64
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
	Edited   bool
}

// recordingSender captures outbound messages for assertions.
type recordingSender struct {
	mu       sync.Mutex
	messages []outboundMessage
	failFor  map[int64]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{failFor: make(map[int64]bool)}
}

func (r *recordingSender) SendMessage(_ context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[chatID] {
		return fmt.Errorf("delivery to %d failed", chatID)
	}
	r.messages = append(r.messages, outboundMessage{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (r *recordingSender) EditMessage(_ context.Context, chatID int64, _ int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[chatID] {
		return fmt.Errorf("delivery to %d failed", chatID)
	}
	r.messages = append(r.messages, outboundMessage{ChatID: chatID, Text: text, Keyboard: kb, Edited: true})
	return nil
}

func (r *recordingSender) BotUsername() string { return "bringalong_test_bot" }

func (r *recordingSender) last() outboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return outboundMessage{}
	}
	return r.messages[len(r.messages)-1]
}

func (r *recordingSender) sentTo(chatID int64) []outboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []outboundMessage
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func newTestApp(t *testing.T) (*App, *fakeStore, *recordingSender) {
	t.Helper()
	st := newFakeStore()
	sender := newRecordingSender()
	app, err := New(st, sender, WithNotifyDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	t.Cleanup(app.Stop)
	return app, st, sender
}

// seedParty creates a party with an admin creator and one regular member.
func seedParty(t *testing.T, st *fakeStore) (partyID int64) {
	t.Helper()
	partyID, err := st.CreateParty("Pie Night", "CODE1234", 1)
	if err != nil {
		t.Fatalf("failed to seed party: %v", err)
	}
	if _, err := st.AddMember(partyID, 1, "Alice", true); err != nil {
		t.Fatalf("failed to seed creator: %v", err)
	}
	if _, err := st.AddMember(partyID, 2, "Bob", false); err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}
	return partyID
}

func textEvent(userID int64, text string) models.Event {
	return models.Event{Kind: models.EventText, UserID: userID, ChatID: userID, UserName: "User", Text: text}
}

func tapEvent(userID int64, cb models.Callback) models.Event {
	return models.Event{Kind: models.EventButton, UserID: userID, ChatID: userID, MessageID: 10, UserName: "User", Button: &cb}
}

func locationEvent(userID int64, lat, lon float64) models.Event {
	return models.Event{Kind: models.EventLocation, UserID: userID, ChatID: userID, UserName: "User", Location: &models.Location{Latitude: lat, Longitude: lon}}
}
