package ticket

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticket-bot/events"
	"ticket-bot/storage"
)

type accessRule struct {
	channelID   string
	principalID string
	kind        discordgo.PermissionOverwriteType
	allow       int64
	deny        int64
}

type sentFile struct {
	channelID string
	filename  string
	content   string
}

// fakeTransport records every transport call and can be told to fail
// channel creation.
type fakeTransport struct {
	failCreate bool

	createdChannels []string
	deletedChannels []string
	sentComplex     []string
	sentFiles       []sentFile
	rules           []accessRule
	removedRules    []string
	restricted      []string
	history         []*discordgo.Message
	nextChannelID   string
}

func (f *fakeTransport) SendMessage(channelID, content string) (string, error) {
	return "m1", nil
}

func (f *fakeTransport) SendComplex(channelID string, msg *discordgo.MessageSend) (string, error) {
	f.sentComplex = append(f.sentComplex, channelID)
	return "m1", nil
}

func (f *fakeTransport) SendFile(channelID, content, filename string, file io.Reader) error {
	data, _ := io.ReadAll(file)
	f.sentFiles = append(f.sentFiles, sentFile{channelID: channelID, filename: filename, content: string(data)})
	return nil
}

func (f *fakeTransport) CreateChannel(guildID, parentID, name string, overwrites []*discordgo.PermissionOverwrite) (string, error) {
	if f.failCreate {
		return "", errors.New("missing permissions")
	}
	id := f.nextChannelID
	if id == "" {
		id = "chan-1"
	}
	f.createdChannels = append(f.createdChannels, name)
	return id, nil
}

func (f *fakeTransport) DeleteChannel(channelID string) error {
	f.deletedChannels = append(f.deletedChannels, channelID)
	return nil
}

func (f *fakeTransport) SetAccessRule(channelID, principalID string, kind discordgo.PermissionOverwriteType, allow, deny int64) error {
	f.rules = append(f.rules, accessRule{channelID, principalID, kind, allow, deny})
	return nil
}

func (f *fakeTransport) RemoveAccessRule(channelID, principalID string) error {
	f.removedRules = append(f.removedRules, principalID)
	return nil
}

func (f *fakeTransport) FetchHistory(channelID, beforeID string, limit int) ([]*discordgo.Message, error) {
	if beforeID != "" {
		return nil, nil
	}
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeTransport) RestrictUser(guildID, userID string, until time.Time) error {
	f.restricted = append(f.restricted, userID)
	return nil
}

type fakeSink struct {
	published []events.Event
}

func (f *fakeSink) Publish(ev events.Event) {
	f.published = append(f.published, ev)
}

// fakeDB records archive writes in memory.
type fakeDB struct {
	transcripts []storage.TranscriptRecord
	ticketEvs   []storage.TicketEvent
}

func (f *fakeDB) Init() error  { return nil }
func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) SaveTranscript(rec storage.TranscriptRecord) error {
	f.transcripts = append(f.transcripts, rec)
	return nil
}

func (f *fakeDB) AddTicketEvent(ev storage.TicketEvent) error {
	f.ticketEvs = append(f.ticketEvs, ev)
	return nil
}

// TicketEvents returns newest-first, like the SQLite and Mongo
// backends.
func (f *fakeDB) TicketEvents(guildID, ticketID string, limit int) ([]storage.TicketEvent, error) {
	var out []storage.TicketEvent
	for i := len(f.ticketEvs) - 1; i >= 0 && len(out) < limit; i-- {
		ev := f.ticketEvs[i]
		if ev.GuildID == guildID && ev.TicketID == ticketID {
			out = append(out, ev)
		}
	}
	return out, nil
}

var testSetup = storage.GuildSetup{
	TranscriptsChannel: "log-chan",
	MiddlemanRole:      "mm-role",
	IndexStaffRole:     "index-role",
	TicketCategory:     "cat-1",
	StaffRole:          "staff-role",
}

func newTestStore(t *testing.T, setup storage.GuildSetup) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.json"), nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Update(func(d *storage.Document) error {
		d.Guild("g1").Setup = setup
		return nil
	}))
	return store
}

func seedTicket(t *testing.T, store *storage.Store, tk storage.Ticket) {
	t.Helper()
	require.NoError(t, store.Update(func(d *storage.Document) error {
		rec := tk
		d.Tickets[tk.ChannelID] = &rec
		return nil
	}))
}

func TestCreateWithoutCategory(t *testing.T) {
	store := newTestStore(t, storage.GuildSetup{})
	f := NewFactory(store, &fakeTransport{}, &fakeSink{}, zap.NewNop())

	_, err := f.Create("g1", "u1", "alice", KindTrade, TradeForm("bob", "sword for coins", "yes"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateRecordsTicket(t *testing.T) {
	store := newTestStore(t, testSetup)
	tr := &fakeTransport{}
	sink := &fakeSink{}
	f := NewFactory(store, tr, sink, zap.NewNop())

	tk, err := f.Create("g1", "u1", "Alice Smith", KindTrade, TradeForm("bob", "sword for coins", "yes"))
	require.NoError(t, err)

	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "trade-alice-smith", tk.ChannelName)
	assert.Equal(t, "u1", tk.RequesterID)
	assert.Empty(t, tk.ClaimedBy)

	got, ok := store.Ticket(tk.ChannelID)
	require.True(t, ok)
	assert.Equal(t, tk.ID, got.ID)

	require.Len(t, tr.sentComplex, 1, "opening message posted in the new channel")
	require.Len(t, sink.published, 1)
	assert.Equal(t, events.TicketOpened, sink.published[0].Type)
	assert.Equal(t, "trade", sink.published[0].Kind)
}

func TestCreateFailureLeavesNoRecord(t *testing.T) {
	store := newTestStore(t, testSetup)
	tr := &fakeTransport{failCreate: true}
	sink := &fakeSink{}
	f := NewFactory(store, tr, sink, zap.NewNop())

	_, err := f.Create("g1", "u1", "alice", KindTrade, TradeForm("bob", "details", ""))
	require.Error(t, err)

	store.View(func(d *storage.Document) {
		assert.Empty(t, d.Tickets)
	})
	assert.Empty(t, sink.published)
}

func TestAccessRules(t *testing.T) {
	rules := accessRules("g1", "u1", KindTrade, testSetup)

	byID := map[string]*discordgo.PermissionOverwrite{}
	for _, r := range rules {
		byID[r.ID] = r
	}

	require.Contains(t, byID, "g1")
	assert.Equal(t, int64(discordgo.PermissionViewChannel), byID["g1"].Deny, "everyone denied")

	require.Contains(t, byID, "u1")
	assert.Equal(t, permViewPost, byID["u1"].Allow)

	require.Contains(t, byID, "mm-role")
	assert.Equal(t, permViewOnly, byID["mm-role"].Allow, "staff can read, not post")

	// Trade tickets do not mention the index staff at all.
	assert.NotContains(t, byID, "index-role")

	indexRules := accessRules("g1", "u1", KindIndex, testSetup)
	found := false
	for _, r := range indexRules {
		if r.ID == "index-role" {
			found = true
			assert.Equal(t, permViewPost, r.Allow)
		}
	}
	assert.True(t, found, "index staff can post in index tickets")
}

func TestClaimLifecycle(t *testing.T) {
	store := newTestStore(t, testSetup)
	tr := &fakeTransport{}
	sink := &fakeSink{}
	db := &fakeDB{}
	m := NewManager(store, tr, db, sink, zap.NewNop(), 100)

	seedTicket(t, store, storage.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", ChannelName: "trade-alice",
		RequesterID: "u1", Kind: "trade", CreatedAt: time.Now(),
	})

	// Non-staff cannot claim.
	err := m.Claim("c1", "rando", []string{"some-role"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, m.Claim("c1", "staff1", []string{"mm-role"}))
	got, _ := store.Ticket("c1")
	assert.Equal(t, "staff1", got.ClaimedBy)

	// Second claim is rejected even for staff.
	err = m.Claim("c1", "staff2", []string{"staff-role"})
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// Only the claimant can release.
	err = m.Unclaim("c1", "staff2")
	assert.ErrorIs(t, err, ErrNotClaimant)

	require.NoError(t, m.Unclaim("c1", "staff1"))
	got, _ = store.Ticket("c1")
	assert.Empty(t, got.ClaimedBy)

	// Claim removed the claimant's personal overwrite on release.
	assert.Contains(t, tr.removedRules, "staff1")

	require.Len(t, sink.published, 2)
	assert.Equal(t, events.TicketClaimed, sink.published[0].Type)
	assert.Equal(t, events.TicketUnclaimed, sink.published[1].Type)

	// The audit trail arrives newest-first.
	evs, err := m.AuditTrail("c1", 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "unclaim", evs[0].Action)
	assert.Equal(t, "claim", evs[1].Action)
}

func TestClaimOnNonTicketChannel(t *testing.T) {
	store := newTestStore(t, testSetup)
	m := NewManager(store, &fakeTransport{}, nil, &fakeSink{}, zap.NewNop(), 100)

	assert.ErrorIs(t, m.Claim("random-chan", "staff1", []string{"mm-role"}), ErrNotTicket)
	assert.ErrorIs(t, m.Unclaim("random-chan", "staff1"), ErrNotTicket)
	assert.ErrorIs(t, m.Close("random-chan", "staff1", []string{"mm-role"}), ErrNotTicket)
}

func TestTransfer(t *testing.T) {
	store := newTestStore(t, testSetup)
	tr := &fakeTransport{}
	m := NewManager(store, tr, nil, &fakeSink{}, zap.NewNop(), 100)

	seedTicket(t, store, storage.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", RequesterID: "u1", CreatedAt: time.Now(),
	})
	require.NoError(t, m.Claim("c1", "staff1", []string{"mm-role"}))

	// The new claimant must be staff-capable too.
	err := m.Transfer("c1", "staff1", "rando", []string{"some-role"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Only the claimant can hand the claim over.
	err = m.Transfer("c1", "staff2", "staff3", []string{"staff-role"})
	assert.ErrorIs(t, err, ErrNotClaimant)

	require.NoError(t, m.Transfer("c1", "staff1", "staff2", []string{"staff-role"}))
	got, _ := store.Ticket("c1")
	assert.Equal(t, "staff2", got.ClaimedBy)
}

func TestAddUser(t *testing.T) {
	store := newTestStore(t, testSetup)
	tr := &fakeTransport{}
	m := NewManager(store, tr, nil, &fakeSink{}, zap.NewNop(), 100)

	seedTicket(t, store, storage.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", RequesterID: "u1", CreatedAt: time.Now(),
	})

	assert.ErrorIs(t, m.AddUser("c1", "rando", []string{"x"}, "u9"), ErrNotAuthorized)

	require.NoError(t, m.AddUser("c1", "staff1", []string{"mm-role"}, "u9"))
	require.NoError(t, m.AddUser("c1", "staff1", []string{"mm-role"}, "u9"))
	got, _ := store.Ticket("c1")
	assert.Equal(t, []string{"u9"}, got.AddedUsers, "adding twice stays a single entry")
}

func TestCloseArchivesAndTearsDown(t *testing.T) {
	store := newTestStore(t, testSetup)
	now := time.Now()
	tr := &fakeTransport{history: []*discordgo.Message{
		{ID: "m2", Content: "second", Author: &discordgo.User{Username: "bob"}, Timestamp: now},
		{ID: "m1", Content: "first", Author: &discordgo.User{Username: "alice"}, Timestamp: now.Add(-time.Minute)},
	}}
	sink := &fakeSink{}
	db := &fakeDB{}
	m := NewManager(store, tr, db, sink, zap.NewNop(), 100)

	seedTicket(t, store, storage.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", ChannelName: "trade-alice",
		RequesterID: "u1", CreatedAt: now,
	})

	assert.ErrorIs(t, m.Close("c1", "rando", []string{"x"}), ErrNotAuthorized)

	require.NoError(t, m.Close("c1", "staff1", []string{"staff-role"}))

	_, ok := store.Ticket("c1")
	assert.False(t, ok, "record removed")
	assert.Equal(t, []string{"c1"}, tr.deletedChannels)

	require.Len(t, tr.sentFiles, 1)
	assert.Equal(t, "log-chan", tr.sentFiles[0].channelID)
	assert.Contains(t, tr.sentFiles[0].content, "first")
	assert.Contains(t, tr.sentFiles[0].content, "second")
	// History pages arrive newest-first; the transcript reads oldest-first.
	assert.Less(t,
		strings.Index(tr.sentFiles[0].content, "first"),
		strings.Index(tr.sentFiles[0].content, "second"))

	require.Len(t, db.transcripts, 1)
	assert.Equal(t, "t1", db.transcripts[0].TicketID)
	assert.Equal(t, "staff1", db.transcripts[0].ClosedBy)

	require.Len(t, sink.published, 1)
	assert.Equal(t, events.TicketClosed, sink.published[0].Type)
}

func TestCloseWithoutArchiveDestinations(t *testing.T) {
	store := newTestStore(t, storage.GuildSetup{StaffRole: "staff-role", TicketCategory: "cat-1"})
	tr := &fakeTransport{}
	m := NewManager(store, tr, nil, &fakeSink{}, zap.NewNop(), 100)

	seedTicket(t, store, storage.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", RequesterID: "u1", CreatedAt: time.Now(),
	})

	// No transcripts channel and no database: teardown proceeds without
	// any archival.
	require.NoError(t, m.Close("c1", "staff1", []string{"staff-role"}))
	assert.Empty(t, tr.sentFiles)
	assert.Equal(t, []string{"c1"}, tr.deletedChannels)
}

func TestTimeoutAndClose(t *testing.T) {
	store := newTestStore(t, testSetup)
	tr := &fakeTransport{}
	m := NewManager(store, tr, nil, &fakeSink{}, zap.NewNop(), 100)

	seedTicket(t, store, storage.Ticket{
		ID: "t1", GuildID: "g1", ChannelID: "c1", RequesterID: "u1", CreatedAt: time.Now(),
	})

	require.NoError(t, m.TimeoutAndClose("c1", "staff1", []string{"mm-role"}, "u1"))
	assert.Equal(t, []string{"u1"}, tr.restricted)
	assert.Equal(t, []string{"c1"}, tr.deletedChannels)
}

func TestStaffCapable(t *testing.T) {
	assert.True(t, StaffCapable(testSetup, []string{"other", "mm-role"}))
	assert.True(t, StaffCapable(testSetup, []string{"staff-role"}))
	assert.False(t, StaffCapable(testSetup, []string{"index-role"}), "index staff is not ticket staff")
	assert.False(t, StaffCapable(testSetup, nil))
	assert.False(t, StaffCapable(storage.GuildSetup{}, []string{"anything"}))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Alice":                     "alice",
		"Alice Smith":               "alice-smith",
		"__weird__name__":           "weird-name",
		"ALL CAPS 99":               "all-caps-99",
		"!!!":                       "user",
		"":                          "user",
		"averyveryverylongusername": "averyveryverylonguse",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug(in), "input %q", in)
	}
}
