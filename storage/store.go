// Package storage holds the bot's durable state: a single JSON document
// rewritten after every mutation, plus an archive database for closed
// tickets (database.go).
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode is the access tier a redeemed user selected.
type Mode string

const (
	ModeUnselected Mode = ""
	ModeTicketOnly Mode = "ticket"
	ModeMiddleman  Mode = "middleman"
)

// Activation is the per-user record created by a successful key
// redemption. Completing the setup wizard destroys it, recording the
// selected mode under Members so command access survives.
type Activation struct {
	Mode         Mode      `json:"mode"`
	PendingSince time.Time `json:"pending_since"`
}

// GuildConfig is the per-guild record accumulated by the setup wizard.
// Absent fields mean "unconfigured"; consumers fail soft on them.
type GuildConfig struct {
	Setup GuildSetup `json:"setup"`
}

type GuildSetup struct {
	TranscriptsChannel string `json:"transcripts_channel,omitempty"`
	MiddlemanRole      string `json:"middleman_role,omitempty"`
	IndexStaffRole     string `json:"index_staff_role,omitempty"`
	TicketCategory     string `json:"ticket_category,omitempty"`
	CoOwnerRole        string `json:"co_owner_role,omitempty"`
	VerificationLink   string `json:"verification_link,omitempty"`
	RecruitRole        string `json:"recruit_role,omitempty"`
	GuideChannel       string `json:"guide_channel,omitempty"`
	StaffRole          string `json:"staff_role,omitempty"`
}

// StaffRoles returns every configured staff-capability role.
func (s GuildSetup) StaffRoles() []string {
	var roles []string
	for _, r := range []string{s.MiddlemanRole, s.StaffRole, s.CoOwnerRole} {
		if r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// Ticket is one open conversation channel.
type Ticket struct {
	ID          string    `json:"id"`
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	RequesterID string    `json:"requester_id"`
	Kind        string    `json:"kind"`
	ClaimedBy   string    `json:"claimed_by,omitempty"`
	AddedUsers  []string  `json:"added_users,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AFKStatus struct {
	Reason string    `json:"reason"`
	Since  time.Time `json:"since"`
}

type redemptionState struct {
	Available []string `json:"available"`
	Used      []string `json:"used"`
}

// Document is the full persisted state. Mutations go through
// Store.Update so the read-modify-persist unit is explicit.
type Document struct {
	Redemption redemptionState         `json:"redemption"`
	Users      map[string]*Activation  `json:"users"`
	Members    map[string]Mode         `json:"members"`
	Guilds     map[string]*GuildConfig `json:"guilds"`
	Tickets    map[string]*Ticket      `json:"tickets"`
	Vouches    map[string]int          `json:"vouches"`
	AFK        map[string]*AFKStatus   `json:"afk"`
}

// KeyAvailable reports whether key is in the available set.
func (d *Document) KeyAvailable(key string) bool {
	for _, k := range d.Redemption.Available {
		if k == key {
			return true
		}
	}
	return false
}

// KeyUsed reports whether key has been consumed.
func (d *Document) KeyUsed(key string) bool {
	for _, k := range d.Redemption.Used {
		if k == key {
			return true
		}
	}
	return false
}

// ConsumeKey moves key from available to used. The caller must have
// checked availability inside the same Update call.
func (d *Document) ConsumeKey(key string) {
	for i, k := range d.Redemption.Available {
		if k == key {
			d.Redemption.Available = append(d.Redemption.Available[:i], d.Redemption.Available[i+1:]...)
			break
		}
	}
	d.Redemption.Used = append(d.Redemption.Used, key)
}

// Guild returns the guild's config record, creating it lazily.
func (d *Document) Guild(guildID string) *GuildConfig {
	gc, ok := d.Guilds[guildID]
	if !ok {
		gc = &GuildConfig{}
		d.Guilds[guildID] = gc
	}
	return gc
}

// Store is the durable document plus its file path. All access runs
// under one mutex; Update rewrites the file before returning.
type Store struct {
	mu   sync.RWMutex
	path string
	log  *zap.Logger
	doc  *Document
}

// Open loads the document from path (an absent file starts empty) and
// seeds the available-key set from validKeys minus already-used keys.
func Open(path string, validKeys []string, log *zap.Logger) (*Store, error) {
	doc := &Document{
		Users:   make(map[string]*Activation),
		Members: make(map[string]Mode),
		Guilds:  make(map[string]*GuildConfig),
		Tickets: make(map[string]*Ticket),
		Vouches: make(map[string]int),
		AFK:     make(map[string]*AFKStatus),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		log.Info("no existing data file, starting fresh", zap.String("path", path))
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if doc.Users == nil {
		doc.Users = make(map[string]*Activation)
	}
	if doc.Members == nil {
		doc.Members = make(map[string]Mode)
	}
	if doc.Guilds == nil {
		doc.Guilds = make(map[string]*GuildConfig)
	}
	if doc.Tickets == nil {
		doc.Tickets = make(map[string]*Ticket)
	}
	if doc.Vouches == nil {
		doc.Vouches = make(map[string]int)
	}
	if doc.AFK == nil {
		doc.AFK = make(map[string]*AFKStatus)
	}

	doc.Redemption.Available = doc.Redemption.Available[:0]
	for _, k := range validKeys {
		if !doc.KeyUsed(k) {
			doc.Redemption.Available = append(doc.Redemption.Available, k)
		}
	}

	return &Store{path: path, log: log, doc: doc}, nil
}

// Update runs fn against the document and, when fn succeeds, persists
// the whole document. fn returning an error leaves nothing written,
// though in-memory changes fn already made are kept; fn must make its
// checks before mutating.
func (s *Store) Update(fn func(d *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.doc); err != nil {
		return err
	}
	return s.saveLocked()
}

// View runs fn with read access to the document. fn must not mutate.
func (s *Store) View(fn func(d *Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Activation returns a copy of the user's activation record.
func (s *Store) Activation(userID string) (Activation, bool) {
	var (
		act Activation
		ok  bool
	)
	s.View(func(d *Document) {
		if a, found := d.Users[userID]; found {
			act, ok = *a, true
		}
	})
	return act, ok
}

// GuildSetup returns a copy of the guild's wizard-accumulated setup.
func (s *Store) GuildSetup(guildID string) GuildSetup {
	var setup GuildSetup
	s.View(func(d *Document) {
		if gc, ok := d.Guilds[guildID]; ok {
			setup = gc.Setup
		}
	})
	return setup
}

// Ticket returns a copy of the ticket for channelID.
func (s *Store) Ticket(channelID string) (Ticket, bool) {
	var (
		t  Ticket
		ok bool
	)
	s.View(func(d *Document) {
		if rec, found := d.Tickets[channelID]; found {
			t, ok = *rec, true
		}
	})
	return t, ok
}

// Vouches returns the user's vouch count.
func (s *Store) Vouches(userID string) int {
	var n int
	s.View(func(d *Document) { n = d.Vouches[userID] })
	return n
}

// AFK returns the user's AFK status, if set.
func (s *Store) AFK(userID string) (AFKStatus, bool) {
	var (
		st AFKStatus
		ok bool
	)
	s.View(func(d *Document) {
		if a, found := d.AFK[userID]; found {
			st, ok = *a, true
		}
	})
	return st, ok
}
