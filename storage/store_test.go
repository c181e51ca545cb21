package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T, validKeys []string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, validKeys, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestOpenSeedsAvailableKeys(t *testing.T) {
	s, _ := openTestStore(t, []string{"k1", "k2"})

	s.View(func(d *Document) {
		assert.True(t, d.KeyAvailable("k1"))
		assert.True(t, d.KeyAvailable("k2"))
		assert.False(t, d.KeyAvailable("k3"))
	})
}

func TestReopenPreservesUsedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	log := zap.NewNop()

	s, err := Open(path, []string{"k1", "k2"}, log)
	require.NoError(t, err)
	require.NoError(t, s.Update(func(d *Document) error {
		d.ConsumeKey("k1")
		return nil
	}))

	// A restart with the same config must not resurrect the used key.
	s2, err := Open(path, []string{"k1", "k2"}, log)
	require.NoError(t, err)
	s2.View(func(d *Document) {
		assert.False(t, d.KeyAvailable("k1"))
		assert.True(t, d.KeyUsed("k1"))
		assert.True(t, d.KeyAvailable("k2"))
	})
}

func TestReopenPreservesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	log := zap.NewNop()

	s, err := Open(path, nil, log)
	require.NoError(t, err)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Update(func(d *Document) error {
		d.Users["u1"] = &Activation{Mode: ModeMiddleman, PendingSince: created}
		d.Members["u2"] = ModeTicketOnly
		d.Guild("g1").Setup.MiddlemanRole = "111"
		d.Tickets["c1"] = &Ticket{ID: "t1", GuildID: "g1", ChannelID: "c1", CreatedAt: created}
		d.Vouches["u3"] = 4
		return nil
	}))

	s2, err := Open(path, nil, log)
	require.NoError(t, err)

	act, ok := s2.Activation("u1")
	require.True(t, ok)
	assert.Equal(t, ModeMiddleman, act.Mode)

	assert.Equal(t, "111", s2.GuildSetup("g1").MiddlemanRole)

	tk, ok := s2.Ticket("c1")
	require.True(t, ok)
	assert.Equal(t, "t1", tk.ID)
	assert.True(t, tk.CreatedAt.Equal(created))

	assert.Equal(t, 4, s2.Vouches("u3"))

	s2.View(func(d *Document) {
		assert.Equal(t, ModeTicketOnly, d.Members["u2"])
	})
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s, path := openTestStore(t, nil)
	require.NoError(t, s.Update(func(d *Document) error {
		d.Vouches["u1"] = 1
		return nil
	}))

	err := s.Update(func(d *Document) error {
		return assert.AnError
	})
	require.Error(t, err)

	s2, err := Open(path, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Vouches("u1"))
}

func TestGuildLazyCreate(t *testing.T) {
	s, _ := openTestStore(t, nil)

	assert.Equal(t, GuildSetup{}, s.GuildSetup("missing"))

	require.NoError(t, s.Update(func(d *Document) error {
		d.Guild("g1").Setup.StaffRole = "222"
		return nil
	}))
	assert.Equal(t, "222", s.GuildSetup("g1").StaffRole)
}

func TestStaffRoles(t *testing.T) {
	setup := GuildSetup{MiddlemanRole: "1", CoOwnerRole: "3"}
	assert.Equal(t, []string{"1", "3"}, setup.StaffRoles())

	setup.StaffRole = "2"
	assert.Len(t, setup.StaffRoles(), 3)

	assert.Empty(t, GuildSetup{}.StaffRoles())
}
