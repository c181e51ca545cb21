package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticket-bot/storage"
)

func newTestLedger(t *testing.T, validKeys []string) (*Ledger, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.json"), validKeys, zap.NewNop())
	require.NoError(t, err)
	return New(store, zap.NewNop()), store
}

func TestRedeemValidKey(t *testing.T) {
	l, store := newTestLedger(t, []string{"key-1"})

	require.NoError(t, l.Redeem("u1", "key-1"))

	act, ok := store.Activation("u1")
	require.True(t, ok)
	assert.Equal(t, storage.ModeUnselected, act.Mode)
	assert.False(t, act.PendingSince.IsZero())
	assert.True(t, l.ModePending("u1"))
	assert.True(t, l.Redeemed("u1"))
}

func TestRedeemInvalidKey(t *testing.T) {
	l, _ := newTestLedger(t, []string{"key-1"})

	err := l.Redeem("u1", "nope")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, l.Redeemed("u1"))
}

func TestRedeemKeyIsOneTime(t *testing.T) {
	l, _ := newTestLedger(t, []string{"key-1"})

	require.NoError(t, l.Redeem("u1", "key-1"))
	err := l.Redeem("u2", "key-1")
	assert.ErrorIs(t, err, ErrKeyUsed)
	assert.False(t, l.Redeemed("u2"))
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		mode storage.Mode
		ok   bool
	}{
		{"1", storage.ModeMiddleman, true},
		{"middleman", storage.ModeMiddleman, true},
		{" MIDDLEMAN ", storage.ModeMiddleman, true},
		{"2", storage.ModeTicketOnly, true},
		{"ticket", storage.ModeTicketOnly, true},
		{"3", storage.ModeUnselected, false},
		{"", storage.ModeUnselected, false},
		{"hello", storage.ModeUnselected, false},
	}
	for _, tc := range cases {
		mode, ok := ParseMode(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.mode, mode, "input %q", tc.in)
	}
}

func TestSelectModeIsOneShot(t *testing.T) {
	l, _ := newTestLedger(t, []string{"key-1"})
	require.NoError(t, l.Redeem("u1", "key-1"))

	applied, err := l.SelectMode("u1", storage.ModeTicketOnly)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, storage.ModeTicketOnly, l.Mode("u1"))
	assert.False(t, l.ModePending("u1"))

	// Replies after the selection do not flip the mode.
	applied, err = l.SelectMode("u1", storage.ModeMiddleman)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, storage.ModeTicketOnly, l.Mode("u1"))
}

func TestSelectModeWithoutRedemption(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	applied, err := l.SelectMode("u1", storage.ModeMiddleman)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, storage.ModeUnselected, l.Mode("u1"))
}

func TestModeSurvivesActivationConversion(t *testing.T) {
	l, store := newTestLedger(t, []string{"key-1"})
	require.NoError(t, l.Redeem("u1", "key-1"))
	_, err := l.SelectMode("u1", storage.ModeMiddleman)
	require.NoError(t, err)

	// The setup wizard converts the activation into membership when it
	// completes; access must survive that.
	require.NoError(t, store.Update(func(d *storage.Document) error {
		d.Members["u1"] = d.Users["u1"].Mode
		delete(d.Users, "u1")
		return nil
	}))

	assert.Equal(t, storage.ModeMiddleman, l.Mode("u1"))
	assert.True(t, l.Redeemed("u1"))
	assert.False(t, l.ModePending("u1"))
}
