// Package ledger gates bot access behind one-time redemption keys and
// the mode-selection step that follows a successful redemption.
package ledger

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"ticket-bot/storage"
)

var (
	ErrInvalidKey = errors.New("invalid key")
	ErrKeyUsed    = errors.New("key already used")
)

type Ledger struct {
	store *storage.Store
	log   *zap.Logger
}

func New(store *storage.Store, log *zap.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// Redeem consumes key for userID. The availability check and the
// consume run inside a single store update, so two callers can never
// both succeed on the same key. The mutation is persisted before we
// report success.
func (l *Ledger) Redeem(userID, key string) error {
	err := l.store.Update(func(d *storage.Document) error {
		if d.KeyUsed(key) {
			return ErrKeyUsed
		}
		if !d.KeyAvailable(key) {
			return ErrInvalidKey
		}
		d.ConsumeKey(key)
		d.Users[userID] = &storage.Activation{
			Mode:         storage.ModeUnselected,
			PendingSince: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.log.Info("key redeemed", zap.String("user", userID))
	return nil
}

// ParseMode maps a free-text reply to a mode: "1"/"middleman" for the
// staff-capable tier, "2"/"ticket" for the ticket-only tier,
// case-insensitive. Anything else is not a selection.
func ParseMode(raw string) (storage.Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "middleman":
		return storage.ModeMiddleman, true
	case "2", "ticket":
		return storage.ModeTicketOnly, true
	default:
		return storage.ModeUnselected, false
	}
}

// ModePending reports whether userID redeemed a key and has not yet
// picked a mode.
func (l *Ledger) ModePending(userID string) bool {
	act, ok := l.store.Activation(userID)
	return ok && act.Mode == storage.ModeUnselected
}

// SelectMode applies a parsed mode for userID. It is a no-op when the
// user has no pending activation or already selected a mode; selection
// is one-shot by construction. The returned bool reports whether the
// selection took effect.
func (l *Ledger) SelectMode(userID string, mode storage.Mode) (bool, error) {
	if mode == storage.ModeUnselected {
		return false, nil
	}
	applied := false
	err := l.store.Update(func(d *storage.Document) error {
		act, ok := d.Users[userID]
		if !ok || act.Mode != storage.ModeUnselected {
			return nil
		}
		act.Mode = mode
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		l.log.Info("mode selected", zap.String("user", userID), zap.String("mode", string(mode)))
	}
	return applied, nil
}

// Mode returns the user's selected mode. A live activation takes
// precedence; after the wizard converts the activation into
// membership, the recorded member mode applies.
func (l *Ledger) Mode(userID string) storage.Mode {
	if act, ok := l.store.Activation(userID); ok {
		return act.Mode
	}
	mode := storage.ModeUnselected
	l.store.View(func(d *storage.Document) {
		if m, ok := d.Members[userID]; ok {
			mode = m
		}
	})
	return mode
}

// Redeemed reports whether the user holds an activation or completed
// one.
func (l *Ledger) Redeemed(userID string) bool {
	if _, ok := l.store.Activation(userID); ok {
		return true
	}
	redeemed := false
	l.store.View(func(d *storage.Document) {
		_, redeemed = d.Members[userID]
	})
	return redeemed
}
