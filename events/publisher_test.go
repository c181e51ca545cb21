package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher

	assert.NotPanics(t, func() {
		p.Publish(Event{Type: TicketOpened, TicketID: "t1"})
		p.Close()
	})
}
