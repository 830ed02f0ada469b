package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatus(t *testing.T) {
	for _, status := range KnownStatuses {
		assert.True(t, IsValidStatus(status))
	}
	assert.False(t, IsValidStatus(TicketStatus("closed")))
	assert.False(t, IsValidStatus(TicketStatus("")))
}

func TestTicketSubject(t *testing.T) {
	ticket := &Ticket{Context: map[string]string{"subject": "Не работает датчик"}}
	assert.Equal(t, "Не работает датчик", ticket.Subject())

	empty := &Ticket{}
	assert.Empty(t, empty.Subject())
}
