package economy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenforge/bazaar/internal/economy/migrations"
)

func TestPostgresRejectsNegativeAmountsBeforeQuerying(t *testing.T) {
	// Amount validation happens before any pool access, so a zero-value
	// handle is enough to exercise it.
	p := &Postgres{}

	_, err := p.Withdraw(uuid.New(), -1)
	assert.Error(t, err)
	_, err = p.Deposit(uuid.New(), -1)
	assert.Error(t, err)
}

func TestPostgresFormat(t *testing.T) {
	p := &Postgres{symbol: "$"}
	assert.Equal(t, "$1500", p.Format(1500))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := migrations.FS.ReadFile("00001_create_balances.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE balances")
	assert.Contains(t, string(data), "+goose Up")
}
