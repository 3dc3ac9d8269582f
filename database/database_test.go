package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfig(t *testing.T) {
	t.Parallel()
	var nilInstance *Instance
	assert.ErrorIs(t, nilInstance.SetConfig(&Config{}), ErrNilInstance)

	i := &Instance{}
	assert.ErrorIs(t, i.SetConfig(nil), ErrNilConfig)
	require.NoError(t, i.SetConfig(&Config{Driver: DBSQLite3}), "SetConfig must not error")
	cfg := i.GetConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, DBSQLite3, cfg.Driver)
}

func TestSetSQLiteConnection(t *testing.T) {
	t.Parallel()
	var nilInstance *Instance
	assert.ErrorIs(t, nilInstance.SetSQLiteConnection(nil), ErrNilInstance)

	i := &Instance{}
	assert.ErrorIs(t, i.SetSQLiteConnection(nil), ErrNilSQL)
}

func TestConnectionState(t *testing.T) {
	t.Parallel()
	i := &Instance{}
	assert.False(t, i.IsConnected(), "new instance should not be connected")
	i.SetConnected(true)
	assert.True(t, i.IsConnected())
	i.SetConnected(false)
	assert.False(t, i.IsConnected())

	var nilInstance *Instance
	assert.False(t, nilInstance.IsConnected(), "nil instance should not be connected")
	assert.ErrorIs(t, nilInstance.Ping(), ErrNilInstance)
	assert.ErrorIs(t, i.Ping(), ErrNilSQL, "instance without SQL should not ping")
	assert.ErrorIs(t, i.CloseConnection(), ErrNilSQL)

	_, err := i.GetSQL()
	assert.ErrorIs(t, err, ErrNilSQL)
}
