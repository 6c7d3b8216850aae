package database

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVersioner struct {
	version uint
	dirty   bool
	err     error
}

func (f fakeVersioner) Version() (uint, bool, error) {
	return f.version, f.dirty, f.err
}

func TestLogVersion(t *testing.T) {
	log, hook := test.NewNullLogger()

	logVersion(fakeVersioner{version: 3}, log, "Database schema is up to date")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, uint(3), entry.Data["version"])
	assert.Equal(t, false, entry.Data["dirty"])
	hook.Reset()

	logVersion(fakeVersioner{err: migrate.ErrNilVersion}, log, "Database migrations rolled back")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "none", hook.LastEntry().Data["version"])
	hook.Reset()

	logVersion(fakeVersioner{err: errors.New("connection reset")}, log, "Database schema is up to date")
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "connection reset")
	assert.Equal(t, "Database schema is up to date", entries[1].Message)
}
