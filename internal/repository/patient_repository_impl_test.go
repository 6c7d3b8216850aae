package repository

import (
	"testing"

	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientRepositoryCreateIfAbsent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPatientRepository()

	first := &entity.Patient{FirstName: "John", LastName: "Doe", Email: "john@example.com"}
	created, err := repo.CreateIfAbsent(db, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)

	dup := &entity.Patient{FirstName: "Johnny", LastName: "D", Email: "john@example.com"}
	created, err = repo.CreateIfAbsent(db, dup)
	require.NoError(t, err)
	assert.False(t, created)

	patients, err := repo.FindAll(db)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "John", patients[0].FirstName)
}

func TestPatientRepositoryFindByEmailIsExact(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPatientRepository()
	testutil.CreatePatient(t, db, "john@example.com")

	found, err := repo.FindByEmail(db, "john@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)

	notFound, err := repo.FindByEmail(db, "JOHN@example.com")
	require.NoError(t, err)
	assert.Nil(t, notFound)
}
