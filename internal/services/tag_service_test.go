package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flopysoft/flopy-crm/internal/dto"
)

func TestTagCreate(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	tags := NewTagService(db)

	created, err := tags.Create(dto.TagRequest{Name: "vip", Color: "#ff0000"}, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", created.Color)

	_, err = tags.Create(dto.TagRequest{Name: "vip"}, user.ID)
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestTagUpdate(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	tags := NewTagService(db)

	vip, err := tags.Create(dto.TagRequest{Name: "vip"}, user.ID)
	require.NoError(t, err)
	_, err = tags.Create(dto.TagRequest{Name: "lead"}, user.ID)
	require.NoError(t, err)

	require.NoError(t, tags.Update(vip.ID, dto.TagRequest{Name: "priority", Color: "#00ff00"}))
	got, err := tags.Get(vip.ID)
	require.NoError(t, err)
	assert.Equal(t, "priority", got.Name)

	assert.ErrorIs(t, tags.Update(vip.ID, dto.TagRequest{Name: "lead"}), ErrTagExists)
	assert.ErrorIs(t, tags.Update(999, dto.TagRequest{Name: "ghost"}), ErrTagNotFound)
}

func TestTagDeleteRemovesLinks(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	tags := NewTagService(db)
	contacts := NewContactService(db)

	vip, err := tags.Create(dto.TagRequest{Name: "vip"}, user.ID)
	require.NoError(t, err)

	contact, err := contacts.Create(dto.ContactRequest{
		FirstName: "Ada", LastName: "Lovelace", TagIDs: []string{"1"},
	}, user.ID)
	require.NoError(t, err)

	require.NoError(t, tags.Delete(vip.ID))

	got, err := contacts.Get(contact.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	assert.ErrorIs(t, tags.Delete(vip.ID), ErrTagNotFound)
}
