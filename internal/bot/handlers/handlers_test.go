package handlers

import (
	"context"
	"errors"
	"testing"

	"jober/internal/bot/utils"
	"jober/internal/jobboard/jobboardtest"
	"jober/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContext() (*Context, *jobboardtest.Store, *jobboardtest.Cache) {
	store := jobboardtest.NewStore()
	cache := jobboardtest.NewCache()
	return &Context{Store: store, Cache: cache, Logger: zap.NewNop()}, store, cache
}

func TestLinkChat(t *testing.T) {
	ctx, store, cache := newContext()
	user := store.AddUser("ann@example.com", "Ann Lee", models.RoleJobSeeker)
	cache.LinkCodes["abc123"] = user.ID

	msg := LinkChat(context.Background(), ctx, "abc123", 777)
	assert.Contains(t, msg, "Ann Lee")

	linked, err := store.GetUserByTelegramChat(context.Background(), 777)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, user.ID, linked.ID)

	// codes are single use
	msg = LinkChat(context.Background(), ctx, "abc123", 888)
	assert.Equal(t, utils.FormatInvalidCodeMessage(), msg)
}

func TestLinkChatMovesChatToNewAccount(t *testing.T) {
	ctx, store, cache := newContext()
	first := store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	second := store.AddUser("bob@example.com", "Bob", models.RoleJobSeeker)
	cache.LinkCodes["one"] = first.ID
	cache.LinkCodes["two"] = second.ID

	LinkChat(context.Background(), ctx, "one", 777)
	LinkChat(context.Background(), ctx, "two", 777)

	linked, err := store.GetUserByTelegramChat(context.Background(), 777)
	require.NoError(t, err)
	assert.Equal(t, second.ID, linked.ID)

	reloaded, err := store.GetUser(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.TelegramChatID)
}

func TestLinkChatFailures(t *testing.T) {
	t.Run("unknown code", func(t *testing.T) {
		ctx, _, _ := newContext()
		assert.Equal(t, utils.FormatInvalidCodeMessage(), LinkChat(context.Background(), ctx, "nope", 1))
	})

	t.Run("deleted user", func(t *testing.T) {
		ctx, _, cache := newContext()
		cache.LinkCodes["gone"] = 404
		assert.Equal(t, utils.FormatInvalidCodeMessage(), LinkChat(context.Background(), ctx, "gone", 1))
	})

	t.Run("cache down", func(t *testing.T) {
		ctx, _, cache := newContext()
		cache.Err = errors.New("redis down")
		assert.Equal(t, utils.FormatErrorMessage(), LinkChat(context.Background(), ctx, "abc", 1))
	})

	t.Run("store fails on link", func(t *testing.T) {
		ctx, store, cache := newContext()
		user := store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
		cache.LinkCodes["abc"] = user.ID
		store.Errors["SetTelegramChatID"] = errors.New("db down")
		assert.Equal(t, utils.FormatErrorMessage(), LinkChat(context.Background(), ctx, "abc", 1))
	})
}

func TestApplicationsMessage(t *testing.T) {
	ctx, store, _ := newContext()
	seeker := store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	_, company := store.AddEmployer("boss@acme.com", "Acme")
	job := store.AddJob(company.ID, "Go Developer", "Berlin", models.JobTypeRemote, 2)

	msg, linked := ApplicationsMessage(context.Background(), ctx, 777)
	assert.False(t, linked)
	assert.Equal(t, utils.FormatNotLinkedMessage(), msg)

	require.NoError(t, store.SetTelegramChatID(context.Background(), seeker.ID, 777))

	msg, linked = ApplicationsMessage(context.Background(), ctx, 777)
	assert.True(t, linked)
	assert.Equal(t, utils.FormatNoApplicationsMessage(), msg)

	require.NoError(t, store.CreateApplication(context.Background(), &models.Application{
		JobID:       job.ID,
		ApplicantID: seeker.ID,
		CoverLetter: "Hello",
		ResumeURL:   "https://storage.test/cv.pdf",
		Status:      models.ApplicationStatusPending,
	}))

	msg, linked = ApplicationsMessage(context.Background(), ctx, 777)
	assert.True(t, linked)
	assert.Contains(t, msg, "Go Developer")
	assert.Contains(t, msg, "Acme")
	assert.Contains(t, msg, "pending")
}

func TestApplicationsMessageStoreError(t *testing.T) {
	ctx, store, _ := newContext()
	store.Errors["GetUserByTelegramChat"] = errors.New("db down")

	msg, linked := ApplicationsMessage(context.Background(), ctx, 777)
	assert.False(t, linked)
	assert.Equal(t, utils.FormatErrorMessage(), msg)
}
