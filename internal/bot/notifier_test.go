package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"jober/internal/jobboard/jobboardtest"
	"jober/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type sentMessage struct {
	to   string
	text string
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to.Recipient(), text: what.(string)})
	if f.err != nil {
		return nil, f.err
	}
	return &tele.Message{}, nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type notifierEnv struct {
	store  *jobboardtest.Store
	cache  *jobboardtest.Cache
	sender *fakeSender
	done   chan error
	cancel context.CancelFunc
}

func startNotifier(t *testing.T) *notifierEnv {
	t.Helper()

	env := &notifierEnv{
		store:  jobboardtest.NewStore(),
		cache:  jobboardtest.NewCache(),
		sender: &fakeSender{},
		done:   make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	t.Cleanup(cancel)

	n := NewNotifier(env.sender, env.cache, env.store, "https://jober.test/dashboard", zap.NewNop())
	go func() { env.done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return env.cache.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	return env
}

func (e *notifierEnv) publish(t *testing.T, change models.StatusChange) {
	t.Helper()
	require.NoError(t, e.cache.PublishStatusChange(context.Background(), change))
}

func TestNotifierSendsToLinkedChat(t *testing.T) {
	env := startNotifier(t)

	linked := env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	require.NoError(t, env.store.SetTelegramChatID(context.Background(), linked.ID, 555))
	unlinked := env.store.AddUser("bob@example.com", "Bob", models.RoleJobSeeker)

	env.publish(t, models.StatusChange{ApplicationID: 1, ApplicantID: unlinked.ID, JobTitle: "Designer", Status: models.ApplicationStatusRejected})
	env.publish(t, models.StatusChange{ApplicationID: 2, ApplicantID: linked.ID, JobTitle: "Go Developer", CompanyName: "Acme", Status: models.ApplicationStatusAccepted})

	require.Eventually(t, func() bool { return len(env.sender.messages()) == 1 }, time.Second, 5*time.Millisecond)

	msg := env.sender.messages()[0]
	assert.Equal(t, "555", msg.to)
	assert.Contains(t, msg.text, "Go Developer")
	assert.Contains(t, msg.text, "accepted")
}

func TestNotifierKeepsGoingAfterSendFailure(t *testing.T) {
	env := startNotifier(t)
	env.sender.err = errors.New("bot was blocked by the user")

	user := env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	require.NoError(t, env.store.SetTelegramChatID(context.Background(), user.ID, 555))

	env.publish(t, models.StatusChange{ApplicationID: 1, ApplicantID: user.ID, JobTitle: "QA", Status: models.ApplicationStatusPending})
	env.publish(t, models.StatusChange{ApplicationID: 1, ApplicantID: user.ID, JobTitle: "QA", Status: models.ApplicationStatusAccepted})

	// each change is attempted once, never retried
	require.Eventually(t, func() bool { return len(env.sender.messages()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, env.sender.messages(), 2)
}

func TestNotifierStopsOnCancel(t *testing.T) {
	env := startNotifier(t)

	env.cancel()

	select {
	case err := <-env.done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop")
	}
}

func TestNotifierSubscribeError(t *testing.T) {
	cache := jobboardtest.NewCache()
	cache.Err = errors.New("redis down")

	n := NewNotifier(&fakeSender{}, cache, jobboardtest.NewStore(), "", zap.NewNop())
	err := n.Run(context.Background())
	assert.ErrorContains(t, err, "subscribe status changes")
}
