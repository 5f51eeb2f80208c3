package jobboardtest

import (
	"context"
	"sync"
	"time"

	"jober/internal/models"
	"jober/internal/storage/redis"
)

// allApplicants keys the pattern subscribers; real user ids start at 1
const allApplicants int64 = 0

// Cache stands in for the redis layer, including the status change feed
type Cache struct {
	mu sync.Mutex

	// Err, when set, is returned by every method
	Err error

	Sessions   map[string]int64
	Categories []models.Category
	LinkCodes  map[string]int64
	Counters   map[string]int64
	Published  []models.StatusChange

	subscribers map[int64][]chan models.StatusChange
}

func NewCache() *Cache {
	return &Cache{
		Sessions:    map[string]int64{},
		LinkCodes:   map[string]int64{},
		Counters:    map[string]int64{},
		subscribers: map[int64][]chan models.StatusChange{},
	}
}

func (c *Cache) CreateSession(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Sessions[token] = userID
	return nil
}

func (c *Cache) GetSessionUser(ctx context.Context, token string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	userID, ok := c.Sessions[token]
	if !ok {
		return 0, redis.ErrCacheMiss
	}
	return userID, nil
}

func (c *Cache) TouchSession(ctx context.Context, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Err
}

func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.Sessions, token)
	return nil
}

func (c *Cache) GetCategories(ctx context.Context) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Categories == nil {
		return nil, redis.ErrCacheMiss
	}
	return c.Categories, nil
}

func (c *Cache) SetCategories(ctx context.Context, categories []models.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Categories = categories
	return nil
}

func (c *Cache) IncrementRateLimit(ctx context.Context, client string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	c.Counters[client]++
	return c.Counters[client], nil
}

func (c *Cache) SetTelegramLinkCode(ctx context.Context, code string, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.LinkCodes[code] = userID
	return nil
}

func (c *Cache) ConsumeTelegramLinkCode(ctx context.Context, code string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	userID, ok := c.LinkCodes[code]
	if !ok {
		return 0, redis.ErrCacheMiss
	}
	delete(c.LinkCodes, code)
	return userID, nil
}

func (c *Cache) PublishStatusChange(ctx context.Context, change models.StatusChange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Published = append(c.Published, change)
	for _, key := range []int64{change.ApplicantID, allApplicants} {
		for _, ch := range c.subscribers[key] {
			select {
			case ch <- change:
			default:
			}
		}
	}
	return nil
}

func (c *Cache) SubscribeStatusChanges(ctx context.Context, applicantID int64) (<-chan models.StatusChange, func() error, error) {
	return c.subscribe(ctx, applicantID)
}

// SubscribeAllStatusChanges receives every published change
func (c *Cache) SubscribeAllStatusChanges(ctx context.Context) (<-chan models.StatusChange, func() error, error) {
	return c.subscribe(ctx, allApplicants)
}

func (c *Cache) subscribe(ctx context.Context, applicantID int64) (<-chan models.StatusChange, func() error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, nil, c.Err
	}

	ch := make(chan models.StatusChange, 16)
	c.subscribers[applicantID] = append(c.subscribers[applicantID], ch)

	var once sync.Once
	closeFn := func() error {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			subs := c.subscribers[applicantID]
			for i, sub := range subs {
				if sub == ch {
					c.subscribers[applicantID] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
		return nil
	}

	go func() {
		<-ctx.Done()
		_ = closeFn()
	}()

	return ch, closeFn, nil
}

// PublishedCount is safe to call while handlers run
func (c *Cache) PublishedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Published)
}

// SubscriberCount reports open feeds, so tests can wait for a subscriber before publishing
func (c *Cache) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, subs := range c.subscribers {
		n += len(subs)
	}
	return n
}
