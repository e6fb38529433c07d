package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(DefaultTTL, WithClock(clock.Now)), clock
}

func strPtr(s string) *string { return &s }

func slotPtr(s models.Slot) *models.Slot { return &s }

func intentPtr(i models.Intent) *models.Intent { return &i }

func TestStore_GetMissing(t *testing.T) {
	store, _ := newTestStore()
	assert.Nil(t, store.Get("unknown"))
}

func TestStore_SetCreatesAndIncrements(t *testing.T) {
	store, clock := newTestStore()

	first := store.Set("c1", models.ContextUpdate{ActiveIntent: intentPtr(models.IntentOrderTracking)})
	require.NotNil(t, first)
	assert.Equal(t, "c1", first.ConversationID)
	assert.Equal(t, 1, first.MessageCount)
	assert.Equal(t, clock.now, first.Timestamp)

	clock.Advance(time.Minute)
	second := store.Set("c1", models.ContextUpdate{})
	assert.Equal(t, 2, second.MessageCount)
	assert.Equal(t, clock.now, second.Timestamp)
	assert.Equal(t, models.IntentOrderTracking, second.ActiveIntent)
}

func TestStore_MergeKeepsCollectedFields(t *testing.T) {
	store, clock := newTestStore()

	store.Set("c1", models.ContextUpdate{
		Email:      strPtr("a@b.com"),
		WaitingFor: slotPtr(models.SlotOrderNumber),
	})
	clock.Advance(2 * time.Minute)
	store.Set("c1", models.ContextUpdate{OrderNumbers: []string{"1001"}})

	got := store.Get("c1")
	require.NotNil(t, got)
	assert.Equal(t, "a@b.com", got.CollectedData.Email)
	assert.Equal(t, []string{"1001"}, got.CollectedData.OrderNumbers)
	assert.Equal(t, models.SlotOrderNumber, got.WaitingFor)
}

func TestStore_ExplicitOverwrite(t *testing.T) {
	store, _ := newTestStore()

	store.Set("c1", models.ContextUpdate{
		Email:      strPtr("old@b.com"),
		WaitingFor: slotPtr(models.SlotOrderNumber),
	})
	store.Set("c1", models.ContextUpdate{
		Email:      strPtr("new@b.com"),
		WaitingFor: slotPtr(models.SlotNone),
	})

	got := store.Get("c1")
	require.NotNil(t, got)
	assert.Equal(t, "new@b.com", got.CollectedData.Email)
	assert.Equal(t, models.SlotNone, got.WaitingFor)
}

func TestStore_EmptyEmailDoesNotErase(t *testing.T) {
	store, _ := newTestStore()

	store.Set("c1", models.ContextUpdate{Email: strPtr("a@b.com")})
	store.Set("c1", models.ContextUpdate{Email: strPtr("")})

	assert.Equal(t, "a@b.com", store.Get("c1").CollectedData.Email)
}

func TestStore_GetExpires(t *testing.T) {
	store, clock := newTestStore()

	store.Set("c1", models.ContextUpdate{Email: strPtr("a@b.com")})

	clock.Advance(DefaultTTL)
	assert.NotNil(t, store.Get("c1"), "exactly at the TTL the context is still live")

	clock.Advance(time.Second)
	assert.Nil(t, store.Get("c1"))
	assert.Equal(t, 0, store.Len())
}

func TestStore_SetSweepsOtherConversations(t *testing.T) {
	store, clock := newTestStore()

	store.Set("stale", models.ContextUpdate{Email: strPtr("a@b.com")})
	clock.Advance(9 * time.Minute)
	store.Set("fresh", models.ContextUpdate{})

	assert.Equal(t, 1, store.Len())
	assert.Nil(t, store.Get("stale"))
	assert.NotNil(t, store.Get("fresh"))
}

func TestStore_ExpiredEntryStartsOver(t *testing.T) {
	store, clock := newTestStore()

	store.Set("c1", models.ContextUpdate{Email: strPtr("a@b.com")})
	clock.Advance(10 * time.Minute)
	got := store.Set("c1", models.ContextUpdate{})

	assert.Equal(t, 1, got.MessageCount)
	assert.Empty(t, got.CollectedData.Email)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store, _ := newTestStore()

	store.Set("c1", models.ContextUpdate{OrderNumbers: []string{"1001"}})
	got := store.Get("c1")
	got.CollectedData.OrderNumbers[0] = "9999"
	got.CollectedData.Email = "mutated@b.com"

	again := store.Get("c1")
	assert.Equal(t, []string{"1001"}, again.CollectedData.OrderNumbers)
	assert.Empty(t, again.CollectedData.Email)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	store := NewStore(0)
	assert.Equal(t, DefaultTTL, store.ttl)
}
