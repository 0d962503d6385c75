package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/analytics-dashboard-api/internal/domain"
)

func TestSendDecision_FirstSendAllowed(t *testing.T) {
	assert.NoError(t, sendDecision(false, 0))
}

func TestSendDecision_CooldownBlocksSecondSend(t *testing.T) {
	// Right after a send the cooldown key exists and one send is recorded.
	assert.ErrorIs(t, sendDecision(true, 1), domain.ErrRateLimited)
}

func TestSendDecision_CooldownTakesPrecedenceOverWindowCap(t *testing.T) {
	// With the cap reached and the cooldown still armed, the client sees
	// the 30s signal, not the window one.
	assert.ErrorIs(t, sendDecision(true, maxPerWindow), domain.ErrRateLimited)
}

func TestSendDecision_WindowCapFencepost(t *testing.T) {
	// The third send of the window is still allowed, the fourth is not.
	assert.NoError(t, sendDecision(false, maxPerWindow-1))
	assert.ErrorIs(t, sendDecision(false, maxPerWindow), domain.ErrTooManyRequests)
	assert.ErrorIs(t, sendDecision(false, maxPerWindow+1), domain.ErrTooManyRequests)
}

func TestLimiterKeys_ScopedPerEmail(t *testing.T) {
	assert.Equal(t, "authcode:cooldown:ana@example.com", cooldownKey("ana@example.com"))
	assert.Equal(t, "authcode:window:ana@example.com", windowKey("ana@example.com"))
	assert.NotEqual(t, cooldownKey("a@b.c"), windowKey("a@b.c"))
}
