// File: internal/ratelimit/ratelimit_test.go
package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		WindowSize:    100 * time.Millisecond,
		MaxAttempts:   3,
		CleanupPeriod: time.Hour,
		BanDuration:   200 * time.Millisecond,
	}
}

func TestAllow_WithinLimit(t *testing.T) {
	rl := NewMemoryRateLimiter(testConfig())
	defer rl.Close()

	for i := 0; i < 3; i++ {
		allowed, info := rl.Allow("10.0.0.1")
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
		assert.Equal(t, 2-i, info.Remaining)
	}
}

func TestAllow_BansAfterLimit(t *testing.T) {
	rl := NewMemoryRateLimiter(testConfig())
	defer rl.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		require.True(t, allowed)
	}

	allowed, info := rl.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.True(t, info.Banned)
	assert.Greater(t, info.RetryAfter, time.Duration(0))

	// Still banned on the next attempt even though the counting window
	// may have elapsed.
	allowed, info = rl.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.True(t, info.Banned)
}

func TestAllow_BanExpires(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 10 * time.Millisecond
	cfg.BanDuration = 20 * time.Millisecond
	rl := NewMemoryRateLimiter(cfg)
	defer rl.Close()

	for i := 0; i < 4; i++ {
		rl.Allow("10.0.0.1")
	}
	allowed, _ := rl.Allow("10.0.0.1")
	require.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, info := rl.Allow("10.0.0.1")
	assert.True(t, allowed)
	assert.False(t, info.Banned)
}

func TestAllow_WindowResets(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 10 * time.Millisecond
	rl := NewMemoryRateLimiter(cfg)
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")
	time.Sleep(20 * time.Millisecond)

	_, info := rl.Allow("10.0.0.1")
	assert.Equal(t, cfg.MaxAttempts-1, info.Remaining)
}

func TestAllow_IdentifiersAreIndependent(t *testing.T) {
	rl := NewMemoryRateLimiter(testConfig())
	defer rl.Close()

	for i := 0; i < 4; i++ {
		rl.Allow("10.0.0.1")
	}
	allowed, _ := rl.Allow("10.0.0.1")
	require.False(t, allowed)

	allowed, _ = rl.Allow("10.0.0.2")
	assert.True(t, allowed)
}

func TestRecordSuccess_ClearsAttempts(t *testing.T) {
	rl := NewMemoryRateLimiter(testConfig())
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")
	rl.RecordSuccess("10.0.0.1")

	_, info := rl.Allow("10.0.0.1")
	assert.Equal(t, 2, info.Remaining)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.10:52310",
			want:       "192.168.1.10",
		},
		{
			name:       "x-forwarded-for takes precedence",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "invalid forwarded ip falls through to real ip",
			remoteAddr: "10.0.0.1:80",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-ip",
				"X-Real-IP":       "198.51.100.4",
			},
			want: "198.51.100.4",
		},
		{
			name:       "x-real-ip used without forwarded header",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			want:       "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}
