package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// TokenBucket admits up to capacity requests at once and refills at a
// fixed per-minute rate.
type TokenBucket struct {
	mu         sync.Mutex
	rate       float64 // tokens per second
	capacity   float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket starts full. capacity <= 0 selects half the per-minute rate.
func NewTokenBucket(perMinute, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = max(perMinute/2, 1)
	}
	return &TokenBucket{
		rate:       float64(perMinute) / 60,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

func (b *TokenBucket) refill() {
	now := b.now()
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*b.rate)
	b.lastRefill = now
}

// Allow takes a token without waiting.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		b.mu.Unlock()

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RateLimitedClient throttles a ChatClient and retries transient failures
// with exponential backoff.
type RateLimitedClient struct {
	next       ChatClient
	bucket     *TokenBucket
	maxRetries int
	retryWait  time.Duration
}

// NewRateLimitedClient wraps next. perMinute <= 0 disables throttling but
// keeps the retry policy.
func NewRateLimitedClient(next ChatClient, perMinute, maxRetries int, retryWait time.Duration) *RateLimitedClient {
	c := &RateLimitedClient{next: next, maxRetries: max(maxRetries, 0), retryWait: retryWait}
	if perMinute > 0 {
		c.bucket = NewTokenBucket(perMinute, 0)
	}
	if c.retryWait <= 0 {
		c.retryWait = time.Second
	}
	return c
}

func (c *RateLimitedClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var (
		resp openai.ChatCompletionResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		if c.bucket != nil {
			if werr := c.bucket.Wait(ctx); werr != nil {
				return resp, werr
			}
		}
		resp, err = c.next.CreateChatCompletion(ctx, req)
		if err == nil || attempt >= c.maxRetries || !retryable(err) {
			return resp, err
		}

		t := time.NewTimer(c.retryWait << attempt)
		select {
		case <-ctx.Done():
			t.Stop()
			return resp, ctx.Err()
		case <-t.C:
		}
	}
}

// retryable reports throttling, server-side failures and network errors.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}
