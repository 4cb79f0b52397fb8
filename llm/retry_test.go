package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) Generate(ctx context.Context, req Request) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var text string
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return text, err
}

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetrierSucceedsFirstAttempt(t *testing.T) {
	client := &fakeClient{responses: []string{"ok"}}
	var delays []time.Duration
	r := Retrier{Sleep: noSleep(&delays)}

	text, err := r.Call(context.Background(), client, Request{Parts: TextParts("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, delays)
}

func TestRetrierBacksOffExponentially(t *testing.T) {
	boom := errors.New("boom")
	client := &fakeClient{
		errs:      []error{boom, boom, nil},
		responses: []string{"", "", "third time"},
	}
	var delays []time.Duration
	r := Retrier{Sleep: noSleep(&delays)}

	text, err := r.Call(context.Background(), client, Request{Parts: TextParts("hi")})
	require.NoError(t, err)
	assert.Equal(t, "third time", text)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetrierExhaustsAndWrapsTerminalError(t *testing.T) {
	boom := errors.New("boom")
	client := &fakeClient{errs: []error{boom, boom, boom}}
	var delays []time.Duration
	r := Retrier{Sleep: noSleep(&delays)}

	_, err := r.Call(context.Background(), client, Request{Parts: TextParts("hi")})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, client.calls)
	// Last attempt has no delay after it.
	assert.Len(t, delays, 2)
}

func TestRetrierStopsOnContextCancel(t *testing.T) {
	boom := errors.New("boom")
	client := &fakeClient{errs: []error{boom, boom, boom}}
	ctx, cancel := context.WithCancel(context.Background())

	r := Retrier{Sleep: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}}

	_, err := r.Call(ctx, client, Request{Parts: TextParts("hi")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.calls)
}
