package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("evt-%d", s.n)
}

type TimeoutError struct{ msg string }

func (e *TimeoutError) Error() string { return e.msg }

// freezeClock pins the package clock and returns a function that advances it.
func freezeClock(t *testing.T) func(time.Duration) {
	t.Helper()
	current := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = orig })
	return func(d time.Duration) { current = current.Add(d) }
}

func mustCreate(t *testing.T, transition string, args ...any) *Event {
	t.Helper()
	e, err := Create(&seqIDs{}, "tx-1", transition, args...)
	require.NoError(t, err)
	return e
}

func TestCreate(t *testing.T) {
	e := mustCreate(t, "activate", "user:42")

	assert.Equal(t, "evt-1", e.ID())
	assert.Equal(t, "tx-1", e.TransactionID())
	assert.Equal(t, "activate", e.Transition())
	assert.Equal(t, StatusNew, e.Status())
	assert.True(t, e.IsNew())
	assert.Equal(t, 1, e.AttemptsCount())
	assert.NotZero(t, e.CreatedAt())
	assert.Zero(t, e.UpdatedAt())
	assert.Empty(t, e.CacheKeys())
	assert.Nil(t, e.Failure())
	assert.Nil(t, e.Destination())
	assert.Nil(t, e.Changes())

	require.Len(t, e.Args(), 1)
	var arg string
	require.NoError(t, e.Arg(0, &arg))
	assert.Equal(t, "user:42", arg)
}

func TestCreate_MissingTransactionID(t *testing.T) {
	e, err := Create(&seqIDs{}, "", "activate")
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrMissingTransactionID)
}

func TestCreate_UnencodableArg(t *testing.T) {
	e, err := Create(&seqIDs{}, "tx-1", "activate", make(chan int))
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestArg_OutOfRange(t *testing.T) {
	e := mustCreate(t, "activate")
	var v string
	assert.Error(t, e.Arg(0, &v))
	assert.Error(t, e.Arg(-1, &v))
}

func TestArgs_ReturnsCopy(t *testing.T) {
	e := mustCreate(t, "activate", "user:42")
	args := e.Args()
	args[0][1] = 'X'

	var arg string
	require.NoError(t, e.Arg(0, &arg))
	assert.Equal(t, "user:42", arg)
}

func TestStartThenComplete(t *testing.T) {
	e := mustCreate(t, "activate", "user:42")

	e.Start()
	assert.True(t, e.IsStarted())
	assert.NotZero(t, e.UpdatedAt())

	require.NoError(t, e.Complete(map[string]bool{"active": true}, "active"))
	assert.Equal(t, StatusSuccess, e.Status())
	assert.True(t, e.IsSuccess())

	var dest string
	require.NoError(t, e.DecodeDestination(&dest))
	assert.Equal(t, "active", dest)

	var changes map[string]bool
	require.NoError(t, e.DecodeChanges(&changes))
	assert.Equal(t, map[string]bool{"active": true}, changes)
	assert.JSONEq(t, `{"active":true}`, string(e.Changes()))
}

func TestLinkError(t *testing.T) {
	advance := freezeClock(t)
	e := mustCreate(t, "activate", "user:42")
	e.Start()
	advance(time.Second)

	e.LinkError(&TimeoutError{msg: "slow"})

	assert.True(t, e.IsFailed())
	f := e.Failure()
	require.NotNil(t, f)
	assert.Equal(t, "TimeoutError", f.Kind)
	assert.Equal(t, "slow", f.Message)
	assert.Equal(t, now(), f.CreatedAt)
	assert.Equal(t, now(), e.UpdatedAt())
}

func TestLinkFailure_ReplacesPrevious(t *testing.T) {
	e := mustCreate(t, "activate")
	e.LinkFailure(Failure{Kind: "First", Message: "one"})
	e.LinkFailure(Failure{Kind: "Second", Message: "two"})

	f := e.Failure()
	require.NotNil(t, f)
	assert.Equal(t, "Second", f.Kind)
	assert.Equal(t, "two", f.Message)
}

func TestAttemptRetry(t *testing.T) {
	advance := freezeClock(t)
	e := mustCreate(t, "activate")
	e.Start()
	e.LinkError(&TimeoutError{msg: "slow"})
	failedAt := e.UpdatedAt()

	advance(time.Minute)
	e.AttemptRetry()

	assert.Equal(t, 2, e.AttemptsCount())
	assert.True(t, e.UpdatedAt().After(failedAt))
	assert.True(t, e.IsFailed(), "retry does not change status on its own")

	e.Start()
	assert.True(t, e.IsStarted())
	assert.NotNil(t, e.Failure(), "the last failure stays visible while retrying")
}

func TestComplete_ClearsFailure(t *testing.T) {
	e := mustCreate(t, "activate")
	e.LinkError(errors.New("boom"))
	e.AttemptRetry()
	e.Start()

	require.NoError(t, e.Complete(nil, "active"))
	assert.Nil(t, e.Failure())
	assert.True(t, e.IsSuccess())
}

func TestComplete_UnencodableLeavesEventUntouched(t *testing.T) {
	e := mustCreate(t, "activate")
	e.Start()
	before, err := e.Dump()
	require.NoError(t, err)

	err = e.Complete(func() {}, "active")
	assert.ErrorIs(t, err, ErrEncode)

	after, err := e.Dump()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestCompletionFieldsOnlyOnSuccess(t *testing.T) {
	tests := []struct {
		name  string
		after func(e *Event)
	}{
		{"start after complete", func(e *Event) { e.Start() }},
		{"failure after complete", func(e *Event) { e.LinkFailure(Failure{Kind: "Late"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustCreate(t, "activate")
			require.NoError(t, e.Complete("c", "d"))
			tt.after(e)

			assert.False(t, e.IsSuccess())
			assert.Nil(t, e.Destination())
			assert.Nil(t, e.Changes())
			assert.Error(t, e.DecodeChanges(new(string)))
		})
	}
}

func TestIdentityImmutable(t *testing.T) {
	e := mustCreate(t, "activate")
	id, tx := e.ID(), e.TransactionID()

	e.Start()
	e.LinkError(errors.New("boom"))
	e.AttemptRetry()
	e.Start()
	require.NoError(t, e.Complete(1, 2))

	assert.Equal(t, id, e.ID())
	assert.Equal(t, tx, e.TransactionID())
}

func TestCache(t *testing.T) {
	e := mustCreate(t, "activate")

	var v int
	ok, err := e.CacheGet("token", &v)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.CacheSet("token", 7))
	require.NoError(t, e.CacheSet("attempt", "a"))
	assert.Equal(t, []string{"attempt", "token"}, e.CacheKeys())

	ok, err = e.CacheGet("token", &v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	// Status changes never clear the cache.
	e.LinkError(errors.New("boom"))
	require.NoError(t, e.Complete(nil, nil))
	assert.Len(t, e.CacheKeys(), 2)

	assert.ErrorIs(t, e.CacheSet("bad", make(chan int)), ErrEncode)
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status Status
		check  func(*Event) bool
	}{
		{StatusNew, (*Event).IsNew},
		{StatusStarted, (*Event).IsStarted},
		{StatusFailed, (*Event).IsFailed},
		{StatusRetry, (*Event).IsRetry},
		{StatusSuccess, (*Event).IsSuccess},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			e := &Event{status: tt.status}
			assert.True(t, tt.check(e))
			for _, other := range tests {
				if other.status != tt.status {
					assert.False(t, other.check(e))
				}
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("done")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestRunnable(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		attempts int
		want     bool
	}{
		{"new", StatusNew, 1, true},
		{"failed below max", StatusFailed, 2, true},
		{"failed at max", StatusFailed, 3, false},
		{"started", StatusStarted, 1, false},
		{"success", StatusSuccess, 1, false},
		{"retry", StatusRetry, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{status: tt.status, attemptsCount: tt.attempts}
			assert.Equal(t, tt.want, Runnable(e, 3))
		})
	}
}

func TestArgs_RawJSON(t *testing.T) {
	e := mustCreate(t, "activate", map[string]int{"n": 1}, []string{"a"})
	args := e.Args()
	require.Len(t, args, 2)
	assert.Equal(t, json.RawMessage(`{"n":1}`), args[0])
	assert.Equal(t, json.RawMessage(`["a"]`), args[1])
}
