package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_SetsCurrent(t *testing.T) {
	n := New(time.Minute, nil, nil)

	n.Success("Upload successful")

	note, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Upload successful", note.Message)
	assert.Equal(t, SeveritySuccess, note.Severity)
	assert.NotEmpty(t, note.ID)
}

func TestPublish_ReplacesPrevious(t *testing.T) {
	n := New(time.Minute, nil, nil)

	n.Success("first")
	n.Error("second")

	note, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "second", note.Message)
	assert.Equal(t, SeverityError, note.Severity)
}

func TestPublish_DistinctIdentities(t *testing.T) {
	n := New(time.Minute, nil, nil)

	n.Success("first")
	first, _ := n.Current()

	n.Success("second")
	second, _ := n.Current()

	assert.NotEqual(t, first.ID, second.ID)
}

func TestDismiss_AutoClearsAfterDisplayDuration(t *testing.T) {
	n := New(10*time.Millisecond, nil, nil)

	n.Warning("about to vanish")

	assert.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestDismiss_StaleTimerDoesNotClearNewerNotification(t *testing.T) {
	n := New(time.Minute, nil, nil)

	n.Success("old")
	old, _ := n.Current()

	n.Error("new")

	// Simulate the old notification's timer firing late.
	n.dismiss(old.ID)

	note, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "new", note.Message)
}

func TestSink_ReceivesEveryNotification(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Notification
	)

	sink := func(note Notification) {
		mu.Lock()
		received = append(received, note)
		mu.Unlock()
	}

	n := New(time.Minute, sink, nil)

	n.Success("one")
	n.Warning("two")
	n.Error("three")

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, received, 3)
	assert.Equal(t, SeveritySuccess, received[0].Severity)
	assert.Equal(t, SeverityWarning, received[1].Severity)
	assert.Equal(t, SeverityError, received[2].Severity)
}

func TestClear(t *testing.T) {
	n := New(time.Minute, nil, nil)

	n.Success("visible")
	n.Clear()

	_, ok := n.Current()
	assert.False(t, ok)
}

func TestDefaultDisplayDuration(t *testing.T) {
	n := New(0, nil, nil)
	assert.Equal(t, DefaultDisplayDuration, n.displayFor)
}
