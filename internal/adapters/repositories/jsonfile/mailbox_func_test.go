package jsonfile

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_DrainEmpty(t *testing.T) {
	m := NewMailbox(filepath.Join(t.TempDir(), MailboxFile))

	items, err := m.Drain()
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = m.Drain()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMailbox_DrainResets(t *testing.T) {
	m := NewMailbox(filepath.Join(t.TempDir(), MailboxFile))
	require.NoError(t, m.Append("job-42.json"))

	items, err := m.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{"job-42.json"}, items)

	items, err = m.Drain()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMailbox_RequeueKeepsOrder(t *testing.T) {
	m := NewMailbox(filepath.Join(t.TempDir(), MailboxFile))
	require.NoError(t, m.Append("a.json"))
	require.NoError(t, m.Append("b.json"))

	items, err := m.Drain()
	require.NoError(t, err)
	require.NoError(t, m.Append("c.json"))
	require.NoError(t, m.Requeue(items))

	items, err = m.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "c.json"}, items)
}

func TestMailbox_NoLostAppends(t *testing.T) {
	m := NewMailbox(filepath.Join(t.TempDir(), MailboxFile))

	const producers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		drained []string
	)
	for i := 0; i < producers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Append("log.json"))
		}()
		go func() {
			defer wg.Done()
			items, err := m.Drain()
			assert.NoError(t, err)
			mu.Lock()
			drained = append(drained, items...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	rest, err := m.Drain()
	require.NoError(t, err)
	assert.Len(t, append(drained, rest...), producers)
}
