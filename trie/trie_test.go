package trie

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrieAddMatch(t *testing.T) {
	tr := New()
	first := tr.Add([]byte("topic/a"), PipeID(1))
	require.True(t, first)

	var matched []PipeID
	tr.Match([]byte("topic/a/1"), func(p PipeID) { matched = append(matched, p) })
	require.Equal(t, []PipeID{1}, matched)

	matched = nil
	tr.Match([]byte("topic/b/2"), func(p PipeID) { matched = append(matched, p) })
	require.Empty(t, matched)
}

func TestTrieMultipleSubscribersOnePrefix(t *testing.T) {
	tr := New()
	require.True(t, tr.Add([]byte("x"), PipeID(1)))
	require.False(t, tr.Add([]byte("x"), PipeID(2))) // already subscribed by someone

	var matched []PipeID
	tr.Match([]byte("xyz"), func(p PipeID) { matched = append(matched, p) })
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
	require.Equal(t, []PipeID{1, 2}, matched)
}

func TestTrieRemoveLastUnsubscribe(t *testing.T) {
	tr := New()
	tr.Add([]byte("x"), PipeID(1))
	last := tr.Remove([]byte("x"), PipeID(1))
	require.True(t, last)
	require.False(t, tr.CheckMatch([]byte("xyz")))
}

func TestTrieRemoveAllForPipe(t *testing.T) {
	tr := New()
	tr.Add([]byte("a"), PipeID(1))
	tr.Add([]byte("b"), PipeID(1))
	tr.Add([]byte("a"), PipeID(2))

	tr.RemoveAll(PipeID(1))
	require.False(t, tr.CheckMatch([]byte("b")))
	require.True(t, tr.CheckMatch([]byte("a")))
}
