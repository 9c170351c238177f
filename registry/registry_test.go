package registry

import (
	"sync"
	"testing"

	"github.com/pqiaohaoq/gochan/channel"
	"github.com/pqiaohaoq/gochan/holder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MakeAndLookup(t *testing.T) {
	r := New()

	ch, err := Make[int](r, "numbers", 4)
	require.NoError(t, err)
	assert.Equal(t, "numbers", ch.Name())

	got, err := Lookup[int](r, "numbers")
	require.NoError(t, err)
	assert.Same(t, ch, got)

	_, err = Lookup[string](r, "numbers")
	assert.ErrorIs(t, err, holder.ErrTypeMismatch)

	_, err = Lookup[int](r, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_MakeRejects(t *testing.T) {
	r := New()

	_, err := Make[int](r, "", 1)
	assert.ErrorIs(t, err, ErrNameIsEmpty)

	_, err = Make[int](r, "dup", 1)
	require.NoError(t, err)

	_, err = Make[string](r, "dup", 1)
	assert.ErrorIs(t, err, ErrDuplicatedName)
	assert.Equal(t, 1, r.Count())
}

func Test_CloseAndDestroy(t *testing.T) {
	r := New()

	ch, err := Make[int](r, "a", 1)
	require.NoError(t, err)

	require.NoError(t, r.Close("a"))
	assert.True(t, ch.IsClosed())
	assert.ErrorIs(t, r.Close("b"), ErrNotFound)

	r.Destroy("a")
	assert.True(t, ch.IsDestroyed())
	assert.Equal(t, 0, r.Count())

	r.Destroy("a")
}

func Test_DestroyAllUnblocks(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	errs := make(chan error, 4)

	for _, name := range []string{"c", "a", "b"} {
		ch, err := Make[int](r, name, 0)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ch.Receive()
			errs <- err
		}()
	}

	assert.Equal(t, []string{"a", "b", "c"}, r.Names())

	r.DestroyAll()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, channel.ErrDestroyed)
	}
	assert.Equal(t, 0, r.Count())
}

func Test_Globals(t *testing.T) {
	r := New()
	prev := L()

	ReplaceGlobals(r)
	defer ReplaceGlobals(prev)

	assert.Same(t, r, L())
}
