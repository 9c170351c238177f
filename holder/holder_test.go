package holder

import (
	"reflect"
	"testing"
	"time"

	"github.com/pqiaohaoq/gochan/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EmptyHolder(t *testing.T) {
	var h Holder

	assert.False(t, h.IsInitialized())
	assert.Nil(t, h.Type())
	assert.Equal(t, 0, h.Cap())
	assert.ErrorIs(t, h.Send(1), ErrUninitialized)
	assert.ErrorIs(t, h.Close(), ErrUninitialized)

	_, err := h.Receive()
	assert.ErrorIs(t, err, ErrUninitialized)

	h.Destroy()
}

func Test_SendReceive(t *testing.T) {
	h := New[string](2)

	assert.True(t, h.IsInitialized())
	assert.Equal(t, reflect.TypeOf(""), h.Type())
	assert.Equal(t, 2, h.Cap())

	require.NoError(t, h.Send("a"))
	require.NoError(t, h.Send("b"))

	v, err := h.Receive()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	ch, ok := Typed[string](h)
	require.True(t, ok)

	s, err := ch.Receive()
	require.NoError(t, err)
	assert.Equal(t, "b", s)

	_, ok = Typed[int](h)
	assert.False(t, ok)
}

func Test_TypeMismatch(t *testing.T) {
	h := New[int](1)

	assert.ErrorIs(t, h.Send("ten"), ErrTypeMismatch)

	ch, _ := Typed[int](h)
	assert.Equal(t, 0, ch.Len())
}

func Test_CloseForwards(t *testing.T) {
	h := New[int](1)
	require.NoError(t, h.Send(1))
	require.NoError(t, h.Close())

	assert.True(t, h.IsClosed())
	assert.ErrorIs(t, h.Send(2), channel.ErrClosed)

	v, err := h.Receive()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = h.Receive()
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func Test_DestroyUnblocksThroughHolder(t *testing.T) {
	h := New[int](0)

	done := make(chan error, 1)
	go func() {
		_, err := h.Receive()
		done <- err
	}()

	ch, _ := Typed[int](h)
	assert.Eventually(t, func() bool {
		_, r := ch.Pending()
		return r == 1
	}, time.Second, 5*time.Millisecond)

	h.Destroy()

	assert.ErrorIs(t, <-done, channel.ErrDestroyed)
	assert.ErrorIs(t, h.Send(1), channel.ErrDestroyed)
}

func Test_ResetDestroysPrevious(t *testing.T) {
	h := New[int](1)
	old, _ := Typed[int](h)

	ch := Reset[float64](h, 3)

	assert.True(t, old.IsDestroyed())
	assert.Equal(t, 3, h.Cap())
	assert.Equal(t, reflect.TypeOf(float64(0)), h.Type())

	require.NoError(t, h.Send(1.5))
	v, err := ch.Receive()
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
}
