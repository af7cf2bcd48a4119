package locks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSlotLock(t *testing.T) {
	t.Run("один слот получает один экземпляр блокировки", func(t *testing.T) {
		m := NewManager()

		first := m.SlotLock(7)
		second := m.SlotLock(7)
		other := m.SlotLock(8)

		assert.Same(t, first, second)
		assert.NotSame(t, first, other)
		assert.Equal(t, 2, m.Size())
	})

	t.Run("виртуальный слот получает свежую блокировку вне реестра", func(t *testing.T) {
		m := NewManager()

		first := m.SlotLock(0)
		second := m.SlotLock(0)

		assert.NotSame(t, first, second)
		assert.Equal(t, 0, m.Size())
	})

	t.Run("RemoveSlotLock убирает блокировку из реестра", func(t *testing.T) {
		m := NewManager()
		m.SlotLock(7)

		m.RemoveSlotLock(7)

		assert.Equal(t, 0, m.Size())
	})
}

func TestLockAcquireTimeout(t *testing.T) {
	t.Run("свободная блокировка берется сразу", func(t *testing.T) {
		lock := newLock()

		ok := lock.AcquireTimeout(10 * time.Millisecond)

		require.True(t, ok)
		lock.Release()
	})

	t.Run("занятая блокировка не берется в пределах таймаута", func(t *testing.T) {
		lock := newLock()
		lock.Acquire()
		defer lock.Release()

		ok := lock.AcquireTimeout(20 * time.Millisecond)

		assert.False(t, ok)
	})

	t.Run("ожидающий получает блокировку после освобождения", func(t *testing.T) {
		lock := newLock()
		lock.Acquire()

		acquired := make(chan bool)
		go func() {
			acquired <- lock.AcquireTimeout(time.Second)
		}()

		time.Sleep(10 * time.Millisecond)
		lock.Release()

		select {
		case ok := <-acquired:
			require.True(t, ok)
			lock.Release()
		case <-time.After(2 * time.Second):
			t.Fatal("waiter never acquired the lock")
		}
	})

	t.Run("TryAcquire не ждет", func(t *testing.T) {
		lock := newLock()

		require.True(t, lock.TryAcquire())
		assert.False(t, lock.TryAcquire())
		lock.Release()
		assert.True(t, lock.TryAcquire())
		lock.Release()
	})
}

func TestManagerSweep(t *testing.T) {
	t.Run("удаляет незанятые блокировки и сохраняет удерживаемые", func(t *testing.T) {
		m := NewManager()
		idle := m.SlotLock(1)
		_ = idle
		held := m.SlotLock(2)
		held.Acquire()
		m.FormLock(3)

		removed := m.Sweep()

		assert.Equal(t, 2, removed)
		assert.Equal(t, 1, m.Size())

		held.Release()
		assert.Equal(t, 1, m.Sweep())
		assert.Equal(t, 0, m.Size())
	})

	t.Run("блокировка, полученная до чистки, остается взаимоисключающей", func(t *testing.T) {
		m := NewManager()

		before := m.SlotLock(5)
		m.Sweep()
		after := m.SlotLock(5)
		require.NotSame(t, before, after)

		before.Acquire()
		assert.False(t, after.TryAcquire())

		before.Release()
		require.True(t, after.AcquireTimeout(time.Second))
		assert.False(t, before.TryAcquire())
		after.Release()
	})

	t.Run("чистка во время взятия не снимает блокировку с держателя", func(t *testing.T) {
		m := NewManager()

		lock := m.SlotLock(5)
		lock.Acquire()
		assert.Equal(t, 0, m.Sweep())

		waiter := m.SlotLock(5)
		assert.False(t, waiter.TryAcquire())
		lock.Release()
		assert.True(t, waiter.TryAcquire())
		waiter.Release()
	})
}
