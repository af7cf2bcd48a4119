package slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

func TestIncrementMaxCapacity(t *testing.T) {
	ctx := context.Background()

	t.Run("дельта добавляется ко всем счетчикам", func(t *testing.T) {
		planning, rules := mondayPlanning()
		slot := &domain.Slot{
			ID:                         42,
			FormID:                     1,
			StartingDateTime:           time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC),
			EndingDateTime:             time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC),
			MaxCapacity:                2,
			NbRemainingPlaces:          2,
			NbPotentialRemainingPlaces: 2,
			IsOpen:                     true,
		}
		repo := &fakeSlotRepo{persisted: []*domain.Slot{slot}, nextID: 42}
		svc, pub := newTestService(repo, planning, rules)

		updated, err := svc.IncrementMaxCapacity(ctx, 42, 1)

		require.NoError(t, err)
		assert.Equal(t, 3, updated.MaxCapacity)
		assert.Equal(t, 3, updated.NbRemainingPlaces)
		assert.Equal(t, 3, updated.NbPotentialRemainingPlaces)
		// вместимость разошлась с правилом
		assert.True(t, updated.IsSpecific)

		require.NotEmpty(t, pub.events)
		assert.Equal(t, notify.EventSlotChanged, pub.events[len(pub.events)-1].Type)
	})

	t.Run("уменьшение сохраняет занятые места", func(t *testing.T) {
		planning, rules := mondayPlanning()
		slot := &domain.Slot{
			ID:                         42,
			FormID:                     1,
			StartingDateTime:           time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC),
			EndingDateTime:             time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC),
			MaxCapacity:                3,
			NbRemainingPlaces:          1,
			NbPotentialRemainingPlaces: 1,
			NbPlacesTaken:              2,
			IsOpen:                     true,
			IsSpecific:                 true,
		}
		repo := &fakeSlotRepo{persisted: []*domain.Slot{slot}, nextID: 42}
		svc, _ := newTestService(repo, planning, rules)

		updated, err := svc.IncrementMaxCapacity(ctx, 42, -1)

		require.NoError(t, err)
		assert.Equal(t, 2, updated.MaxCapacity)
		assert.Equal(t, 0, updated.NbRemainingPlaces)
		assert.Equal(t, 2, updated.NbPlacesTaken)
		// вместимость снова совпала с правилом
		assert.False(t, updated.IsSpecific)
	})

	t.Run("несуществующий слот", func(t *testing.T) {
		planning, rules := mondayPlanning()
		svc, _ := newTestService(&fakeSlotRepo{}, planning, rules)

		_, err := svc.IncrementMaxCapacity(ctx, 7, 1)

		require.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestIncrementMaxCapacityRange(t *testing.T) {
	ctx := context.Background()
	monday := date(2025, time.October, 13)

	t.Run("правка сохраняет виртуальные слоты и применяет дельту", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{}
		svc, _ := newTestService(repo, planning, rules)

		err := svc.IncrementMaxCapacityRange(ctx, 1, monday, monday, 1, false)

		require.NoError(t, err)
		require.Len(t, repo.persisted, 2)
		for _, ps := range repo.persisted {
			assert.Equal(t, 3, ps.MaxCapacity)
			assert.Equal(t, 3, ps.NbRemainingPlaces)
			assert.True(t, ps.IsSpecific)
		}
	})

	t.Run("шахматный шаг правит слоты через один", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{}
		svc, _ := newTestService(repo, planning, rules)

		err := svc.IncrementMaxCapacityRange(ctx, 1, monday, monday, 1, true)

		require.NoError(t, err)
		// второй слот дня пропущен и остался виртуальным
		require.Len(t, repo.persisted, 1)
		assert.Equal(t, time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC), repo.persisted[0].StartingDateTime)
		assert.Equal(t, 3, repo.persisted[0].MaxCapacity)
	})
}
