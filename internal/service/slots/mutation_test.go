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

func persistedMondaySlot(id int64, start, end time.Time) *domain.Slot {
	return &domain.Slot{
		ID:                         id,
		FormID:                     1,
		StartingDateTime:           start,
		EndingDateTime:             end,
		MaxCapacity:                2,
		NbRemainingPlaces:          2,
		NbPotentialRemainingPlaces: 2,
		IsOpen:                     true,
	}
}

func TestUpdateSlotWithoutShift(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC)

	t.Run("укорачивание слота закрывает разрыв заполнителем", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{persisted: []*domain.Slot{persistedMondaySlot(42, start, end)}, nextID: 42}
		svc, pub := newTestService(repo, planning, rules)

		edited := *repo.persisted[0]
		edited.EndingDateTime = time.Date(2025, time.October, 13, 9, 15, 0, 0, time.UTC)

		err := svc.UpdateSlot(ctx, &edited, end, false)

		require.NoError(t, err)
		// разрыв 09:15-09:30 до следующего шаблона закрыт отдельным слотом
		require.Len(t, repo.created, 1)
		filler := repo.created[0]
		assert.Equal(t, edited.EndingDateTime, filler.StartingDateTime)
		assert.Equal(t, end, filler.EndingDateTime)
		assert.False(t, filler.IsOpen)
		assert.True(t, filler.IsSpecific)
		assert.Equal(t, 2, filler.MaxCapacity)

		require.Len(t, repo.updated, 1)
		assert.Equal(t, int64(42), repo.updated[0].ID)
		assert.True(t, repo.updated[0].IsSpecific) // интервал больше не совпадает с шаблоном

		require.NotEmpty(t, pub.events)
		assert.Equal(t, notify.EventSlotEndingTimeChanged, pub.events[len(pub.events)-1].Type)
		assert.Equal(t, int64(42), pub.events[len(pub.events)-1].SlotID)
	})

	t.Run("удлинение слота удаляет поглощенные соседние слоты", func(t *testing.T) {
		planning, rules := mondayPlanning()
		neighbour := persistedMondaySlot(43,
			time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC),
			time.Date(2025, time.October, 13, 10, 0, 0, 0, time.UTC),
		)
		repo := &fakeSlotRepo{persisted: []*domain.Slot{persistedMondaySlot(42, start, end), neighbour}, nextID: 43}
		svc, _ := newTestService(repo, planning, rules)

		edited := *repo.persisted[0]
		edited.EndingDateTime = time.Date(2025, time.October, 13, 10, 0, 0, 0, time.UTC)

		err := svc.UpdateSlot(ctx, &edited, end, false)

		require.NoError(t, err)
		assert.Contains(t, repo.deleted, int64(43))
		assert.Empty(t, repo.created) // день закончился, заполнитель не нужен
		require.Len(t, repo.updated, 1)
		assert.Equal(t, time.Date(2025, time.October, 13, 10, 0, 0, 0, time.UTC), repo.updated[0].EndingDateTime)
	})
}

func TestUpdateSlotWithShift(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC)

	t.Run("удлинение сдвигает следующий слот вперед с урезанием по границе дня", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{persisted: []*domain.Slot{persistedMondaySlot(42, start, end)}, nextID: 42}
		svc, _ := newTestService(repo, planning, rules)

		edited := *repo.persisted[0]
		edited.EndingDateTime = time.Date(2025, time.October, 13, 9, 45, 0, 0, time.UTC)

		err := svc.UpdateSlot(ctx, &edited, end, true)

		require.NoError(t, err)
		// виртуальный сосед 09:30-10:00 сохранен перед сдвигом
		follower, err := repo.FindByID(ctx, 43)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.October, 13, 9, 45, 0, 0, time.UTC), follower.StartingDateTime)
		// конец дня 10:00 не двигается, сдвинутый слот урезан
		assert.Equal(t, time.Date(2025, time.October, 13, 10, 0, 0, 0, time.UTC), follower.EndingDateTime)
	})

	t.Run("укорачивание сдвигает следующий слот назад и заполняет хвост дня", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{persisted: []*domain.Slot{persistedMondaySlot(42, start, end)}, nextID: 42}
		svc, _ := newTestService(repo, planning, rules)

		edited := *repo.persisted[0]
		edited.EndingDateTime = time.Date(2025, time.October, 13, 9, 20, 0, 0, time.UTC)

		err := svc.UpdateSlot(ctx, &edited, end, true)

		require.NoError(t, err)
		follower, err := repo.FindByID(ctx, 43)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.October, 13, 9, 20, 0, 0, time.UTC), follower.StartingDateTime)
		assert.Equal(t, time.Date(2025, time.October, 13, 9, 50, 0, 0, time.UTC), follower.EndingDateTime)

		// освободившиеся 10 минут в конце дня закрыты новым слотом
		var tail *domain.Slot
		for _, created := range repo.created {
			if created.StartingDateTime.Equal(time.Date(2025, time.October, 13, 9, 50, 0, 0, time.UTC)) {
				tail = created
			}
		}
		require.NotNil(t, tail)
		assert.Equal(t, time.Date(2025, time.October, 13, 10, 0, 0, 0, time.UTC), tail.EndingDateTime)
		assert.False(t, tail.IsOpen)
		assert.Equal(t, 2, tail.MaxCapacity) // вместимость из правила
	})
}

func TestFindSlotsImpactedByTimeSlot(t *testing.T) {
	ctx := context.Background()
	form := &domain.Form{ID: 1}

	mondaySlot := func(id int64, day, startHour, startMin, endHour, endMin int) *domain.Slot {
		return persistedMondaySlot(id,
			time.Date(2025, time.October, day, startHour, startMin, 0, 0, time.UTC),
			time.Date(2025, time.October, day, endHour, endMin, 0, 0, time.UTC),
		)
	}

	t.Run("режим без сдвига задевает совпадающие и вложенные слоты", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{persisted: []*domain.Slot{
			mondaySlot(1, 13, 9, 0, 9, 30),  // начинается ровно на шаблоне
			mondaySlot(2, 20, 9, 30, 10, 0), // после шаблона, без сдвига не задет
			mondaySlot(3, 14, 9, 0, 9, 30),  // вторник, другой день недели
			mondaySlot(4, 27, 8, 45, 9, 15), // пересекает начало шаблона
			mondaySlot(5, 13, 9, 10, 9, 25), // целиком внутри шаблона
		}, nextID: 5}
		svc, _ := newTestService(repo, planning, rules)

		weekDefinition := planning.weekDefinitions[0]
		workingDay := &weekDefinition.WorkingDays[0]
		timeSlot := &workingDay.TimeSlots[0]

		impacted, err := svc.FindSlotsImpactedByTimeSlot(ctx, form, timeSlot, workingDay, weekDefinition, false)

		require.NoError(t, err)
		ids := make([]int64, 0, len(impacted))
		for _, slot := range impacted {
			ids = append(ids, slot.ID)
		}
		assert.ElementsMatch(t, []int64{1, 4, 5}, ids)
	})

	t.Run("режим со сдвигом задевает все слоты после начала шаблона", func(t *testing.T) {
		planning, rules := mondayPlanning()
		repo := &fakeSlotRepo{persisted: []*domain.Slot{
			mondaySlot(1, 13, 9, 0, 9, 30),
			mondaySlot(2, 20, 9, 30, 10, 0),
			mondaySlot(3, 14, 9, 0, 9, 30),
			mondaySlot(4, 27, 8, 45, 9, 15),
		}, nextID: 4}
		svc, _ := newTestService(repo, planning, rules)

		weekDefinition := planning.weekDefinitions[0]
		workingDay := &weekDefinition.WorkingDays[0]
		timeSlot := &workingDay.TimeSlots[0]

		impacted, err := svc.FindSlotsImpactedByTimeSlot(ctx, form, timeSlot, workingDay, weekDefinition, true)

		require.NoError(t, err)
		ids := make([]int64, 0, len(impacted))
		for _, slot := range impacted {
			ids = append(ids, slot.ID)
		}
		assert.ElementsMatch(t, []int64{1, 2, 4}, ids)
	})

	t.Run("следующее определение недели ограничивает диапазон поиска", func(t *testing.T) {
		planning, rules := mondayPlanning()
		planning.weekDefinitions = append(planning.weekDefinitions, &domain.WeekDefinition{
			ID:          2,
			FormID:      1,
			DateOfApply: date(2025, time.November, 1),
		})
		repo := &fakeSlotRepo{persisted: []*domain.Slot{
			mondaySlot(1, 13, 9, 0, 9, 30),
			persistedMondaySlot(2,
				time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC),
				time.Date(2025, time.November, 3, 9, 30, 0, 0, time.UTC),
			),
		}, nextID: 2}
		svc, _ := newTestService(repo, planning, rules)

		weekDefinition := planning.weekDefinitions[0]
		workingDay := &weekDefinition.WorkingDays[0]
		timeSlot := &workingDay.TimeSlots[0]

		impacted, err := svc.FindSlotsImpactedByTimeSlot(ctx, form, timeSlot, workingDay, weekDefinition, false)

		require.NoError(t, err)
		require.Len(t, impacted, 1)
		assert.Equal(t, int64(1), impacted[0].ID)
	})

	t.Run("конец действия формы ограничивает диапазон поиска", func(t *testing.T) {
		planning, rules := mondayPlanning()
		validityEnd := date(2025, time.October, 15)
		boundedForm := &domain.Form{ID: 1, EndingValidityDate: &validityEnd}
		repo := &fakeSlotRepo{persisted: []*domain.Slot{
			mondaySlot(1, 13, 9, 0, 9, 30),
			mondaySlot(2, 20, 9, 0, 9, 30),
		}, nextID: 2}
		svc, _ := newTestService(repo, planning, rules)

		weekDefinition := planning.weekDefinitions[0]
		workingDay := &weekDefinition.WorkingDays[0]
		timeSlot := &workingDay.TimeSlots[0]

		impacted, err := svc.FindSlotsImpactedByTimeSlot(ctx, form, timeSlot, workingDay, weekDefinition, false)
		require.NoError(t, err)
		assert.Len(t, impacted, 2)

		impacted, err = svc.FindSlotsImpactedByTimeSlot(ctx, boundedForm, timeSlot, workingDay, weekDefinition, false)
		require.NoError(t, err)
		require.Len(t, impacted, 1)
		assert.Equal(t, int64(1), impacted[0].ID)
	})

	t.Run("без сохраненных слотов диапазон схлопывается до даты применения", func(t *testing.T) {
		planning, rules := mondayPlanning()
		svc, _ := newTestService(&fakeSlotRepo{}, planning, rules)

		weekDefinition := planning.weekDefinitions[0]
		workingDay := &weekDefinition.WorkingDays[0]
		timeSlot := &workingDay.TimeSlots[0]

		impacted, err := svc.FindSlotsImpactedByTimeSlot(ctx, form, timeSlot, workingDay, weekDefinition, false)

		require.NoError(t, err)
		assert.Empty(t, impacted)
	})
}
