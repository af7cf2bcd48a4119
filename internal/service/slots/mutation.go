package slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// UpdateSlot применяет правку границ слота к сетке дня. При изменении времени
// окончания соседние слоты либо сдвигаются (shift), либо сетка дня
// сохраняется, а разрыв закрывается слотом-заполнителем.
func (s *Service) UpdateSlot(ctx context.Context, slot *domain.Slot, previousEnd time.Time, shift bool) error {
	date := slot.Date()
	planning, err := s.loadPlanning(ctx, slot.FormID, date, date)
	if err != nil {
		return err
	}
	weekDefinition := planning.weekDefinitionFor(date)
	rule := planning.ruleFor(date)
	if weekDefinition == nil || rule == nil {
		return ErrNoPlanningDefined
	}
	workingDay := weekDefinition.WorkingDayOfWeekDay(isoWeekday(date))

	slot.IsSpecific = isSpecificInterval(slot.StartingDateTime, slot.EndingDateTime, workingDay)

	endingTimeChanged := !slot.EndingDateTime.Equal(previousEnd)
	if endingTimeChanged {
		if shift {
			err = s.updateSlotWithShift(ctx, slot, previousEnd, weekDefinition, rule, workingDay)
		} else {
			err = s.updateSlotWithoutShift(ctx, slot, weekDefinition, rule, workingDay)
		}
		if err != nil {
			return err
		}
	}

	if _, err := s.SaveSlot(ctx, slot); err != nil {
		return err
	}
	if endingTimeChanged {
		s.events.Publish(notify.Event{Type: notify.EventSlotEndingTimeChanged, FormID: slot.FormID, SlotID: slot.ID})
	}
	return nil
}

// updateSlotWithoutShift правит слот, не двигая остальную сетку дня.
// Поглощенные новым интервалом слоты удаляются, разрыв до следующего слота
// закрывается одним закрытым слотом-заполнителем.
func (s *Service) updateSlotWithoutShift(ctx context.Context, slot *domain.Slot, weekDefinition *domain.WeekDefinition, rule *domain.ReservationRule, workingDay *domain.WorkingDay) error {
	date := slot.Date()
	dayPersisted, err := s.slots.FindByFormAndDateRange(ctx, slot.FormID, startOfDay(date), endOfDay(date))
	if err != nil {
		return fmt.Errorf("%w: updateSlotWithoutShift - fetch persisted slots: %v", ErrInternal, err)
	}

	// Сохраненные слоты, чье начало попало внутрь нового интервала, больше
	// не существуют в сетке
	remaining := make([]*domain.Slot, 0, len(dayPersisted))
	for _, ps := range dayPersisted {
		if ps.ID != slot.ID && ps.StartingDateTime.After(slot.StartingDateTime) && !ps.StartingDateTime.After(slot.EndingDateTime) {
			if err := s.DeleteSlot(ctx, ps); err != nil {
				return err
			}
			continue
		}
		remaining = append(remaining, ps)
	}

	nextStart := s.findNextSlotStart(slot, remaining, workingDay)
	if nextStart.IsZero() {
		if workingDay == nil {
			// Нерабочий день: сетки шаблонов нет, хвост дня заполняется
			// слотами по длительности правила
			dayEnd := timeAt(domain.MaxEndingTimeOfDays(weekDefinition.WorkingDays), date)
			for _, filler := range s.GenerateSlotsAfter(slot.FormID, slot.EndingDateTime, dayEnd, rule, workingDay, slot.MaxCapacity) {
				if _, err := s.SaveSlot(ctx, filler); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if slot.EndingDateTime.Before(nextStart) {
		filler := newVirtualSlot(slot.FormID, slot.EndingDateTime, nextStart, slot.MaxCapacity, false, true)
		if _, err := s.SaveSlot(ctx, filler); err != nil {
			return err
		}
	}
	return nil
}

// findNextSlotStart находит начало следующего слота после правленого:
// ближайший сохраненный в будущем, иначе ближайший шаблон рабочего дня
func (s *Service) findNextSlotStart(slot *domain.Slot, dayPersisted []*domain.Slot, workingDay *domain.WorkingDay) time.Time {
	candidates := make([]time.Time, 0, len(dayPersisted))
	for _, ps := range dayPersisted {
		if ps.ID != slot.ID && !ps.StartingDateTime.Before(slot.EndingDateTime) {
			candidates = append(candidates, ps.StartingDateTime)
		}
	}
	if next := domain.ClosestDateTimeInFuture(candidates, slot.EndingDateTime); !next.IsZero() {
		return next
	}

	if workingDay == nil {
		return time.Time{}
	}
	template := workingDay.NextTimeSlotAfter(types.NewTimeString(slot.EndingDateTime))
	if template == nil {
		return time.Time{}
	}
	return timeAt(template.StartingTime, slot.Date())
}

// updateSlotWithShift правит слот, сдвигая последующие слоты дня на разницу
// времени окончания. Слоты, вытолкнутые за границу дня, удаляются;
// освободившийся хвост дня заполняется заново.
func (s *Service) updateSlotWithShift(ctx context.Context, slot *domain.Slot, previousEnd time.Time, weekDefinition *domain.WeekDefinition, rule *domain.ReservationRule, workingDay *domain.WorkingDay) error {
	date := slot.Date()

	var dayEndTime types.TimeString
	if workingDay != nil {
		dayEndTime = workingDay.MaxEndingTime()
	} else {
		dayEndTime = domain.MaxEndingTimeOfDays(weekDefinition.WorkingDays)
	}
	dayEnd := timeAt(dayEndTime, date)

	daySlots, err := s.BuildSlotList(ctx, slot.FormID, date, date)
	if err != nil {
		return err
	}

	followers := make([]*domain.Slot, 0, len(daySlots))
	for _, ds := range daySlots {
		if !ds.StartingDateTime.After(slot.StartingDateTime) {
			continue
		}
		// Слоты, целиком накрытые новым интервалом, удаляются
		if !ds.EndingDateTime.After(slot.EndingDateTime) {
			if err := s.DeleteSlot(ctx, ds); err != nil {
				return err
			}
			continue
		}
		followers = append(followers, ds)
	}

	// Сдвиг меняет время начала, поэтому все затронутые слоты должны
	// существовать в БД до правки
	for i, f := range followers {
		persisted, err := s.CreateSlotIfAbsent(ctx, f)
		if err != nil {
			return err
		}
		followers[i] = persisted
	}
	sort.Slice(followers, func(i, j int) bool {
		return followers[i].StartingDateTime.Before(followers[j].StartingDateTime)
	})

	if slot.EndingDateTime.After(previousEnd) {
		return s.shiftFollowersForward(ctx, slot, followers, dayEnd)
	}
	return s.shiftFollowersBackward(ctx, slot, previousEnd, followers, dayEnd, rule, workingDay)
}

// shiftFollowersForward сдвигает последующие слоты вперед так, чтобы первый
// из них начинался на новом времени окончания правленого слота
func (s *Service) shiftFollowersForward(ctx context.Context, slot *domain.Slot, followers []*domain.Slot, dayEnd time.Time) error {
	if len(followers) == 0 {
		return nil
	}
	timeToAdd := slot.EndingDateTime.Sub(followers[0].StartingDateTime)

	// Обход с конца, чтобы сдвинутый слот не столкнулся со следующим по
	// времени начала
	for i := len(followers) - 1; i >= 0; i-- {
		f := followers[i]
		f.StartingDateTime = f.StartingDateTime.Add(timeToAdd)
		f.EndingDateTime = f.EndingDateTime.Add(timeToAdd)

		if !f.StartingDateTime.Before(dayEnd) {
			if err := s.DeleteSlot(ctx, f); err != nil {
				return err
			}
			continue
		}
		if f.EndingDateTime.After(dayEnd) {
			f.EndingDateTime = dayEnd
		}
		if _, err := s.SaveSlot(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// shiftFollowersBackward сдвигает последующие слоты назад и заполняет
// освободившийся хвост дня новыми слотами
func (s *Service) shiftFollowersBackward(ctx context.Context, slot *domain.Slot, previousEnd time.Time, followers []*domain.Slot, dayEnd time.Time, rule *domain.ReservationRule, workingDay *domain.WorkingDay) error {
	timeToSubtract := previousEnd.Sub(slot.EndingDateTime)

	for _, f := range followers {
		f.StartingDateTime = f.StartingDateTime.Add(-timeToSubtract)
		f.EndingDateTime = f.EndingDateTime.Add(-timeToSubtract)
		if _, err := s.SaveSlot(ctx, f); err != nil {
			return err
		}
	}

	for _, filler := range s.GenerateSlotsAfter(slot.FormID, dayEnd.Add(-timeToSubtract), dayEnd, rule, workingDay, 0) {
		if _, err := s.SaveSlot(ctx, filler); err != nil {
			return err
		}
	}
	return nil
}

// FindSlotsImpactedByTimeSlot находит сохраненные слоты, которые заденет
// правка шаблона временного интервала. Диапазон поиска идет от даты
// применения определения недели до даты применения следующего определения,
// иначе до конца действия формы, иначе до самого позднего сохраненного слота.
func (s *Service) FindSlotsImpactedByTimeSlot(ctx context.Context, form *domain.Form, timeSlot *domain.TimeSlot, workingDay *domain.WorkingDay, weekDefinition *domain.WeekDefinition, shift bool) ([]*domain.Slot, error) {
	startDate := weekDefinition.DateOfApply
	endDate, err := s.impactRangeEnd(ctx, form, weekDefinition)
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return []*domain.Slot{}, nil
	}

	persisted, err := s.slots.FindByFormAndDateRange(ctx, form.ID, startOfDay(startDate), endOfDay(endDate))
	if err != nil {
		return nil, fmt.Errorf("%w: FindSlotsImpactedByTimeSlot - fetch persisted slots: %v", ErrInternal, err)
	}

	impacted := make([]*domain.Slot, 0)
	for _, ps := range persisted {
		if isoWeekday(ps.StartingDateTime) != workingDay.DayOfWeek {
			continue
		}
		tsStart := timeAt(timeSlot.StartingTime, ps.Date())
		tsEnd := timeAt(timeSlot.EndingTime, ps.Date())

		straddles := ps.StartingDateTime.Before(tsStart) && ps.EndingDateTime.After(tsStart)
		if shift {
			if !ps.StartingDateTime.Before(tsStart) || straddles {
				impacted = append(impacted, ps)
			}
			continue
		}
		startsAt := ps.StartingDateTime.Equal(tsStart)
		inside := ps.StartingDateTime.After(tsStart) && !ps.EndingDateTime.After(tsEnd)
		if startsAt || straddles || inside {
			impacted = append(impacted, ps)
		}
	}
	return impacted, nil
}

// impactRangeEnd возвращает конец диапазона поиска затронутых слотов
func (s *Service) impactRangeEnd(ctx context.Context, form *domain.Form, weekDefinition *domain.WeekDefinition) (time.Time, error) {
	weekDefinitions, err := s.planning.FindWeekDefinitionsByForm(ctx, form.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: impactRangeEnd - fetch week definitions: %v", ErrInternal, err)
	}

	var nextDateOfApply time.Time
	for _, wd := range weekDefinitions {
		if !wd.DateOfApply.After(weekDefinition.DateOfApply) {
			continue
		}
		if nextDateOfApply.IsZero() || wd.DateOfApply.Before(nextDateOfApply) {
			nextDateOfApply = wd.DateOfApply
		}
	}
	if !nextDateOfApply.IsZero() {
		return nextDateOfApply.AddDate(0, 0, -1), nil
	}
	if form.EndingValidityDate != nil {
		return *form.EndingValidityDate, nil
	}

	maxSlot, err := s.slots.FindSlotWithMaxDate(ctx, form.ID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return weekDefinition.DateOfApply, nil
		}
		return time.Time{}, fmt.Errorf("%w: impactRangeEnd - fetch max slot date: %v", ErrInternal, err)
	}
	return maxSlot.StartingDateTime, nil
}
