package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// planningContext загруженное расписание формы: определения недель, правила
// бронирования и дни закрытия для диапазона дат
type planningContext struct {
	weekDefinitions []*domain.WeekDefinition
	rules           []domain.ReservationRule
	closingDates    map[string]bool
}

// weekDefinitionFor возвращает определение недели, действующее на дату:
// с ближайшей датой применения в прошлом
func (p *planningContext) weekDefinitionFor(date time.Time) *domain.WeekDefinition {
	dates := make([]time.Time, 0, len(p.weekDefinitions))
	for _, wd := range p.weekDefinitions {
		dates = append(dates, wd.DateOfApply)
	}
	closest := domain.ClosestDateInPast(dates, date)
	if closest.IsZero() {
		return nil
	}
	for _, wd := range p.weekDefinitions {
		if wd.DateOfApply.Equal(closest) {
			return wd
		}
	}
	return nil
}

// ruleFor возвращает правило бронирования, действующее на дату
func (p *planningContext) ruleFor(date time.Time) *domain.ReservationRule {
	dates := make([]time.Time, 0, len(p.rules))
	for _, r := range p.rules {
		dates = append(dates, r.DateOfApply)
	}
	closest := domain.ClosestDateInPast(dates, date)
	if closest.IsZero() {
		return nil
	}
	for i := range p.rules {
		if p.rules[i].DateOfApply.Equal(closest) {
			return &p.rules[i]
		}
	}
	return nil
}

func (p *planningContext) isClosed(date time.Time) bool {
	return p.closingDates[date.Format(domain.DateFormat)]
}

// loadPlanning загружает расписание формы для диапазона дат
func (s *Service) loadPlanning(ctx context.Context, formID int64, startDate, endDate time.Time) (*planningContext, error) {
	weekDefinitions, err := s.planning.FindWeekDefinitionsByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("%w: loadPlanning - fetch week definitions: %v", ErrInternal, err)
	}
	rules, err := s.rules.FindByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("%w: loadPlanning - fetch reservation rules: %v", ErrInternal, err)
	}
	closingDates, err := s.planning.FindClosingDates(ctx, formID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: loadPlanning - fetch closing dates: %v", ErrInternal, err)
	}

	closed := make(map[string]bool, len(closingDates))
	for _, d := range closingDates {
		closed[d.Format(domain.DateFormat)] = true
	}
	return &planningContext{
		weekDefinitions: weekDefinitions,
		rules:           rules,
		closingDates:    closed,
	}, nil
}

// BuildSlotList строит слоты формы на диапазон дат. Сохраненные слоты имеют
// приоритет над виртуальными: слот, сгенерированный из шаблона, подменяется
// строкой из БД с тем же временем начала.
func (s *Service) BuildSlotList(ctx context.Context, formID int64, startDate, endDate time.Time) ([]*domain.Slot, error) {
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	planning, err := s.loadPlanning(ctx, formID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(planning.weekDefinitions) == 0 || len(planning.rules) == 0 {
		return nil, ErrNoPlanningDefined
	}

	// Генерация не начинается раньше первого действующего правила
	firstDateOfApply := domain.FirstDateOfApply(planning.rules)
	if startDate.Before(firstDateOfApply) {
		startDate = firstDateOfApply
	}

	persisted, err := s.slots.FindByFormAndDateRange(ctx, formID, startOfDay(startDate), endOfDay(endDate))
	if err != nil {
		return nil, fmt.Errorf("%w: BuildSlotList - fetch persisted slots: %v", ErrInternal, err)
	}
	persistedByStart := make(map[string]*domain.Slot, len(persisted))
	for _, ps := range persisted {
		persistedByStart[slotKey(ps.StartingDateTime)] = ps
	}

	result := make([]*domain.Slot, 0)
	for date := startOfDay(startDate); !date.After(endDate); date = date.AddDate(0, 0, 1) {
		result = append(result, s.buildDaySlots(formID, date, planning, persistedByStart)...)
	}
	return result, nil
}

// buildDaySlots строит слоты одного календарного дня
func (s *Service) buildDaySlots(formID int64, date time.Time, planning *planningContext, persistedByStart map[string]*domain.Slot) []*domain.Slot {
	weekDefinition := planning.weekDefinitionFor(date)
	rule := planning.ruleFor(date)
	if weekDefinition == nil || rule == nil {
		return nil
	}

	if planning.isClosed(date) {
		return s.buildClosingDaySlot(formID, date, weekDefinition, rule, persistedByStart)
	}

	workingDay := weekDefinition.WorkingDayOfWeekDay(isoWeekday(date))
	if workingDay != nil {
		return s.buildWorkingDaySlots(formID, date, workingDay, rule, persistedByStart)
	}
	return s.buildNonWorkingDaySlots(formID, date, weekDefinition, rule, persistedByStart)
}

// buildClosingDaySlot строит один закрытый слот на весь рабочий интервал дня
// закрытия
func (s *Service) buildClosingDaySlot(formID int64, date time.Time, weekDefinition *domain.WeekDefinition, rule *domain.ReservationRule, persistedByStart map[string]*domain.Slot) []*domain.Slot {
	minStart := domain.MinStartingTimeOfDays(weekDefinition.WorkingDays)
	maxEnd := domain.MaxEndingTimeOfDays(weekDefinition.WorkingDays)
	if minStart.IsZero() || maxEnd.IsZero() {
		return nil
	}

	start := timeAt(minStart, date)
	if ps, ok := persistedByStart[slotKey(start)]; ok {
		return []*domain.Slot{ps}
	}
	slot := newVirtualSlot(formID, start, timeAt(maxEnd, date), rule.MaxCapacityPerSlot, false, false)
	return []*domain.Slot{slot}
}

// buildWorkingDaySlots строит слоты рабочего дня по шаблонам. Курсор идет от
// самого раннего шаблона; разрыв в сетке шаблонов завершает день.
func (s *Service) buildWorkingDaySlots(formID int64, date time.Time, workingDay *domain.WorkingDay, rule *domain.ReservationRule, persistedByStart map[string]*domain.Slot) []*domain.Slot {
	maxEnd := workingDay.MaxEndingTime()
	cursor := workingDay.MinStartingTime()
	if cursor.IsZero() {
		return nil
	}

	result := make([]*domain.Slot, 0)
	for {
		template := workingDay.TimeSlotStartingAt(cursor)
		if template == nil {
			break
		}

		capacity := template.MaxCapacity
		if capacity == 0 {
			capacity = rule.MaxCapacityPerSlot
		}

		start := timeAt(cursor, date)
		if ps, ok := persistedByStart[slotKey(start)]; ok {
			result = append(result, ps)
		} else {
			result = append(result, newVirtualSlot(formID, start, timeAt(template.EndingTime, date), capacity, template.IsOpen, false))
		}

		cursor = template.EndingTime
		if !cursor.IsBefore(maxEnd) {
			break
		}
	}
	return result
}

// buildNonWorkingDaySlots строит закрытые слоты нерабочего дня с шагом
// минимальной длительности шаблона недели
func (s *Service) buildNonWorkingDaySlots(formID int64, date time.Time, weekDefinition *domain.WeekDefinition, rule *domain.ReservationRule, persistedByStart map[string]*domain.Slot) []*domain.Slot {
	minStart := domain.MinStartingTimeOfDays(weekDefinition.WorkingDays)
	maxEnd := domain.MaxEndingTimeOfDays(weekDefinition.WorkingDays)
	if minStart.IsZero() || maxEnd.IsZero() {
		return nil
	}

	duration := domain.MinSlotDurationOfDays(weekDefinition.WorkingDays)
	if duration == 0 {
		duration = rule.DurationMinutes
	}
	if duration == 0 {
		duration = domain.DefaultSlotDurationMinutes
	}

	result := make([]*domain.Slot, 0)
	cursor := minStart
	for cursor.IsBefore(maxEnd) {
		end, err := cursor.AddMinutes(duration)
		if err != nil || !end.IsAfter(cursor) {
			end = maxEnd
		}
		if end.IsAfter(maxEnd) {
			end = maxEnd
		}

		start := timeAt(cursor, date)
		if ps, ok := persistedByStart[slotKey(start)]; ok {
			result = append(result, ps)
		} else {
			result = append(result, newVirtualSlot(formID, start, timeAt(end, date), rule.MaxCapacityPerSlot, false, false))
		}
		cursor = end
	}
	return result
}

// GenerateSlotsAfter строит закрытые слоты-заполнители от указанного момента
// до конца дня с шагом длительности правила. Последний слот урезается до
// границы дня.
func (s *Service) GenerateSlotsAfter(formID int64, from, dayEnd time.Time, rule *domain.ReservationRule, workingDay *domain.WorkingDay, capacity int) []*domain.Slot {
	duration := rule.DurationMinutes
	if duration == 0 {
		duration = domain.DefaultSlotDurationMinutes
	}
	if capacity == 0 {
		capacity = rule.MaxCapacityPerSlot
	}

	result := make([]*domain.Slot, 0)
	cursor := from
	for cursor.Before(dayEnd) {
		end := cursor.Add(time.Duration(duration) * time.Minute)
		if end.After(dayEnd) {
			end = dayEnd
		}
		slot := newVirtualSlot(formID, cursor, end, capacity, false, isSpecificInterval(cursor, end, workingDay))
		result = append(result, slot)
		cursor = end
	}
	return result
}

// FindFirstFreeOpenSlotDate ищет начало ближайшего открытого слота со
// свободными местами в пределах horizonDays от from. Возвращает нулевое
// время, если свободных слотов в горизонте нет.
func (s *Service) FindFirstFreeOpenSlotDate(ctx context.Context, formID int64, from time.Time, horizonDays int) (time.Time, error) {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultFreeSlotSearchHorizonDays
	}

	slots, err := s.BuildSlotList(ctx, formID, startOfDay(from), endOfDay(from.AddDate(0, 0, horizonDays)))
	if err != nil {
		return time.Time{}, err
	}
	for _, slot := range slots {
		if slot.IsOpen && slot.NbPotentialRemainingPlaces > 0 && slot.EndingDateTime.After(from) {
			return slot.StartingDateTime, nil
		}
	}
	return time.Time{}, nil
}

// isSpecificInterval возвращает true, если интервал не совпадает ни с одним
// шаблоном рабочего дня
func isSpecificInterval(start, end time.Time, workingDay *domain.WorkingDay) bool {
	if workingDay == nil {
		return true
	}
	startTime := types.NewTimeString(start)
	endTime := types.NewTimeString(end)
	for _, ts := range workingDay.TimeSlots {
		if ts.StartingTime.Equal(startTime) && ts.EndingTime.Equal(endTime) {
			return false
		}
	}
	return true
}

func newVirtualSlot(formID int64, start, end time.Time, capacity int, isOpen, isSpecific bool) *domain.Slot {
	return &domain.Slot{
		FormID:                     formID,
		StartingDateTime:           start,
		EndingDateTime:             end,
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
		NbPlacesTaken:              0,
		IsOpen:                     isOpen,
		IsSpecific:                 isSpecific,
	}
}

func slotKey(start time.Time) string {
	return start.Format(domain.DateTimeFormat)
}

// timeAt совмещает валидированное время HH:MM с датой
func timeAt(t types.TimeString, date time.Time) time.Time {
	v, _ := t.AtDate(date)
	return v
}

// isoWeekday возвращает день недели по ISO-8601: 1 = понедельник .. 7 = воскресенье
func isoWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
