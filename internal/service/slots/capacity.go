package slots

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Арифметика счетчиков вместимости слота. Все функции меняют слот в памяти,
// сохранение выполняет вызывающий внутри своей транзакции.

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ApplyRelease возвращает слоту n мест после отмены записи. Счетчики
// ограничены сверху, чтобы слот, ушедший в сверхбронирование, не получил
// больше мест, чем осталось до вместимости.
func ApplyRelease(slot *domain.Slot, n int) {
	newTaken := slot.NbPlacesTaken - n
	slot.NbRemainingPlaces = minInt(minInt(slot.MaxCapacity, slot.NbRemainingPlaces+n), slot.MaxCapacity-newTaken)
	slot.NbPotentialRemainingPlaces = minInt(minInt(slot.MaxCapacity, slot.NbPotentialRemainingPlaces+n), slot.MaxCapacity-newTaken)
	slot.NbPlacesTaken = newTaken
}

// ApplyMoveRelease возвращает слоту n мест при переносе записи на другую
// дату. Отличается от ApplyRelease потолком потенциальных мест: их не может
// стать больше, чем реально свободных.
func ApplyMoveRelease(slot *domain.Slot, n int) {
	newTaken := slot.NbPlacesTaken - n
	newRemaining := minInt(minInt(slot.MaxCapacity, slot.NbRemainingPlaces+n), slot.MaxCapacity-newTaken)
	slot.NbPotentialRemainingPlaces = minInt(minInt(newRemaining, slot.NbPotentialRemainingPlaces+n), slot.MaxCapacity-newTaken)
	slot.NbRemainingPlaces = newRemaining
	slot.NbPlacesTaken = newTaken
}

// ApplyCommit фиксирует занятие nbSeats мест на слоте. heldPlaces - места,
// удержанные этой же сессией до фиксации: они возвращаются в потенциальные за
// вычетом занятых. Возвращает true, если слот ушел в сверхбронирование.
func ApplyCommit(slot *domain.Slot, nbSeats, heldPlaces int, overbookingAllowed bool) (bool, error) {
	slot.NbRemainingPlaces -= nbSeats
	slot.NbPotentialRemainingPlaces = minInt(slot.NbPotentialRemainingPlaces+heldPlaces-nbSeats, slot.NbRemainingPlaces)
	slot.NbPlacesTaken += nbSeats

	if slot.NbPlacesTaken > slot.MaxCapacity {
		if !overbookingAllowed {
			return false, ErrSlotFull
		}
		return true, nil
	}
	return false, nil
}

// ApplyReactivate повторно занимает n мест при возврате отмененной записи.
// Счетчики не ограничиваются: возврат допустим и на заполненный слот.
func ApplyReactivate(slot *domain.Slot, n int) {
	slot.NbRemainingPlaces -= n
	slot.NbPotentialRemainingPlaces -= n
	slot.NbPlacesTaken += n
}

// RefreshRemainingPlaces применяет новую вместимость к слоту, сохраняя
// занятые места: дельта вместимости добавляется к текущим счетчикам, а не
// пересчитывается с нуля.
func RefreshRemainingPlaces(slot *domain.Slot, newMaxCapacity int) {
	delta := newMaxCapacity - slot.MaxCapacity
	slot.MaxCapacity = newMaxCapacity
	slot.NbRemainingPlaces += delta
	slot.NbPotentialRemainingPlaces += delta
}
