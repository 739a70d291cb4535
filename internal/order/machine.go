// Package order реализует жизненный цикл заказа: машину состояний
// переходов и сервис, применяющий переходы через хранилище.
package order

import "github.com/dkorovin/lunchbot-system/internal/model"

// StateKind — вид состояния заказа для пары (пользователь, дата).
type StateKind int

const (
	// StateAbsent — активного заказа нет и не было.
	StateAbsent StateKind = iota
	// StateActive — есть активный заказ с количеством порций.
	StateActive
	// StateCancelled — последний заказ отменён.
	StateCancelled
)

// State описывает текущее состояние заказа.
type State struct {
	Kind     StateKind
	Quantity int
}

// Event — событие, инициированное действием пользователя.
type Event int

const (
	// EventPlace — оформить новый заказ.
	EventPlace Event = iota
	// EventIncrement — увеличить количество порций.
	EventIncrement
	// EventDecrement — уменьшить количество порций.
	EventDecrement
	// EventCancel — явно отменить заказ.
	EventCancel
)

// Outcome классифицирует итог перехода для отображения пользователю.
type Outcome int

const (
	// OutcomeOK — переход выполнен.
	OutcomeOK Outcome = iota
	// OutcomeWindowClosed — отказ временного окна, состояние не изменилось.
	OutcomeWindowClosed
	// OutcomeAlreadyOrdered — активный заказ уже существует.
	OutcomeAlreadyOrdered
	// OutcomeLimitReached — достигнут максимум порций.
	OutcomeLimitReached
	// OutcomeNotFound — активного заказа нет, изменять нечего.
	OutcomeNotFound
	// OutcomeAutoCancelled — уменьшение ниже минимума отменило заказ.
	OutcomeAutoCancelled
	// OutcomeCancelled — заказ отменён явно.
	OutcomeCancelled
)

// Decision — результат вычисления перехода: следующее состояние и итог.
// При отказах Next совпадает с текущим состоянием.
type Decision struct {
	Next    State
	Outcome Outcome
}

// Apply вычисляет переход машины состояний для события ev из состояния cur.
// Функция чистая: не обращается к хранилищу и не проверяет временное окно,
// окончательное слово за хранилищем (ограничения схемы БД).
func Apply(cur State, ev Event) Decision {
	switch ev {
	case EventPlace:
		// Повторный заказ после отмены — это новый независимый заказ.
		if cur.Kind == StateActive {
			return Decision{Next: cur, Outcome: OutcomeAlreadyOrdered}
		}
		return Decision{
			Next:    State{Kind: StateActive, Quantity: model.MinQuantity},
			Outcome: OutcomeOK,
		}

	case EventIncrement:
		if cur.Kind != StateActive {
			return Decision{Next: cur, Outcome: OutcomeNotFound}
		}
		if cur.Quantity+1 > model.MaxQuantity {
			return Decision{Next: cur, Outcome: OutcomeLimitReached}
		}
		return Decision{
			Next:    State{Kind: StateActive, Quantity: cur.Quantity + 1},
			Outcome: OutcomeOK,
		}

	case EventDecrement:
		if cur.Kind != StateActive {
			return Decision{Next: cur, Outcome: OutcomeNotFound}
		}
		if cur.Quantity-1 < model.MinQuantity {
			// Уменьшение до нуля — штатный переход в отмену, не ошибка.
			return Decision{
				Next:    State{Kind: StateCancelled},
				Outcome: OutcomeAutoCancelled,
			}
		}
		return Decision{
			Next:    State{Kind: StateActive, Quantity: cur.Quantity - 1},
			Outcome: OutcomeOK,
		}

	case EventCancel:
		if cur.Kind != StateActive {
			// Повторная отмена идемпотентна: состояние не меняется.
			return Decision{Next: cur, Outcome: OutcomeNotFound}
		}
		return Decision{
			Next:    State{Kind: StateCancelled},
			Outcome: OutcomeCancelled,
		}
	}

	return Decision{Next: cur, Outcome: OutcomeNotFound}
}
