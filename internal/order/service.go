package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkorovin/lunchbot-system/internal/model"
	"github.com/dkorovin/lunchbot-system/internal/policy"
	"github.com/dkorovin/lunchbot-system/internal/repository"
)

// Store описывает контракт хранилища заказов, используемый сервисом.
// Каждая мутация атомарна: хранилище, а не сервис, является
// окончательной точкой контроля конфликтов.
type Store interface {
	GetActiveOrder(ctx context.Context, userID int64, targetDate time.Time) (*model.Order, error)
	CreateOrder(ctx context.Context, userID int64, targetDate time.Time, quantity int, isPreliminary bool, now time.Time) (int64, error)
	ChangeQuantity(ctx context.Context, userID int64, targetDate time.Time, delta int, now time.Time) (int, bool, error)
	CancelOrder(ctx context.Context, userID int64, targetDate time.Time, now time.Time) error
	GetActiveOrdersFrom(ctx context.Context, userID int64, from time.Time) ([]model.Order, error)
	GetMonthlyPortions(ctx context.Context, userID int64, from, to time.Time) (int64, error)
}

// Result — итог действия пользователя для отображения.
// Отказы политики и конфликты состояния — это штатные значения, а не ошибки.
type Result struct {
	Outcome  Outcome
	Quantity int
	Reason   policy.Reason
}

// DayStatus — состояние заказа на дату для отрисовки дневного представления.
type DayStatus struct {
	Order     *model.Order // nil, если активного заказа нет
	CanModify bool
}

// Service применяет переходы жизненного цикла заказа через хранилище,
// предварительно проверяя временное окно для целевой даты.
type Service struct {
	store Store
}

// NewService создаёт сервис заказов поверх указанного хранилища.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func refusal(reason policy.Reason) Result {
	return Result{Outcome: OutcomeWindowClosed, Reason: reason}
}

// currentState читает активный заказ и строит текущее состояние машины
// переходов. Отменённый и никогда не существовавший заказ для машины
// неразличимы: оба дают StateAbsent.
func (s *Service) currentState(ctx context.Context, userID int64, targetDate time.Time) (State, error) {
	o, err := s.store.GetActiveOrder(ctx, userID, targetDate)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return State{Kind: StateAbsent}, nil
		}
		return State{}, fmt.Errorf("read current state: %w", err)
	}
	return State{Kind: StateActive, Quantity: o.Quantity}, nil
}

// Place оформляет новый заказ на одну порцию на дату targetDate.
// Признак предзаказа фиксируется в момент оформления: дата строго позже
// сегодняшней даёт is_preliminary = true и далее не пересчитывается.
func (s *Service) Place(ctx context.Context, userID int64, targetDate, now time.Time) (Result, error) {
	if reason := policy.Check(targetDate, now); reason != policy.ReasonNone {
		return refusal(reason), nil
	}

	st, err := s.currentState(ctx, userID, targetDate)
	if err != nil {
		return Result{}, err
	}

	// Быстрый путь: машина переходов отсекает конфликт до записи
	// и даёт точное количество в уведомлении. Гонку двух одновременных
	// нажатий закрывает не она, а уникальный индекс хранилища.
	d := Apply(st, EventPlace)
	if d.Outcome != OutcomeOK {
		return Result{Outcome: d.Outcome, Quantity: st.Quantity}, nil
	}

	isPreliminary := isFutureDate(targetDate, now)

	_, err = s.store.CreateOrder(ctx, userID, targetDate, d.Next.Quantity, isPreliminary, now)
	if err != nil {
		if errors.Is(err, repository.ErrOrderExists) {
			return Result{Outcome: OutcomeAlreadyOrdered}, nil
		}
		return Result{}, fmt.Errorf("create order: %w", err)
	}

	return Result{Outcome: OutcomeOK, Quantity: d.Next.Quantity}, nil
}

// Change изменяет количество порций на delta (+1 или -1).
// Уменьшение ниже минимума переводит заказ в отменённые.
func (s *Service) Change(ctx context.Context, userID int64, targetDate time.Time, delta int, now time.Time) (Result, error) {
	if reason := policy.Check(targetDate, now); reason != policy.ReasonNone {
		return refusal(reason), nil
	}

	st, err := s.currentState(ctx, userID, targetDate)
	if err != nil {
		return Result{}, err
	}

	ev := EventIncrement
	if delta < 0 {
		ev = EventDecrement
	}

	// Отсутствующий заказ и достигнутый максимум отсекаются машиной
	// переходов до обращения к хранилищу.
	switch d := Apply(st, ev); d.Outcome {
	case OutcomeNotFound:
		return Result{Outcome: OutcomeNotFound}, nil
	case OutcomeLimitReached:
		return Result{Outcome: OutcomeLimitReached, Quantity: st.Quantity}, nil
	}

	newQty, cancelled, err := s.store.ChangeQuantity(ctx, userID, targetDate, delta, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return Result{Outcome: OutcomeNotFound}, nil
		case errors.Is(err, repository.ErrQuantityLimit):
			return Result{Outcome: OutcomeLimitReached, Quantity: model.MaxQuantity}, nil
		}
		return Result{}, fmt.Errorf("change quantity: %w", err)
	}

	if cancelled {
		return Result{Outcome: OutcomeAutoCancelled}, nil
	}

	return Result{Outcome: OutcomeOK, Quantity: newQty}, nil
}

// Cancel явно отменяет активный заказ. Повторная отмена идемпотентна:
// отсутствие активного заказа даёт OutcomeNotFound, состояние не меняется.
func (s *Service) Cancel(ctx context.Context, userID int64, targetDate, now time.Time) (Result, error) {
	if reason := policy.Check(targetDate, now); reason != policy.ReasonNone {
		return refusal(reason), nil
	}

	st, err := s.currentState(ctx, userID, targetDate)
	if err != nil {
		return Result{}, err
	}

	if d := Apply(st, EventCancel); d.Outcome == OutcomeNotFound {
		return Result{Outcome: OutcomeNotFound}, nil
	}

	err = s.store.CancelOrder(ctx, userID, targetDate, now)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return Result{Outcome: OutcomeNotFound}, nil
		}
		return Result{}, fmt.Errorf("cancel order: %w", err)
	}

	return Result{Outcome: OutcomeCancelled}, nil
}

// DayStatus возвращает состояние заказа пользователя на дату для отрисовки.
func (s *Service) DayStatus(ctx context.Context, userID int64, targetDate, now time.Time) (DayStatus, error) {
	st := DayStatus{CanModify: policy.CanModify(targetDate, now)}

	o, err := s.store.GetActiveOrder(ctx, userID, targetDate)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return st, nil
		}
		return DayStatus{}, fmt.Errorf("day status: %w", err)
	}

	st.Order = o
	return st, nil
}

// Upcoming возвращает активные заказы пользователя начиная с сегодняшней даты.
func (s *Service) Upcoming(ctx context.Context, userID int64, now time.Time) ([]model.Order, error) {
	ny, nm, nd := now.Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())

	orders, err := s.store.GetActiveOrdersFrom(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("upcoming orders: %w", err)
	}
	return orders, nil
}

// MonthlyPortions возвращает суммарное число порций пользователя
// за календарный месяц, содержащий now.
func (s *Service) MonthlyPortions(ctx context.Context, userID int64, now time.Time) (int64, error) {
	ny, nm, _ := now.Date()
	from := time.Date(ny, nm, 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	total, err := s.store.GetMonthlyPortions(ctx, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("monthly portions: %w", err)
	}
	return total, nil
}

func isFutureDate(targetDate, now time.Time) bool {
	ty, tm, td := targetDate.Date()
	ny, nm, nd := now.Date()
	target := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return target.After(today)
}
