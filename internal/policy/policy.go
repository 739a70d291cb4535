// Package policy реализует правила временного окна для изменения заказов.
package policy

import "time"

// Время окончания приёма заказов на текущий день.
const (
	cutoffHour   = 9
	cutoffMinute = 30
)

// Reason объясняет причину отказа во временном окне.
type Reason int

const (
	// ReasonNone — отказ отсутствует, изменение разрешено.
	ReasonNone Reason = iota
	// ReasonWeekend — заказы на выходные дни не принимаются.
	ReasonWeekend
	// ReasonCutoff — приём заказов на сегодня завершён в 9:30.
	ReasonCutoff
	// ReasonPast — заказы на прошедшие даты изменять нельзя.
	ReasonPast
)

// CanModify сообщает, разрешено ли в момент now создавать или изменять заказ
// на дату targetDate. Правила, в порядке проверки: выходные запрещены всегда;
// будущие даты разрешены всегда; сегодняшняя дата — только до 9:30;
// прошедшие даты запрещены. Функция чистая, now передаётся явно.
func CanModify(targetDate, now time.Time) bool {
	return Check(targetDate, now) == ReasonNone
}

// Check возвращает причину отказа для пары (targetDate, now)
// либо ReasonNone, если изменение разрешено.
func Check(targetDate, now time.Time) Reason {
	// Сравниваются календарные даты; часовой пояс обоих аргументов
	// должен быть деловым поясом сервиса.
	target := dateOnly(targetDate, now.Location())
	today := dateOnly(now, now.Location())

	if wd := target.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return ReasonWeekend
	}

	switch {
	case target.After(today):
		return ReasonNone
	case target.Equal(today):
		if beforeCutoff(now) {
			return ReasonNone
		}
		return ReasonCutoff
	default:
		return ReasonPast
	}
}

func beforeCutoff(now time.Time) bool {
	h, m, _ := now.Clock()
	if h != cutoffHour {
		return h < cutoffHour
	}
	return m < cutoffMinute
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
