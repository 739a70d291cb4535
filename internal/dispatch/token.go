// Package dispatch разбирает токены действий интерактивных кнопок
// и проводит каждое действие через политику, сервис заказов и транспорт.
package dispatch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadToken возвращается для искажённого или устаревшего токена действия.
var ErrBadToken = errors.New("malformed action token")

// Verb — закрытый набор глаголов действий.
type Verb int

const (
	// VerbNoop — информационная кнопка без действия.
	VerbNoop Verb = iota
	// VerbPlace — оформить заказ.
	VerbPlace
	// VerbIncrement — увеличить количество порций.
	VerbIncrement
	// VerbDecrement — уменьшить количество порций.
	VerbDecrement
	// VerbChange — открыть режим изменения количества.
	VerbChange
	// VerbCancel — отменить заказ.
	VerbCancel
	// VerbConfirm — подтвердить изменения и вернуться к дневному виду.
	VerbConfirm
)

var verbNames = map[Verb]string{
	VerbNoop:      "noop",
	VerbPlace:     "order",
	VerbIncrement: "inc",
	VerbDecrement: "dec",
	VerbChange:    "change",
	VerbCancel:    "cancel",
	VerbConfirm:   "confirm",
}

func (v Verb) String() string {
	if s, ok := verbNames[v]; ok {
		return s
	}
	return "unknown"
}

var verbsByToken = map[string]Verb{
	"order":   VerbPlace,
	"inc":     VerbIncrement,
	"dec":     VerbDecrement,
	"change":  VerbChange,
	"cancel":  VerbCancel,
	"confirm": VerbConfirm,
}

// Selector — валидированная цель действия: либо смещение в днях,
// либо абсолютная календарная дата.
type Selector struct {
	offset   int
	date     time.Time
	absolute bool
}

// OffsetSelector задаёт цель как смещение в днях относительно «сегодня».
func OffsetSelector(days int) Selector {
	return Selector{offset: days}
}

// DateSelector задаёт цель как абсолютную дату.
func DateSelector(d time.Time) Selector {
	return Selector{date: d, absolute: true}
}

// Resolve превращает селектор в целевую дату. Смещение применяется
// к текущему моменту диспетчеризации, а не к моменту создания токена:
// «вчерашний» относительный токен указывает на дату относительно сегодня.
// Абсолютные даты стабильны во времени.
func (s Selector) Resolve(now time.Time) time.Time {
	loc := now.Location()
	if s.absolute {
		y, m, d := s.date.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, s.offset)
}

// Action — разобранный токен: глагол и цель.
type Action struct {
	Verb     Verb
	Selector Selector
}

// ParseAction разбирает токен вида verb_selector, где selector — это
// целое смещение в днях со знаком либо дата в формате ГГГГ-ММ-ДД.
func ParseAction(token string) (Action, error) {
	if token == "noop" {
		return Action{Verb: VerbNoop}, nil
	}

	verbPart, selPart, ok := strings.Cut(token, "_")
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrBadToken, token)
	}

	verb, ok := verbsByToken[verbPart]
	if !ok {
		return Action{}, fmt.Errorf("%w: unknown verb in %q", ErrBadToken, token)
	}

	if offset, err := strconv.Atoi(selPart); err == nil {
		return Action{Verb: verb, Selector: OffsetSelector(offset)}, nil
	}

	if d, err := time.Parse("2006-01-02", selPart); err == nil {
		return Action{Verb: verb, Selector: DateSelector(d)}, nil
	}

	return Action{}, fmt.Errorf("%w: bad selector in %q", ErrBadToken, token)
}
