// Package view формирует текст и клавиатуру представлений меню и заказов.
package view

import (
	"fmt"
	"time"

	"github.com/dkorovin/lunchbot-system/internal/menu"
	"github.com/dkorovin/lunchbot-system/internal/model"
)

// Button — кнопка встроенной клавиатуры с токеном действия.
type Button struct {
	Text         string
	CallbackData string
}

// Page — отрисованное представление: текст и клавиатура.
type Page struct {
	Text     string
	Keyboard [][]Button
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// Day — данные для отрисовки одного дня.
type Day struct {
	Date      time.Time
	Offset    int // смещение в днях для токенов кнопок
	Dishes    menu.Dishes
	HasMenu   bool
	Holiday   string
	Order     *model.Order // nil, если активного заказа нет
	CanModify bool
}

func dayTitle(d time.Time) string {
	return fmt.Sprintf("%s (%s)", weekdayNames[d.Weekday()], d.Format("02.01"))
}

func menuText(d Day) string {
	return fmt.Sprintf(
		"🍽 Меню на %s:\n1. 🍲 Первое: %s\n2. 🍛 Основное блюдо: %s\n3. 🥗 Салат: %s",
		dayTitle(d.Date), d.Dishes.First, d.Dishes.Main, d.Dishes.Salad,
	)
}

// DayPage отрисовывает дневное представление: меню, статус заказа
// и кнопки действий в зависимости от состояния и временного окна.
func DayPage(d Day) Page {
	if d.Holiday != "" {
		return Page{Text: fmt.Sprintf("📅 %s — %s! Меню не предусмотрено.", dayTitle(d.Date), d.Holiday)}
	}
	if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return Page{Text: fmt.Sprintf("⏳ %s — выходной! Меню не предусмотрено.", dayTitle(d.Date))}
	}
	if !d.HasMenu {
		return Page{Text: fmt.Sprintf("ℹ️ Меню на %s не загружено.", dayTitle(d.Date))}
	}

	p := Page{Text: menuText(d)}

	if d.Order != nil {
		kind := "Заказ"
		if d.Order.IsPreliminary {
			kind = "Предзаказ"
		}
		p.Text += fmt.Sprintf("\n\n✅ %s: %d порц.", kind, d.Order.Quantity)

		if d.CanModify {
			p.Keyboard = [][]Button{
				{{Text: "✏️ Изменить количество", CallbackData: fmt.Sprintf("change_%d", d.Offset)}},
				{{Text: "❌ Отменить заказ", CallbackData: fmt.Sprintf("cancel_%d", d.Offset)}},
			}
		} else {
			p.Keyboard = [][]Button{
				{{Text: "ℹ️ Заказ оформлен (изменение невозможно)", CallbackData: "noop"}},
			}
		}
		return p
	}

	if d.CanModify {
		p.Keyboard = [][]Button{
			{{Text: "✅ Заказать", CallbackData: fmt.Sprintf("order_%d", d.Offset)}},
		}
	} else {
		p.Keyboard = [][]Button{
			{{Text: "⏳ Приём заказов завершён", CallbackData: "noop"}},
		}
	}
	return p
}

// EditPage отрисовывает режим изменения количества порций.
func EditPage(d Day) Page {
	qty := 0
	if d.Order != nil {
		qty = d.Order.Quantity
	}

	text := menuText(d) + fmt.Sprintf("\n\n🛒 Текущий заказ: %d порц.", qty)

	return Page{
		Text: text,
		Keyboard: [][]Button{
			{
				{Text: "➖ Уменьшить", CallbackData: fmt.Sprintf("dec_%d", d.Offset)},
				{Text: "➕ Увеличить", CallbackData: fmt.Sprintf("inc_%d", d.Offset)},
			},
			{{Text: "✔️ Подтвердить", CallbackData: fmt.Sprintf("confirm_%d", d.Offset)}},
			{{Text: "❌ Отменить заказ", CallbackData: fmt.Sprintf("cancel_%d", d.Offset)}},
		},
	}
}

// WeekPage отрисовывает обзор недели: по разделу на каждый рабочий день
// и кнопки заказа для дней, ещё доступных и без активного заказа.
func WeekPage(days []Day) Page {
	if len(days) == 0 {
		return Page{Text: "ℹ️ Меню на неделю не загружено."}
	}

	p := Page{Text: "📅 Меню на неделю:"}
	for _, d := range days {
		p.Text += "\n\n"

		switch {
		case d.Holiday != "":
			p.Text += fmt.Sprintf("📅 %s — %s! Меню не предусмотрено.", dayTitle(d.Date), d.Holiday)
			continue
		case !d.HasMenu:
			p.Text += fmt.Sprintf("ℹ️ Меню на %s не загружено.", dayTitle(d.Date))
			continue
		}

		p.Text += menuText(d)

		if d.Order != nil {
			kind := "Заказ"
			if d.Order.IsPreliminary {
				kind = "Предзаказ"
			}
			p.Text += fmt.Sprintf("\n✅ %s: %d порц.", kind, d.Order.Quantity)
			continue
		}

		if d.CanModify {
			p.Keyboard = append(p.Keyboard, []Button{{
				Text:         fmt.Sprintf("✅ Заказать на %s", d.Date.Format("02.01")),
				CallbackData: fmt.Sprintf("order_%d", d.Offset),
			}})
		}
	}
	return p
}

// OrdersPage отрисовывает список активных заказов пользователя
// с кнопками отмены по абсолютной дате.
func OrdersPage(orders []model.Order) Page {
	if len(orders) == 0 {
		return Page{Text: "ℹ️ У вас нет активных заказов."}
	}

	p := Page{Text: "📋 Ваши заказы:"}
	for _, o := range orders {
		kind := ""
		if o.IsPreliminary {
			kind = " (предзаказ)"
		}
		p.Text += fmt.Sprintf("\n• %s — %d порц.%s", dayTitle(o.TargetDate), o.Quantity, kind)
		p.Keyboard = append(p.Keyboard, []Button{{
			Text:         fmt.Sprintf("❌ Отменить %s", o.TargetDate.Format("02.01")),
			CallbackData: "cancel_" + o.TargetDate.Format("2006-01-02"),
		}})
	}
	return p
}
