package view

import (
	"strings"
	"testing"
	"time"

	"github.com/dkorovin/lunchbot-system/internal/menu"
	"github.com/dkorovin/lunchbot-system/internal/model"
)

var testDishes = menu.Dishes{First: "Борщ", Main: "Плов", Salad: "Оливье"}

func monday() time.Time {
	return time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
}

func flatten(p Page) []string {
	var data []string
	for _, row := range p.Keyboard {
		for _, b := range row {
			data = append(data, b.CallbackData)
		}
	}
	return data
}

func TestDayPage_NoOrderOpenWindow(t *testing.T) {
	p := DayPage(Day{Date: monday(), Offset: 0, Dishes: testDishes, HasMenu: true, CanModify: true})

	if !strings.Contains(p.Text, "Борщ") {
		t.Fatalf("menu text missing dishes: %q", p.Text)
	}
	data := flatten(p)
	if len(data) != 1 || data[0] != "order_0" {
		t.Fatalf("keyboard = %v, want single order_0 button", data)
	}
}

func TestDayPage_NoOrderClosedWindow(t *testing.T) {
	p := DayPage(Day{Date: monday(), Dishes: testDishes, HasMenu: true, CanModify: false})

	data := flatten(p)
	if len(data) != 1 || data[0] != "noop" {
		t.Fatalf("keyboard = %v, want read-only notice", data)
	}
}

func TestDayPage_ActiveOrder(t *testing.T) {
	o := &model.Order{Quantity: 2}
	p := DayPage(Day{Date: monday(), Offset: 1, Dishes: testDishes, HasMenu: true, Order: o, CanModify: true})

	if !strings.Contains(p.Text, "Заказ: 2 порц.") {
		t.Fatalf("text missing order line: %q", p.Text)
	}
	data := flatten(p)
	if len(data) != 2 || data[0] != "change_1" || data[1] != "cancel_1" {
		t.Fatalf("keyboard = %v, want change_1 and cancel_1", data)
	}
}

func TestDayPage_PreliminaryOrderLine(t *testing.T) {
	o := &model.Order{Quantity: 1, IsPreliminary: true}
	p := DayPage(Day{Date: monday(), Dishes: testDishes, HasMenu: true, Order: o, CanModify: true})

	if !strings.Contains(p.Text, "Предзаказ") {
		t.Fatalf("text must mark preliminary order: %q", p.Text)
	}
}

func TestDayPage_Weekend(t *testing.T) {
	saturday := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	p := DayPage(Day{Date: saturday})

	if !strings.Contains(p.Text, "выходной") {
		t.Fatalf("text = %q, want weekend notice", p.Text)
	}
	if len(p.Keyboard) != 0 {
		t.Fatalf("weekend page must have no buttons")
	}
}

func TestDayPage_Holiday(t *testing.T) {
	p := DayPage(Day{Date: monday(), Holiday: "День России"})

	if !strings.Contains(p.Text, "День России") {
		t.Fatalf("text = %q, want holiday name", p.Text)
	}
	if len(p.Keyboard) != 0 {
		t.Fatalf("holiday page must have no buttons")
	}
}

func TestEditPage(t *testing.T) {
	o := &model.Order{Quantity: 2}
	p := EditPage(Day{Date: monday(), Offset: 0, Dishes: testDishes, HasMenu: true, Order: o})

	if !strings.Contains(p.Text, "Текущий заказ: 2 порц.") {
		t.Fatalf("text missing current quantity: %q", p.Text)
	}
	data := flatten(p)
	want := []string{"dec_0", "inc_0", "confirm_0", "cancel_0"}
	if len(data) != len(want) {
		t.Fatalf("keyboard = %v, want %v", data, want)
	}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("keyboard = %v, want %v", data, want)
		}
	}
}

func TestWeekPage(t *testing.T) {
	days := []Day{
		{Date: monday(), Offset: 0, Dishes: testDishes, HasMenu: true, Order: &model.Order{Quantity: 2}, CanModify: true},
		{Date: monday().AddDate(0, 0, 1), Offset: 1, Dishes: testDishes, HasMenu: true, CanModify: true},
		{Date: monday().AddDate(0, 0, 2), Offset: 2, Holiday: "День России"},
		{Date: monday().AddDate(0, 0, 3), Offset: 3},
	}
	p := WeekPage(days)

	if !strings.Contains(p.Text, "Заказ: 2 порц.") {
		t.Fatalf("text missing order line: %q", p.Text)
	}
	if !strings.Contains(p.Text, "День России") {
		t.Fatalf("text missing holiday: %q", p.Text)
	}
	if !strings.Contains(p.Text, "Меню на Четверг (06.06) не загружено") {
		t.Fatalf("text missing no-menu line: %q", p.Text)
	}
	// Кнопка только у вторника: понедельник уже заказан,
	// среда — праздник, четверг без меню.
	data := flatten(p)
	if len(data) != 1 || data[0] != "order_1" {
		t.Fatalf("keyboard = %v, want single order_1 button", data)
	}
}

func TestWeekPage_Empty(t *testing.T) {
	p := WeekPage(nil)
	if !strings.Contains(p.Text, "не загружено") {
		t.Fatalf("text = %q", p.Text)
	}
	if len(p.Keyboard) != 0 {
		t.Fatalf("empty week must have no buttons")
	}
}

func TestOrdersPage(t *testing.T) {
	orders := []model.Order{
		{TargetDate: monday(), Quantity: 1},
		{TargetDate: monday().AddDate(0, 0, 1), Quantity: 2, IsPreliminary: true},
	}
	p := OrdersPage(orders)

	data := flatten(p)
	if len(data) != 2 {
		t.Fatalf("keyboard rows = %d, want 2", len(data))
	}
	if data[0] != "cancel_2024-06-03" || data[1] != "cancel_2024-06-04" {
		t.Fatalf("keyboard = %v, want absolute-date cancel tokens", data)
	}
	if !strings.Contains(p.Text, "(предзаказ)") {
		t.Fatalf("text must mark preliminary orders: %q", p.Text)
	}
}

func TestOrdersPage_Empty(t *testing.T) {
	p := OrdersPage(nil)
	if !strings.Contains(p.Text, "нет активных заказов") {
		t.Fatalf("text = %q", p.Text)
	}
	if len(p.Keyboard) != 0 {
		t.Fatalf("empty list must have no buttons")
	}
}
