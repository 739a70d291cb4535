// Package menu загружает недельное меню и календарь праздников.
// Данные читаются один раз при старте и далее неизменяемы,
// поэтому доступ из конкурентных обработчиков безопасен без блокировок.
package menu

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Dishes описывает состав меню одного дня.
type Dishes struct {
	First string `yaml:"first"`
	Main  string `yaml:"main"`
	Salad string `yaml:"salad"`
}

type fileFormat struct {
	Week     map[string]Dishes `yaml:"week"`
	Holidays map[string]string `yaml:"holidays"`
}

var weekdayKeys = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

// Book — загруженное недельное меню с праздничным календарём.
type Book struct {
	week     map[time.Weekday]Dishes
	holidays map[string]string // ключ: дата в формате 2006-01-02
}

// Load читает и разбирает файл меню.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML-описание меню.
// Дни недели задаются ключами monday..friday; меню на выходные не предусмотрено.
func Parse(data []byte) (*Book, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse menu yaml: %w", err)
	}

	b := &Book{
		week:     make(map[time.Weekday]Dishes, len(f.Week)),
		holidays: make(map[string]string, len(f.Holidays)),
	}

	for key, dishes := range f.Week {
		wd, ok := weekdayKeys[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday key: %q", key)
		}
		b.week[wd] = dishes
	}

	for dateStr, name := range f.Holidays {
		if _, err := time.Parse("2006-01-02", dateStr); err != nil {
			return nil, fmt.Errorf("bad holiday date %q: %w", dateStr, err)
		}
		b.holidays[dateStr] = name
	}

	return b, nil
}

// ForDate возвращает меню на указанную дату.
// Для выходных, праздников и дней без меню возвращает ok=false.
func (b *Book) ForDate(d time.Time) (Dishes, bool) {
	if _, holiday := b.Holiday(d); holiday {
		return Dishes{}, false
	}
	dishes, ok := b.week[d.Weekday()]
	return dishes, ok
}

// Holiday сообщает, приходится ли дата на праздник, и возвращает его название.
func (b *Book) Holiday(d time.Time) (string, bool) {
	name, ok := b.holidays[d.Format("2006-01-02")]
	return name, ok
}

// NextWorkday возвращает следующий рабочий день после указанной даты.
func NextWorkday(d time.Time) time.Time {
	add := 1
	switch d.Weekday() {
	case time.Friday:
		add = 3
	case time.Saturday:
		add = 2
	}
	return d.AddDate(0, 0, add)
}
