// Package model содержит доменные сущности сервиса заказа обедов.
package model

import "time"

// MinQuantity и MaxQuantity задают допустимый диапазон порций активного заказа.
// Диапазон продублирован CHECK-ограничением в схеме БД.
const (
	MinQuantity = 1
	MaxQuantity = 3
)

// User представляет сотрудника, зарегистрированного в боте.
// Регистрацией и верификацией управляет отдельная подсистема,
// ядро заказов только читает эти данные.
type User struct {
	ID         int64
	TelegramID int64
	FullName   string
	Phone      string
	Location   string
	IsVerified bool
	CreatedAt  time.Time
}

// Order описывает заказ обеда на конкретную календарную дату.
type Order struct {
	ID            int64
	UserID        int64
	TargetDate    time.Time // дата, на которую заказан обед, а не дата оформления
	Quantity      int
	IsPreliminary bool // предзаказ, оформленный на будущую дату
	IsCancelled   bool // отменённые заказы сохраняются, а не удаляются
	OrderTime     time.Time
	CreatedAt     time.Time
}

// ReportRow — строка выгрузки заказов за период для отчётных подсистем.
type ReportRow struct {
	FullName      string    `json:"full_name"`
	Location      string    `json:"location"`
	TargetDate    time.Time `json:"target_date"`
	Quantity      int       `json:"quantity"`
	IsPreliminary bool      `json:"is_preliminary"`
	IsCancelled   bool      `json:"is_cancelled"`
}

// LocationTotal — суммарное количество порций по объекту за один день.
type LocationTotal struct {
	Location string `json:"location"`
	Portions int64  `json:"portions"`
}
