package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dkorovin/lunchbot-system/internal/menu"
	"github.com/dkorovin/lunchbot-system/internal/model"
	"github.com/dkorovin/lunchbot-system/internal/order"
	"github.com/dkorovin/lunchbot-system/internal/policy"
	"github.com/dkorovin/lunchbot-system/internal/repository"
	"github.com/dkorovin/lunchbot-system/internal/telegram"
	"github.com/dkorovin/lunchbot-system/internal/view"
)

// Тексты уведомлений пользователю.
const (
	noticePlaced      = "✅ Заказ успешно оформлен"
	noticeCancelled   = "✅ Заказ отменён"
	noticeConfirmed   = "✅ Заказ подтверждён"
	noticeNotFound    = "❌ Заказ не найден"
	noticeLimit       = "ℹ️ Максимум 3 порции"
	noticeWeekend     = "ℹ️ Заказы на выходные не принимаются"
	noticeCutoff      = "ℹ️ Приём заказов на сегодня завершён в 9:30"
	noticePast        = "ℹ️ Заказы на прошедшие даты изменять нельзя"
	noticeUnknown     = "⚠️ Неизвестная команда"
	noticeUnverified  = "❌ Вы не зарегистрированы. Обратитесь к администратору"
	noticeServerError = "⚠️ Произошла ошибка. Попробуйте позже"
)

// Orders — контракт сервиса заказов, используемый диспетчером.
type Orders interface {
	Place(ctx context.Context, userID int64, targetDate, now time.Time) (order.Result, error)
	Change(ctx context.Context, userID int64, targetDate time.Time, delta int, now time.Time) (order.Result, error)
	Cancel(ctx context.Context, userID int64, targetDate, now time.Time) (order.Result, error)
	DayStatus(ctx context.Context, userID int64, targetDate, now time.Time) (order.DayStatus, error)
	Upcoming(ctx context.Context, userID int64, now time.Time) ([]model.Order, error)
	MonthlyPortions(ctx context.Context, userID int64, now time.Time) (int64, error)
}

// Users — контракт подсистемы регистрации: разрешение идентификатора чата
// во внутреннего пользователя.
type Users interface {
	ResolveUser(ctx context.Context, telegramID int64) (*model.User, error)
}

// Transport — минимальный контракт чат-транспорта для обратной связи.
type Transport interface {
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, kb [][]view.Button) error
	SendMessage(ctx context.Context, chatID int64, text string, kb [][]view.Button) error
}

// Dispatcher разбирает действие, проводит его через сервис заказов
// и обновляет представление. Между действиями состояния нет:
// каждое нажатие — независимый проход.
type Dispatcher struct {
	orders    Orders
	users     Users
	transport Transport
	menu      *menu.Book
	clock     func() time.Time
	logger    *zap.Logger
}

// NewDispatcher создаёт диспетчер действий. clock возвращает текущий момент
// в деловом часовом поясе и подменяется в тестах.
func NewDispatcher(orders Orders, users Users, transport Transport, book *menu.Book, clock func() time.Time, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		orders:    orders,
		users:     users,
		transport: transport,
		menu:      book,
		clock:     clock,
		logger:    logger,
	}
}

// HandleUpdate обрабатывает входящее обновление чат-платформы:
// нажатия кнопок идут в HandleCallback, текстовые команды — в HandleCommand.
// Прочие сообщения игнорируются.
func (d *Dispatcher) HandleUpdate(ctx context.Context, u *telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		d.HandleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		d.HandleCommand(ctx, u.Message)
	}
}

// HandleCommand обрабатывает текстовую команду из личного чата.
// Идентификатор личного чата совпадает с идентификатором пользователя.
func (d *Dispatcher) HandleCommand(ctx context.Context, msg *telegram.Message) {
	now := d.clock()
	chatID := msg.Chat.ID

	user, err := d.users.ResolveUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotRegistered) {
			d.send(ctx, chatID, noticeUnverified, nil)
			return
		}
		d.logger.Error("resolve user for command",
			zap.Error(err),
			zap.String("command", msg.Text),
			zap.Int64("chat", chatID),
		)
		d.send(ctx, chatID, noticeServerError, nil)
		return
	}

	cmd, _, _ := strings.Cut(msg.Text, "@")
	switch cmd {
	case "/start", "/menu":
		d.commandMenu(ctx, chatID, user, now)
	case "/week":
		d.commandWeek(ctx, chatID, user, now)
	case "/myorders":
		d.commandMyOrders(ctx, chatID, user, now)
	default:
		d.send(ctx, chatID, noticeUnknown, nil)
	}
}

// commandMenu показывает меню ближайшего рабочего дня с учётом праздников.
func (d *Dispatcher) commandMenu(ctx context.Context, chatID int64, user *model.User, now time.Time) {
	target := now
	if _, ok := d.menu.ForDate(target); !ok {
		target = menu.NextWorkday(now)
	}

	st, err := d.orders.DayStatus(ctx, user.ID, target, now)
	if err != nil {
		d.logger.Error("day status for menu command",
			zap.Error(err),
			zap.Int64("user", user.TelegramID),
		)
		d.send(ctx, chatID, noticeServerError, nil)
		return
	}

	page := view.DayPage(d.dayData(target, dayOffset(now, target), st))
	d.send(ctx, chatID, page.Text, page.Keyboard)
}

// commandWeek показывает обзор ближайших семи дней без выходных:
// меню, статус заказа и кнопки заказа для ещё доступных дней.
func (d *Dispatcher) commandWeek(ctx context.Context, chatID int64, user *model.User, now time.Time) {
	var days []view.Day
	for offset := 0; offset < 7; offset++ {
		target := now.AddDate(0, 0, offset)
		if wd := target.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		st, err := d.orders.DayStatus(ctx, user.ID, target, now)
		if err != nil {
			d.logger.Error("day status for week command",
				zap.Error(err),
				zap.Int64("user", user.TelegramID),
				zap.String("target_date", target.Format("2006-01-02")),
			)
			d.send(ctx, chatID, noticeServerError, nil)
			return
		}
		days = append(days, d.dayData(target, offset, st))
	}

	page := view.WeekPage(days)
	d.send(ctx, chatID, page.Text, page.Keyboard)
}

// commandMyOrders показывает активные заказы с кнопками отмены
// и итог порций за текущий месяц.
func (d *Dispatcher) commandMyOrders(ctx context.Context, chatID int64, user *model.User, now time.Time) {
	orders, err := d.orders.Upcoming(ctx, user.ID, now)
	if err != nil {
		d.logger.Error("upcoming orders",
			zap.Error(err),
			zap.Int64("user", user.TelegramID),
		)
		d.send(ctx, chatID, noticeServerError, nil)
		return
	}

	page := view.OrdersPage(orders)

	if total, err := d.orders.MonthlyPortions(ctx, user.ID, now); err == nil && total > 0 {
		page.Text += fmt.Sprintf("\n\n📊 Порций за месяц: %d", total)
	}

	d.send(ctx, chatID, page.Text, page.Keyboard)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, kb [][]view.Button) {
	if err := d.transport.SendMessage(ctx, chatID, text, kb); err != nil {
		d.logger.Error("send message",
			zap.Error(err),
			zap.Int64("chat", chatID),
		)
	}
}

// HandleCallback — полный проход одного действия:
// разбор токена, разрешение пользователя, переход, обновление представления.
func (d *Dispatcher) HandleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	now := d.clock()

	act, err := ParseAction(cb.Data)
	if err != nil {
		// Искажённый токен — признак устаревшей или подменённой клавиатуры.
		d.logger.Warn("malformed action token",
			zap.String("token", cb.Data),
			zap.Int64("from", cb.From.ID),
		)
		d.answer(ctx, cb, noticeUnknown, false)
		observe("unknown", "parse_failure")
		return
	}

	if act.Verb == VerbNoop {
		d.answer(ctx, cb, "", false)
		return
	}

	user, err := d.users.ResolveUser(ctx, cb.From.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotRegistered) {
			d.answer(ctx, cb, noticeUnverified, true)
			observe(act.Verb.String(), "not_registered")
			return
		}
		// Цель действия ещё не разрешена, поэтому в лог идёт сырой токен.
		d.logger.Error("resolve user for action",
			zap.Error(err),
			zap.String("verb", act.Verb.String()),
			zap.String("token", cb.Data),
			zap.Int64("user", cb.From.ID),
		)
		d.answer(ctx, cb, noticeServerError, true)
		observe(act.Verb.String(), "store_failure")
		return
	}

	target := act.Selector.Resolve(now)
	offset := dayOffset(now, target)

	switch act.Verb {
	case VerbPlace:
		d.handlePlace(ctx, cb, user, target, offset, now)
	case VerbIncrement:
		d.handleChangeQuantity(ctx, cb, user, target, offset, now, +1)
	case VerbDecrement:
		d.handleChangeQuantity(ctx, cb, user, target, offset, now, -1)
	case VerbChange:
		d.handleEditView(ctx, cb, user, target, offset, now)
	case VerbCancel:
		d.handleCancel(ctx, cb, user, target, offset, now)
	case VerbConfirm:
		d.refreshDayView(ctx, cb, user, target, offset, now)
		d.answer(ctx, cb, noticeConfirmed, false)
		observe(act.Verb.String(), "ok")
	}
}

func (d *Dispatcher) handlePlace(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, target time.Time, offset int, now time.Time) {
	res, err := d.orders.Place(ctx, user.ID, target, now)
	if err != nil {
		d.failStore(ctx, cb, VerbPlace, user.TelegramID, target, err)
		return
	}

	switch res.Outcome {
	case order.OutcomeOK:
		d.refreshDayView(ctx, cb, user, target, offset, now)
		d.answer(ctx, cb, noticePlaced, false)
	case order.OutcomeAlreadyOrdered:
		d.answer(ctx, cb, alreadyOrderedNotice(res.Quantity), true)
	case order.OutcomeWindowClosed:
		d.answer(ctx, cb, refusalNotice(res.Reason), true)
	}

	observe(VerbPlace.String(), outcomeLabel(res.Outcome))
}

func (d *Dispatcher) handleChangeQuantity(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, target time.Time, offset int, now time.Time, delta int) {
	verb := VerbIncrement
	if delta < 0 {
		verb = VerbDecrement
	}

	res, err := d.orders.Change(ctx, user.ID, target, delta, now)
	if err != nil {
		d.failStore(ctx, cb, verb, user.TelegramID, target, err)
		return
	}

	switch res.Outcome {
	case order.OutcomeOK:
		d.refreshEditView(ctx, cb, user, target, offset, now)
		d.answer(ctx, cb, quantityNotice(res.Quantity), false)
	case order.OutcomeAutoCancelled:
		d.refreshDayView(ctx, cb, user, target, offset, now)
		d.answer(ctx, cb, noticeCancelled, false)
	case order.OutcomeLimitReached:
		d.answer(ctx, cb, noticeLimit, false)
	case order.OutcomeNotFound:
		d.answer(ctx, cb, noticeNotFound, true)
	case order.OutcomeWindowClosed:
		d.answer(ctx, cb, refusalNotice(res.Reason), true)
	}

	observe(verb.String(), outcomeLabel(res.Outcome))
}

func (d *Dispatcher) handleEditView(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, target time.Time, offset int, now time.Time) {
	st, err := d.orders.DayStatus(ctx, user.ID, target, now)
	if err != nil {
		d.failStore(ctx, cb, VerbChange, user.TelegramID, target, err)
		return
	}

	switch {
	case st.Order == nil:
		d.answer(ctx, cb, noticeNotFound, true)
		observe(VerbChange.String(), outcomeLabel(order.OutcomeNotFound))
	case !st.CanModify:
		// Окно закрыто: представление перерисовывается в режиме «только чтение».
		d.refreshDayView(ctx, cb, user, target, offset, now)
		d.answer(ctx, cb, refusalNotice(policy.Check(target, now)), true)
		observe(VerbChange.String(), outcomeLabel(order.OutcomeWindowClosed))
	default:
		page := view.EditPage(d.dayData(target, offset, st))
		d.edit(ctx, cb, user, page)
		d.answer(ctx, cb, "", false)
		observe(VerbChange.String(), outcomeLabel(order.OutcomeOK))
	}
}

func (d *Dispatcher) handleCancel(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, target time.Time, offset int, now time.Time) {
	res, err := d.orders.Cancel(ctx, user.ID, target, now)
	if err != nil {
		d.failStore(ctx, cb, VerbCancel, user.TelegramID, target, err)
		return
	}

	switch res.Outcome {
	case order.OutcomeCancelled:
		d.logger.Info("order cancelled",
			zap.Int64("user", user.TelegramID),
			zap.String("target_date", target.Format("2006-01-02")),
		)
		d.refreshDayView(ctx, cb, user, target, offset, now)
		d.answer(ctx, cb, noticeCancelled, false)
	case order.OutcomeNotFound:
		d.answer(ctx, cb, noticeNotFound, true)
	case order.OutcomeWindowClosed:
		d.answer(ctx, cb, refusalNotice(res.Reason), true)
	}

	observe(VerbCancel.String(), outcomeLabel(res.Outcome))
}

func (d *Dispatcher) dayData(target time.Time, offset int, st order.DayStatus) view.Day {
	dishes, hasMenu := d.menu.ForDate(target)
	holiday, _ := d.menu.Holiday(target)

	return view.Day{
		Date:      target,
		Offset:    offset,
		Dishes:    dishes,
		HasMenu:   hasMenu,
		Holiday:   holiday,
		Order:     st.Order,
		CanModify: st.CanModify,
	}
}

func (d *Dispatcher) refreshDayView(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, target time.Time, offset int, now time.Time) {
	st, err := d.orders.DayStatus(ctx, user.ID, target, now)
	if err != nil {
		d.logger.Error("day status for refresh",
			zap.Error(err),
			zap.Int64("user", user.TelegramID),
			zap.String("target_date", target.Format("2006-01-02")),
		)
		return
	}
	d.edit(ctx, cb, user, view.DayPage(d.dayData(target, offset, st)))
}

func (d *Dispatcher) refreshEditView(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, target time.Time, offset int, now time.Time) {
	st, err := d.orders.DayStatus(ctx, user.ID, target, now)
	if err != nil {
		d.logger.Error("day status for edit view",
			zap.Error(err),
			zap.Int64("user", user.TelegramID),
			zap.String("target_date", target.Format("2006-01-02")),
		)
		return
	}
	d.edit(ctx, cb, user, view.EditPage(d.dayData(target, offset, st)))
}

// edit правит интерактивное сообщение. Сбой транспорта не откатывает
// уже зафиксированную мутацию: устаревшее представление догонит
// актуальное состояние при следующем действии пользователя.
func (d *Dispatcher) edit(ctx context.Context, cb *telegram.CallbackQuery, user *model.User, page view.Page) {
	if cb.Message == nil {
		return
	}
	err := d.transport.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, page.Text, page.Keyboard)
	if err != nil {
		d.logger.Error("edit message",
			zap.Error(err),
			zap.Int64("user", user.TelegramID),
			zap.Int64("chat", cb.Message.Chat.ID),
		)
	}
}

func (d *Dispatcher) answer(ctx context.Context, cb *telegram.CallbackQuery, text string, alert bool) {
	if err := d.transport.AnswerCallback(ctx, cb.ID, text, alert); err != nil {
		d.logger.Error("answer callback",
			zap.Error(err),
			zap.String("callback", cb.ID),
		)
	}
}

func (d *Dispatcher) failStore(ctx context.Context, cb *telegram.CallbackQuery, verb Verb, telegramID int64, target time.Time, err error) {
	d.logger.Error("order action failed",
		zap.Error(err),
		zap.String("verb", verb.String()),
		zap.Int64("user", telegramID),
		zap.String("target_date", target.Format("2006-01-02")),
	)
	d.answer(ctx, cb, noticeServerError, true)
	observe(verb.String(), "store_failure")
}

func refusalNotice(reason policy.Reason) string {
	switch reason {
	case policy.ReasonWeekend:
		return noticeWeekend
	case policy.ReasonCutoff:
		return noticeCutoff
	case policy.ReasonPast:
		return noticePast
	}
	return noticeUnknown
}

func alreadyOrderedNotice(qty int) string {
	if qty > 0 {
		return fmt.Sprintf("ℹ️ У вас уже заказано %d порц.", qty)
	}
	return "ℹ️ Заказ уже оформлен"
}

func quantityNotice(qty int) string {
	return fmt.Sprintf("Установлено: %d порц.", qty)
}

func outcomeLabel(o order.Outcome) string {
	switch o {
	case order.OutcomeOK:
		return "ok"
	case order.OutcomeWindowClosed:
		return "window_closed"
	case order.OutcomeAlreadyOrdered:
		return "already_ordered"
	case order.OutcomeLimitReached:
		return "limit_reached"
	case order.OutcomeNotFound:
		return "not_found"
	case order.OutcomeAutoCancelled:
		return "auto_cancelled"
	case order.OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

func dayOffset(now, target time.Time) int {
	ny, nm, nd := now.Date()
	ty, tm, td := target.Date()
	a := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}
