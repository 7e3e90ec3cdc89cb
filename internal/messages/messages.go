// Package messages holds every user-facing text of the bot.
package messages

import (
	"fmt"
	"strings"

	"clubbot/internal/models"
)

const (
	Welcome = "Добро пожаловать в бизнес-клуб! 👋\n" +
		"Здесь можно регистрироваться на мероприятия, получать QR-код для входа и копить клубную валюту.\n" +
		"/me — ваш профиль, /ref <мероприятие> — реферальная ссылка, /cancel — отменить текущее действие."
	Networking   = "Random Coffee скоро пришлёт вам пару для знакомства. Следите за сообщениями ☕"
	Recruitment  = "Спасибо за интерес к команде клуба! Анкета отбора появится в этом чате, как только откроется набор."
	InvalidCode  = "Недействительный код ❌"
	UnknownEvent = "Такого мероприятия нет ❌"
	EventGone    = "Мероприятие больше не существует ❌"
	EventClosed  = "Мероприятие уже завершилось, регистрация закрыта."
	Internal     = "Что-то пошло не так. Попробуйте ещё раз позже."
	Cancelled    = "Действие отменено."
	Nothing      = "Сейчас нечего отменять."
	AdminOnly    = "У вас нет прав для выполнения этой команды. Только администраторы могут выполнять это действие."
	Unknown      = "Неизвестная команда"

	AskHSE           = "Вы студент или сотрудник НИУ ВШЭ?"
	ProfileIntro     = "Нам понадобятся ваши данные для пропуска на площадку. Для отмены напишите «отмена»."
	RegistrationDone = "Вы зарегистрированы! Покажите этот QR-код на входе."
	Declined         = "Регистрация отменена. Будем ждать вас на следующих мероприятиях!"
	FlowExpired      = "Сессия регистрации устарела. Перейдите по ссылке ещё раз."

	NotRegistered = "Вы не зарегистрированы на это мероприятие ❌"
	NotActive     = "Мероприятие не активно ❌"
	NotYourCode   = "Это не ваш QR-код ❌"
	CheckInDenied = "Вход на мероприятие не подтверждён."
	GiveawayTaken = "Вы уже участвуете в розыгрыше другого организатора."
	NoDrawPending = "Нет активного розыгрыша."
	NotHost       = "Вы не организатор розыгрыша на этом мероприятии."
	NoParticipant = "В розыгрыше нет участников, которые пришли на мероприятие."
	CheckInReject = "Вход отклонён ❌"
	WinnerSaved   = "Победитель подтверждён, мы отправили ему поздравление 🎉"
	EventExists   = "Мероприятие с таким названием уже есть."
	EventIsOver   = "Мероприятие уже завершено."
	BadEventName  = "Недопустимое название мероприятия. Используйте до 34 символов: латиницу, цифры, «_» и «-», либо auto."
	BadDate       = "Неверный формат даты. Используйте ДД.ММ.ГГГГ."
	UserUnknown   = "Пользователь не найден. Он должен хотя бы раз написать боту."
	RoleGranted   = "Права фейс-контроля выданы ✅"
	RoleRevoked   = "Права фейс-контроля отозваны."
	RoleMissing   = "У пользователя нет прав фейс-контроля."
	HostAdded     = "Организатор розыгрыша добавлен ✅"
	NoRecipients  = "Некому отправлять рассылку."
	GetRefButton  = "Получить реферальную ссылку"
	RerollButton  = "Перевыбрать 🎲"
	ConfirmButton = "Подтвердить ✅"
	AllowButton   = "Пропустить ✅"
	DenyButton    = "Отказать ❌"
)

// Command usage hints.
const (
	UsageNewEvent  = "Использование: /newevent название;описание;ДД.ММ.ГГГГ;время;место\nНазвание auto построит его из даты."
	UsageEndEvent  = "Использование: /endevent название"
	UsageRegLink   = "Использование: /reglink название номер"
	UsageAddHost   = "Использование: /addhost название id_пользователя организация"
	UsageUserID    = "Укажите числовой id пользователя."
	UsageDraw      = "Использование: /draw название"
	UsageHostDraw  = "Использование: /hostdraw название"
	UsageBroadcast = "Использование: /broadcast текст"
	UsageRef       = "Использование: /ref название"
)

// YesNo labels.
const (
	Yes = "Да ✅"
	No  = "Нет ❌"
)

// ProfilePrompt returns the question asking for a profile field.
func ProfilePrompt(field models.ProfileField) string {
	switch field {
	case models.FieldName:
		return "Введите ваше имя:"
	case models.FieldSurname:
		return "Введите вашу фамилию:"
	case models.FieldPatronymic:
		return "Введите ваше отчество:"
	case models.FieldPhone:
		return "Введите номер телефона в формате +79991234567:"
	case models.FieldEmail:
		return "Введите ваш email:"
	case models.FieldOrganization:
		return "Введите название вашей организации или вуза:"
	}
	return "Введите значение:"
}

// ProfileInvalid explains why a profile answer was rejected.
func ProfileInvalid(field models.ProfileField) string {
	switch field {
	case models.FieldPhone:
		return "Неверный номер телефона. Используйте формат +79991234567."
	case models.FieldEmail:
		return "Неверный email. Попробуйте ещё раз."
	}
	return "Значение не может быть пустым. Попробуйте ещё раз."
}

// EventCard renders the event details.
func EventCard(ev *models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 %s\n", ev.Name)
	if ev.Description != "" {
		fmt.Fprintf(&b, "%s\n", ev.Description)
	}
	if ev.Date != "" || ev.Time != "" {
		fmt.Fprintf(&b, "🗓 %s %s\n", ev.Date, ev.Time)
	}
	if ev.Place != "" {
		fmt.Fprintf(&b, "📍 %s\n", ev.Place)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ConfirmRegistration asks the user to confirm attendance.
func ConfirmRegistration(ev *models.Event) string {
	return EventCard(ev) + "\n\nПодтверждаете регистрацию?"
}

// AlreadyRegistered is shown on a repeated registration attempt.
func AlreadyRegistered(event string) string {
	return fmt.Sprintf("Вы уже зарегистрированы на %s. Хотите получить реферальную ссылку для друзей?", event)
}

// GiveawayEntered tells a referred user they take part in a host's giveaway.
func GiveawayEntered(org string) string {
	return fmt.Sprintf("🎁 Вы участвуете в розыгрыше от %s! Приходите на мероприятие, чтобы побороться за приз.", org)
}

// ReferralUsed notifies a referrer that someone registered through their link.
func ReferralUsed(username, event string) string {
	return fmt.Sprintf("По вашей реферальной ссылке на %s зарегистрировался %s 🎉", event, handle(username))
}

// ReferralLink hands a user their personal referral link.
func ReferralLink(event, url string) string {
	return fmt.Sprintf("Ваша реферальная ссылка на %s:\n%s\nЗа каждого друга, который придёт, вы получите монеты.", event, url)
}

// AlreadyUsed is shown when a check-in code has already been redeemed.
func AlreadyUsed(u *models.User, event string) string {
	return fmt.Sprintf("QR-код уже использован ⚠️\nУчастник: %s (id %d)\nМероприятие: %s", handle(u.Username), u.ID, event)
}

// ApproveCheckIn asks a face-control delegate to allow or deny entry.
func ApproveCheckIn(u *models.User, ev *models.Event) string {
	return fmt.Sprintf("Участник: %s (id %d)\nМероприятие: %s\nСтрик: %d, посещений: %d\n\nПропустить?",
		handle(u.Username), u.ID, ev.Name, u.Streak, u.EventCount)
}

// Reminder is shown to users scanning their own unused code.
func Reminder(ev *models.Event) string {
	return "Ваш QR-код действителен. Покажите его на входе.\n\n" + EventCard(ev)
}

// CheckedIn notifies a user that their attendance was credited.
func CheckedIn(event string) string {
	return fmt.Sprintf("Добро пожаловать на %s! ✅ Вам начислена 1 монета и +1 к стрику.", event)
}

// CheckInApproved confirms the decision to the approving delegate.
func CheckInApproved(u *models.User) string {
	return fmt.Sprintf("Вход подтверждён: %s ✅", handle(u.Username))
}

// ReferrerPaid notifies a referrer of their payout.
func ReferrerPaid(username string, amount int) string {
	return fmt.Sprintf("Ваш друг %s пришёл на мероприятие! Вам начислено %d монеты 💰", handle(username), amount)
}

// ReferredBonus notifies the referred user of their bonus.
func ReferredBonus(amount int) string {
	return fmt.Sprintf("Бонус за приход по приглашению: +%d монета 💰", amount)
}

// EventEnded reports the close sweep to the admin.
func EventEnded(event string, noShows int) string {
	return fmt.Sprintf("Мероприятие %s завершено. Не пришли: %d, их стрик обнулён.", event, noShows)
}

// Profile renders the /me card.
func Profile(u *models.User) string {
	return fmt.Sprintf("👤 %s\n💰 Монеты: %d\n🔥 Стрик: %d\n🎟 Посещено мероприятий: %d\n🤝 Приглашено друзей: %d",
		handle(u.Username), u.Money, u.Streak, u.EventCount, u.RefCount)
}

// DrawCandidate presents a drawn winner to the organizer.
func DrawCandidate(u *models.User, event string) string {
	return fmt.Sprintf("🎲 Победитель розыгрыша на %s: %s (id %d)", event, handle(u.Username), u.ID)
}

// DrawWinner congratulates the confirmed winner.
func DrawWinner(event string) string {
	return fmt.Sprintf("🎉 Поздравляем! Вы победили в розыгрыше на %s. Организаторы скоро свяжутся с вами.", event)
}

// EventCreated confirms a new event and hands out its first registration link.
func EventCreated(ev *models.Event, regURL string) string {
	return fmt.Sprintf("Мероприятие создано ✅\n\n%s\n\nСсылка для регистрации:\n%s", EventCard(ev), regURL)
}

// RegistrationLink hands an admin a numbered registration link.
func RegistrationLink(event string, n int, url string) string {
	return fmt.Sprintf("Ссылка регистрации №%d на %s:\n%s", n, event, url)
}

// BroadcastStarted acknowledges a broadcast.
func BroadcastStarted(total int) string {
	return fmt.Sprintf("Рассылка запущена, получателей: %d", total)
}

// BroadcastProgress reports delivery progress to the admin.
func BroadcastProgress(done, total, failed int) string {
	return fmt.Sprintf("Рассылка: %d/%d, ошибок: %d", done, total, failed)
}

func handle(username string) string {
	if username == "" {
		return "участник"
	}
	return "@" + username
}
