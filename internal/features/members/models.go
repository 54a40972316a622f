// Package members управляет участниками платформы: регистрацией, ролями,
// принадлежностью к организации. models.go описывает структуры данных
// для работы с таблицей members.
package members

import (
	"fmt"
	"time"
)

// Role — роль участника. Закрытый набор значений: добавление новой роли
// без обновления всех switch по Role — ошибка компиляции/теста,
// а не молчаливый нулевой бонус.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

// ParseRole валидирует строку роли из БД или запроса.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("неизвестная роль %q", s)
	}
}

// CanVerify сообщает, может ли роль подтверждать признания.
func (r Role) CanVerify() bool {
	return r == RoleAdmin || r == RoleManager
}

// Member представляет участника платформы в базе данных.
type Member struct {
	ID             int64     `db:"id"`              // Автоинкрементный ID записи в БД
	UserID         string    `db:"user_id"`         // Внешний идентификатор актора (уникальный)
	Email          string    `db:"email"`           // Email (может быть пустым)
	DisplayName    string    `db:"display_name"`    // Отображаемое имя
	OrganizationID string    `db:"organization_id"` // Организация, к которой привязан участник
	Role           Role      `db:"role"`            // Роль (ADMIN/MANAGER/USER)
	IsBanned       bool      `db:"is_banned"`       // Флаг бана
	CreatedAt      time.Time `db:"created_at"`      // Когда запись создана
	UpdatedAt      time.Time `db:"updated_at"`      // Последнее обновление
}
