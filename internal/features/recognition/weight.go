// Package recognition — weight.go вычисляет подтверждённый вес признания.
// Чистая функция без состояния: одинаковый вход всегда даёт одинаковый
// выход, что обязательно для воспроизводимости аудита.
package recognition

import (
	"recognition-service/internal/common"
	"recognition-service/internal/features/members"
)

// Ролевые бонусы к подтверждённому весу.
const (
	bonusAdmin   = 0.30
	bonusManager = 0.20
)

// ComputeVerifiedWeight возвращает подтверждённый вес признания.
//
// Правила:
//   - отклонённое признание весит 0 независимо от роли;
//   - подтверждение ADMIN даёт +30%, MANAGER — +20%, остальные роли — +0%;
//   - результат округляется до 2 знаков (round-half-up по центам).
//
// Role — закрытый enum (members.ParseRole), поэтому «прочие роли»
// здесь означает ровно USER, а не опечатку в строке.
func ComputeVerifiedWeight(originalWeight float64, verified bool, role members.Role) float64 {
	if !verified {
		return 0
	}

	var bonus float64
	switch role {
	case members.RoleAdmin:
		bonus = bonusAdmin
	case members.RoleManager:
		bonus = bonusManager
	default:
		bonus = 0
	}

	return common.Round2(originalWeight * (1 + bonus))
}
