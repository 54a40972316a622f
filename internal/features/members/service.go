// Package members — service.go содержит бизнес-логику управления участниками.
// Сервис выступает резолвером идентичности и ролей для движка верификации.
package members

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"recognition-service/internal/audit"
	"recognition-service/internal/common"
)

// Auditor — best-effort журнал: ошибка записи логируется и отбрасывается.
type Auditor interface {
	Audit(ctx context.Context, eventCode, actorID, targetID string, metadata map[string]any) error
}

// Service управляет участниками платформы.
type Service struct {
	repo    *Repository
	auditor Auditor
}

// NewService создаёт новый сервис участников.
func NewService(repo *Repository, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Resolve возвращает участника по идентификатору актора.
// Забаненный участник для движка не существует — операции от его имени запрещены.
func (s *Service) Resolve(ctx context.Context, actorID string) (*Member, error) {
	m, err := s.repo.GetByUserID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if m.IsBanned {
		return nil, fmt.Errorf("участник %s заблокирован: %w", actorID, common.ErrForbidden)
	}
	return m, nil
}

// Register регистрирует нового участника (или обновляет профиль существующего).
// Новые участники всегда получают роль USER — повышение делает администратор.
func (s *Service) Register(ctx context.Context, userID, email, displayName, organizationID string) error {
	if userID == "" || organizationID == "" {
		return fmt.Errorf("user_id и organization_id обязательны: %w", common.ErrValidation)
	}

	m := &Member{
		UserID:         userID,
		Email:          email,
		DisplayName:    displayName,
		OrganizationID: organizationID,
		Role:           RoleUser,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("ошибка регистрации участника: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": common.HashID(userID),
		"org_id":  organizationID,
	}).Info("Участник зарегистрирован")
	return nil
}

// AssignRole назначает роль участнику. Доступно только администратору.
func (s *Service) AssignRole(ctx context.Context, adminID, userID string, role Role) error {
	admin, err := s.Resolve(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.Role != RoleAdmin {
		return fmt.Errorf("назначать роли может только ADMIN: %w", common.ErrForbidden)
	}
	if adminID == userID {
		return fmt.Errorf("нельзя менять собственную роль: %w", common.ErrInvalidRequest)
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	if err := s.auditor.Audit(ctx, audit.EventRoleAssigned, adminID, common.HashID(userID), map[string]any{"role": string(role)}); err != nil {
		log.WithError(err).Warn("Ошибка записи аудита назначения роли")
	}
	return nil
}
