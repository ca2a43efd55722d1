package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
)

const (
	DefaultTeamPageSize = 10
	maxTeamNameLength   = 30
)

// TeamUseCase реализует бизнес-логику для команд и охраняет инварианты членства
type TeamUseCase struct {
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	txManager      repository.TransactionManager
	policy         entity.MembershipPolicy
}

// NewTeamUseCase создает новый usecase для команд
func NewTeamUseCase(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	txManager repository.TransactionManager,
	policy entity.MembershipPolicy,
) *TeamUseCase {
	return &TeamUseCase{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		txManager:      txManager,
		policy:         policy,
	}
}

// CreateTeam создает команду и записывает создателя в нее администратором
func (uc *TeamUseCase) CreateTeam(ctx context.Context, name string, creatorID uuid.UUID) (*entity.TeamWithMembers, error) {
	name, err := validateTeamName(name)
	if err != nil {
		return nil, err
	}

	var result *entity.TeamWithMembers

	err = uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		creator, err := uc.userRepo.LockByID(ctx, creatorID)
		if err != nil {
			return storageError(err, "user", "lock user")
		}

		if err := uc.checkMembership(ctx, uuid.Nil, creator.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		team := &entity.Team{
			ID:        uuid.New(),
			Name:      name,
			CreatorID: &creator.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := uc.teamRepo.Create(ctx, team); err != nil {
			return storageError(err, "user", "create team")
		}

		membership := &entity.Membership{
			ID:        uuid.New(),
			TeamID:    team.ID,
			UserID:    creator.ID,
			Role:      entity.RoleAdmin,
			CreatedAt: now,
		}

		if err := uc.membershipRepo.Create(ctx, membership); err != nil {
			return storageError(err, "team", "enroll team creator")
		}

		result = &entity.TeamWithMembers{
			Team: *team,
			Members: []entity.TeamMember{
				{UserID: creator.ID, Username: creator.Username, Role: entity.RoleAdmin},
			},
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddMember добавляет пользователя в команду с ролью role.
// Проверка и вставка выполняются в одной транзакции под блокировкой строки пользователя.
func (uc *TeamUseCase) AddMember(ctx context.Context, teamID, userID uuid.UUID, role entity.Role) (*entity.Membership, error) {
	if !role.Valid() {
		return nil, domainErrors.InvalidField("role", "role must be one of user, manager, admin")
	}

	var membership *entity.Membership

	err := uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := uc.teamRepo.GetByID(ctx, teamID); err != nil {
			return storageError(err, "team", "get team")
		}

		if _, err := uc.userRepo.LockByID(ctx, userID); err != nil {
			return storageError(err, "user", "lock user")
		}

		if err := uc.checkMembership(ctx, teamID, userID); err != nil {
			return err
		}

		membership = &entity.Membership{
			ID:        uuid.New(),
			TeamID:    teamID,
			UserID:    userID,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}

		if err := uc.membershipRepo.Create(ctx, membership); err != nil {
			return storageError(err, "team", "create membership")
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return membership, nil
}

// checkMembership проверяет правило уникальности членства по политике.
// teamID == uuid.Nil означает новую команду, в которой пользователя еще нет.
func (uc *TeamUseCase) checkMembership(ctx context.Context, teamID, userID uuid.UUID) error {
	duplicate := func() error {
		return domainErrors.NewDomainError(
			domainErrors.CodeDuplicateMembership,
			"user is already a member of the team",
			domainErrors.ErrDuplicateMembership,
		).WithField("user_id", "duplicate membership")
	}

	if uc.policy == entity.MembershipOneTeam {
		exists, err := uc.membershipRepo.ExistsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user memberships: %w", err)
		}
		if exists {
			return duplicate()
		}
		return nil
	}

	if teamID == uuid.Nil {
		return nil
	}

	_, err := uc.membershipRepo.Get(ctx, teamID, userID)
	if err == nil {
		return duplicate()
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	return nil
}

// RemoveMember исключает пользователя из команды. Создателя команды исключить нельзя.
func (uc *TeamUseCase) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	return uc.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		team, err := uc.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			return storageError(err, "team", "get team")
		}

		if team.IsCreator(userID) {
			return domainErrors.NewDomainError(
				domainErrors.CodeProtectedCreator,
				"team creator cannot be removed from the team",
				domainErrors.ErrProtectedCreator,
			).WithField("user_id", "user is the team creator")
		}

		if err := uc.membershipRepo.Delete(ctx, teamID, userID); err != nil {
			return storageError(err, "membership", "delete membership")
		}

		return nil
	})
}

// UpdateRole меняет роль участника команды
func (uc *TeamUseCase) UpdateRole(ctx context.Context, teamID, userID uuid.UUID, role entity.Role) (*entity.Membership, error) {
	if !role.Valid() {
		return nil, domainErrors.InvalidField("role", "role must be one of user, manager, admin")
	}

	if err := uc.membershipRepo.UpdateRole(ctx, teamID, userID, role); err != nil {
		return nil, storageError(err, "membership", "update role")
	}

	membership, err := uc.membershipRepo.Get(ctx, teamID, userID)
	if err != nil {
		return nil, storageError(err, "membership", "get membership")
	}

	return membership, nil
}

// RequireRole возвращает членство actorID в команде, если его роль входит в roles.
// Пустой roles допускает любую роль.
func (uc *TeamUseCase) RequireRole(ctx context.Context, teamID, actorID uuid.UUID, roles ...entity.Role) (*entity.Membership, error) {
	if _, err := uc.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, storageError(err, "team", "get team")
	}

	membership, err := uc.membershipRepo.Get(ctx, teamID, actorID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, forbidden("user is not a member of the team")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	if len(roles) == 0 {
		return membership, nil
	}

	for _, role := range roles {
		if membership.Role == role {
			return membership, nil
		}
	}

	return nil, forbidden("insufficient team role")
}

// GetTeam возвращает команду со списком участников
func (uc *TeamUseCase) GetTeam(ctx context.Context, teamID uuid.UUID) (*entity.TeamWithMembers, error) {
	team, err := uc.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, storageError(err, "team", "get team")
	}

	members, err := uc.membershipRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}

	return &entity.TeamWithMembers{Team: *team, Members: members}, nil
}

// ListTeams возвращает страницу команд, новые первыми
func (uc *TeamUseCase) ListTeams(ctx context.Context, limit, offset int) ([]*entity.Team, error) {
	if limit <= 0 {
		limit = DefaultTeamPageSize
	}
	if offset < 0 {
		offset = 0
	}

	teams, err := uc.teamRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	return teams, nil
}

// UpdateTeam переименовывает команду
func (uc *TeamUseCase) UpdateTeam(ctx context.Context, teamID uuid.UUID, name string) (*entity.Team, error) {
	name, err := validateTeamName(name)
	if err != nil {
		return nil, err
	}

	team, err := uc.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, storageError(err, "team", "get team")
	}

	team.Name = name
	team.UpdatedAt = time.Now().UTC()

	if err := uc.teamRepo.Update(ctx, team); err != nil {
		return nil, storageError(err, "team", "update team")
	}

	return team, nil
}

// DeleteTeam удаляет команду вместе с членствами. Команду с задачами удалить нельзя.
func (uc *TeamUseCase) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	if err := uc.teamRepo.Delete(ctx, teamID); err != nil {
		return storageError(err, "team", "delete team")
	}
	return nil
}

func validateTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxTeamNameLength {
		return "", domainErrors.InvalidField("name", fmt.Sprintf("name must be 1 to %d characters", maxTeamNameLength))
	}
	return name, nil
}
