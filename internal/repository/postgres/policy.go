package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
)

const oneTeamIndex = "team_users_one_team_uidx"

// ApplyMembershipPolicy приводит ограничения team_users в соответствие с политикой членства.
// Для one_team создается уникальный индекс по user_id, для per_team он удаляется.
// Если существующие данные нарушают one_team, возвращается ошибка.
func ApplyMembershipPolicy(ctx context.Context, pool *pgxpool.Pool, policy entity.MembershipPolicy) error {
	query := `DROP INDEX IF EXISTS ` + oneTeamIndex
	if policy == entity.MembershipOneTeam {
		query = `CREATE UNIQUE INDEX IF NOT EXISTS ` + oneTeamIndex + ` ON team_users(user_id)`
	}

	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to apply membership policy %s: %w", policy, err)
	}

	return nil
}
