package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
)

// TestDataGenerator creates leagues and rosters with readable fake names.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator. A fixed seed makes names
// reproducible.
func NewTestDataGenerator(seed uint64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// LeagueSpec describes a league to seed. TeamSizes holds one entry per team.
type LeagueSpec struct {
	Start          time.Time
	End            time.Time
	Status         leaguedomain.Status
	NormalizeTeams bool
	RequireProof   bool
	TeamSizes      []int
}

// SeededLeague is what SeedLeague wrote.
type SeededLeague struct {
	League  leaguedb.League
	Teams   []leaguedb.Team
	Members map[uuid.UUID][]uuid.UUID
}

// SeedLeague inserts a league with its teams and members.
func (g *TestDataGenerator) SeedLeague(ctx context.Context, db bun.IDB, opts LeagueSpec) (*SeededLeague, error) {
	status := opts.Status
	if status == "" {
		status = leaguedomain.StatusLaunched
	}
	league := leaguedb.League{
		ID:             uuid.New(),
		Name:           fmt.Sprintf("%s %s League", g.faker.City(), g.faker.Color()),
		Timezone:       "UTC",
		StartDate:      opts.Start,
		EndDate:        opts.End,
		Status:         status,
		NormalizeTeams: opts.NormalizeTeams,
		RequireProof:   opts.RequireProof,
	}
	if _, err := db.NewInsert().Model(&league).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert league: %w", err)
	}

	seeded := &SeededLeague{League: league, Members: map[uuid.UUID][]uuid.UUID{}}
	for _, size := range opts.TeamSizes {
		team := leaguedb.Team{
			ID:       uuid.New(),
			LeagueID: league.ID,
			Name:     g.faker.Animal() + "s",
		}
		if _, err := db.NewInsert().Model(&team).Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert team: %w", err)
		}
		seeded.Teams = append(seeded.Teams, team)

		for i := 0; i < size; i++ {
			teamID := team.ID
			m := leaguedb.Membership{
				LeagueID: league.ID,
				UserID:   uuid.New(),
				TeamID:   &teamID,
				Role:     leaguedomain.RoleMember,
			}
			if i == 0 {
				m.Role = leaguedomain.RoleCaptain
			}
			if _, err := db.NewInsert().Model(&m).Exec(ctx); err != nil {
				return nil, fmt.Errorf("insert membership: %w", err)
			}
			seeded.Members[team.ID] = append(seeded.Members[team.ID], m.UserID)
		}
	}
	return seeded, nil
}

// AddHost adds a host membership, used as the reviewer in tests.
func (g *TestDataGenerator) AddHost(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (uuid.UUID, error) {
	m := leaguedb.Membership{
		LeagueID: leagueID,
		UserID:   uuid.New(),
		Role:     leaguedomain.RoleHost,
	}
	if _, err := db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("insert host: %w", err)
	}
	return m.UserID, nil
}
