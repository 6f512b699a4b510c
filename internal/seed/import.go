package seed

import (
	"fmt"

	"github.com/stakahara/shisaku/internal/initiative"
	"github.com/stakahara/shisaku/internal/storage"
)

// Import inserts validated seeds into the store and returns how many
// initiatives were created. Callers are expected to validate first; the
// import stops at the first store failure.
func Import(store storage.Store, seeds []SeedWithFile) (int, error) {
	count := 0
	for _, s := range seeds {
		_, err := store.CreateInitiative(initiative.Initiative{
			Domain:       s.Seed.Domain,
			MeasureName:  s.Seed.MeasureName,
			Detail:       s.Seed.Detail,
			Goal:         s.Seed.Goal,
			KPI:          s.Seed.KPI,
			StartDate:    s.Seed.StartDate,
			EndDate:      s.Seed.EndDate,
			Department:   s.Seed.Department,
			ScheduleText: s.Seed.ScheduleText,
		})
		if err != nil {
			return count, fmt.Errorf("failed to import %s: %w", s.File, err)
		}
		count++
	}
	return count, nil
}
