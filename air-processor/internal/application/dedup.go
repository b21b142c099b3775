package application

import (
	"sort"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
)

// SelectCandidates reduces a raw batch to one representative per
// (station, timestamp) pair. When the same pair was appended more than
// once, the copy with the highest ingest sequence wins, so a re-processed
// payload always supersedes earlier copies of itself. The result is
// ordered by station and timestamp to keep merge statements deterministic.
func SelectCandidates(raws []*entities.RawObservation) []*entities.Observation {
	winners := make(map[entities.IdentityKey]*entities.RawObservation, len(raws))

	for _, raw := range raws {
		key := raw.Identity()
		current, ok := winners[key]
		if !ok || raw.IngestSeq > current.IngestSeq {
			winners[key] = raw
		}
	}

	candidates := make([]*entities.Observation, 0, len(winners))
	for _, raw := range winners {
		candidates = append(candidates, &raw.Observation)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StationID != candidates[j].StationID {
			return candidates[i].StationID < candidates[j].StationID
		}
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})

	return candidates
}
