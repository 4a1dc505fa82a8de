package sde

import (
	"context"
	"fmt"
	"strings"
)

// SearchResult is one system matched by name.
type SearchResult struct {
	SystemID   int64
	SystemName string
	RegionID   int64
	RegionName string
}

// Search finds systems whose name contains query, case-insensitively,
// ordered by name.
func (r *Reader) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT mss.solarSystemId, mss.solarSystemName, mr.regionId, mr.regionName
		FROM mapSolarSystems AS mss
		INNER JOIN mapConstellations AS mc ON (mc.constellationId = mss.constellationId)
		INNER JOIN mapRegions AS mr ON (mr.regionId = mc.regionId)
		WHERE LOWER(mss.solarSystemName) LIKE ? ESCAPE '\'
		ORDER BY mss.solarSystemName
		LIMIT ?`, "%"+escapeLike(strings.ToLower(query))+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching systems: %w", err)
	}
	var out []SearchResult
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(&res.SystemID, &res.SystemName, &res.RegionID, &res.RegionName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		out = append(out, res)
	}
	return out, closeRows(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
