package sde

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// newFixture writes a tiny export with two regions:
//
//	The Forge (10000002): Jita, Perimeter, Urlen
//	Domain    (10000043): Amarr
//
// plus one connection to a system that is not in known space.
func newFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sde.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open fixture db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE mapRegions (regionId INTEGER PRIMARY KEY, regionName TEXT)`,
		`CREATE TABLE mapConstellations (constellationId INTEGER PRIMARY KEY, regionId INTEGER)`,
		`CREATE TABLE mapSolarSystems (solarSystemId INTEGER PRIMARY KEY, solarSystemName TEXT,
			constellationId INTEGER, projX REAL, projY REAL, projZ REAL)`,
		`CREATE TABLE mapSystemConnections (systemConnectionId INTEGER PRIMARY KEY, systemA INTEGER, systemB INTEGER)`,
		`CREATE TABLE mapAbstractSystems (solarSystemId INTEGER PRIMARY KEY, x REAL, y REAL, regionId INTEGER)`,

		`INSERT INTO mapRegions VALUES (10000002, 'The Forge'), (10000043, 'Domain')`,
		`INSERT INTO mapConstellations VALUES (20000020, 10000002), (20000322, 10000043)`,
		`INSERT INTO mapSolarSystems VALUES
			(30000142, 'Jita', 20000020, -1000, 50, 2000),
			(30000144, 'Perimeter', 20000020, -3000, 0, 4000),
			(30000139, 'Urlen', 20000020, -1000, 0, 6000),
			(30002187, 'Amarr', 20000322, 9000, -10, -5000),
			(31000005, 'Thera', 0, 0, 0, 0)`,
		`INSERT INTO mapSystemConnections VALUES
			(1, 30000142, 30000144),
			(2, 30000144, 30000139),
			(3, 30000142, 31000005)`,
		`INSERT INTO mapAbstractSystems VALUES
			(30000142, 1, 1, 10000002),
			(30000144, 2, 1, 10000002),
			(30000139, 2, 3, 10000002),
			(30002187, 40, 40, 10000043)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("fixture statement failed: %v\n%s", err, s)
		}
	}
	return path
}

func openFixture(t *testing.T, c Correction) *Reader {
	t.Helper()
	r, err := Open(newFixture(t), c, Identity)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}
