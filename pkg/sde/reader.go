// Package sde reads star systems, jump connections and regions from the
// static data export (a SQLite file) and turns them into map datasets.
package sde

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sudorandom/telescope/pkg/mapengine"
	_ "modernc.org/sqlite"
)

// ErrNoSuchSystem is returned when a system id is not in the export.
var ErrNoSuchSystem = errors.New("sde: no such solar system")

// Known-space system ids; wormhole and abyssal systems live outside it.
const (
	minKSpaceSystem = 30000000
	maxKSpaceSystem = 30999999
	minRegion       = 10000000
	maxRegion       = 10999999
)

// Reader wraps a read-only connection to the export.
type Reader struct {
	db         *sql.DB
	correction Correction
	// abstract is used for the schematic regional layout.
	abstract Correction
}

// Open opens the export at path read-only. c corrects universe coordinates,
// region corrects the schematic regional layout.
func Open(path string, c, region Correction) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening sde: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sde: %w", err)
	}
	return &Reader{db: db, correction: c, abstract: region}, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// Correction returns the correction applied to universe coordinates.
func (r *Reader) Correction() Correction { return r.correction }

// Universe loads every known-space system with its jump connections and a
// label per region.
func (r *Reader) Universe(ctx context.Context) (mapengine.Dataset, error) {
	start := time.Now()
	ds := mapengine.Dataset{Name: "universe"}

	rows, err := r.db.QueryContext(ctx, `SELECT solarSystemId, solarSystemName, projX, projY, projZ
		FROM mapSolarSystems WHERE solarSystemId BETWEEN ? AND ?`, minKSpaceSystem, maxKSpaceSystem)
	if err != nil {
		return ds, fmt.Errorf("querying systems: %w", err)
	}
	for rows.Next() {
		var p mapengine.Point
		var x, y, z float64
		if err := rows.Scan(&p.ID, &p.Name, &x, &y, &z); err != nil {
			rows.Close()
			return ds, fmt.Errorf("scanning system: %w", err)
		}
		p.Pos, p.Z = r.correction.Point(x, y, z)
		ds.Points = append(ds.Points, p)
	}
	if err := closeRows(rows); err != nil {
		return ds, fmt.Errorf("querying systems: %w", err)
	}

	if ds.Edges, err = r.connections(ctx); err != nil {
		return ds, err
	}
	if ds.Labels, err = r.RegionLabels(ctx); err != nil {
		return ds, err
	}
	log.Printf("[SDE] Universe: %d systems, %d connections, %d regions in %v",
		len(ds.Points), len(ds.Edges), len(ds.Labels), time.Since(start))
	return ds, nil
}

func (r *Reader) connections(ctx context.Context) ([]mapengine.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT systemConnectionId, systemA, systemB FROM mapSystemConnections`)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	var edges []mapengine.Edge
	for rows.Next() {
		var e mapengine.Edge
		if err := rows.Scan(&e.ID, &e.A, &e.B); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, closeRows(rows)
}

// RegionLabels returns one label per known-space region, anchored at the
// middle of its systems' bounding box after correction.
func (r *Reader) RegionLabels(ctx context.Context) ([]mapengine.Label, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT mr.regionId, mr.regionName,
			MIN(mss.projX), MAX(mss.projX), MIN(mss.projZ), MAX(mss.projZ)
		FROM mapRegions AS mr
		INNER JOIN mapConstellations AS mc ON (mc.regionId = mr.regionId)
		INNER JOIN mapSolarSystems AS mss ON (mss.constellationId = mc.constellationId)
		WHERE mr.regionId BETWEEN ? AND ?
		GROUP BY mr.regionId, mr.regionName
		ORDER BY mr.regionId`, minRegion, maxRegion)
	if err != nil {
		return nil, fmt.Errorf("querying regions: %w", err)
	}
	var labels []mapengine.Label
	for rows.Next() {
		var l mapengine.Label
		var minX, maxX, minZ, maxZ float64
		if err := rows.Scan(&l.ID, &l.Name, &minX, &maxX, &minZ, &maxZ); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning region: %w", err)
		}
		l.Anchor, _ = r.correction.Point((minX+maxX)/2, 0, (minZ+maxZ)/2)
		labels = append(labels, l)
	}
	return labels, closeRows(rows)
}

// Region loads the schematic layout of the given regions. Its connections
// carry literal coordinates since the layout is not the real geometry. With
// no ids every region is loaded.
func (r *Reader) Region(ctx context.Context, regionIDs ...int64) (mapengine.Dataset, error) {
	ds := mapengine.Dataset{Name: "region:" + joinIDs(regionIDs)}
	where, args := inClause("mas.regionId", regionIDs)

	rows, err := r.db.QueryContext(ctx, `SELECT mas.solarSystemId, mss.solarSystemName, mas.x, mas.y, mas.regionId
		FROM mapAbstractSystems AS mas
		INNER JOIN mapSolarSystems AS mss ON (mss.solarSystemId = mas.solarSystemId)`+where, args...)
	if err != nil {
		return ds, fmt.Errorf("querying abstract systems: %w", err)
	}
	byRegion := make(map[int64][]mapengine.Point)
	for rows.Next() {
		var p mapengine.Point
		var x, y float64
		var region int64
		if err := rows.Scan(&p.ID, &p.Name, &x, &y, &region); err != nil {
			rows.Close()
			return ds, fmt.Errorf("scanning abstract system: %w", err)
		}
		p.Pos = r.abstract.Plane(x, y)
		ds.Points = append(ds.Points, p)
		byRegion[region] = append(byRegion[region], p)
	}
	if err := closeRows(rows); err != nil {
		return ds, fmt.Errorf("querying abstract systems: %w", err)
	}

	whereA, argsA := inClause("masa.regionId", regionIDs)
	whereB, argsB := inClause("masb.regionId", regionIDs)
	if whereB != "" {
		whereB = " AND" + strings.TrimPrefix(whereB, " WHERE")
	}
	rows, err = r.db.QueryContext(ctx, `SELECT msc.systemConnectionId, msc.systemA, msc.systemB, masa.x, masa.y, masb.x, masb.y
		FROM mapSystemConnections AS msc
		INNER JOIN mapAbstractSystems AS masa ON (msc.systemA = masa.solarSystemId)
		INNER JOIN mapAbstractSystems AS masb ON (msc.systemB = masb.solarSystemId)`+whereA+whereB, append(argsA, argsB...)...)
	if err != nil {
		return ds, fmt.Errorf("querying abstract connections: %w", err)
	}
	for rows.Next() {
		e := mapengine.Edge{Literal: true}
		var ax, ay, bx, by float64
		if err := rows.Scan(&e.ID, &e.A, &e.B, &ax, &ay, &bx, &by); err != nil {
			rows.Close()
			return ds, fmt.Errorf("scanning abstract connection: %w", err)
		}
		e.From, e.To = r.abstract.Plane(ax, ay), r.abstract.Plane(bx, by)
		ds.Edges = append(ds.Edges, e)
	}
	if err := closeRows(rows); err != nil {
		return ds, fmt.Errorf("querying abstract connections: %w", err)
	}

	names, err := r.regionNames(ctx)
	if err != nil {
		return ds, err
	}
	for id, pts := range byRegion {
		ds.Labels = append(ds.Labels, mapengine.Label{ID: id, Name: names[id], Anchor: mapengine.BoundsOf(pts).Midpoint()})
	}
	sortLabels(ds.Labels)
	return ds, nil
}

func (r *Reader) regionNames(ctx context.Context) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT regionId, regionName FROM mapRegions`)
	if err != nil {
		return nil, fmt.Errorf("querying region names: %w", err)
	}
	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning region name: %w", err)
		}
		names[id] = name
	}
	return names, closeRows(rows)
}

// SystemCoords returns the corrected position of one system.
func (r *Reader) SystemCoords(ctx context.Context, id int64) (mapengine.Vec2, error) {
	var x, y, z float64
	err := r.db.QueryRowContext(ctx, `SELECT projX, projY, projZ FROM mapSolarSystems WHERE solarSystemId = ?`, id).Scan(&x, &y, &z)
	if errors.Is(err, sql.ErrNoRows) {
		return mapengine.Vec2{}, ErrNoSuchSystem
	}
	if err != nil {
		return mapengine.Vec2{}, fmt.Errorf("querying system %d: %w", id, err)
	}
	pos, _ := r.correction.Point(x, y, z)
	return pos, nil
}

// SystemNames maps every known-space system name to its id.
func (r *Reader) SystemNames(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT solarSystemId, solarSystemName FROM mapSolarSystems
		WHERE solarSystemId BETWEEN ? AND ?`, minKSpaceSystem, maxKSpaceSystem)
	if err != nil {
		return nil, fmt.Errorf("querying system names: %w", err)
	}
	names := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning system name: %w", err)
		}
		names[name] = id
	}
	return names, closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

// inClause builds " WHERE col IN (?,?)" for ids, or nothing when ids is empty.
func inClause(col string, ids []int64) (string, []any) {
	if len(ids) == 0 {
		return "", nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return " WHERE " + col + " IN (" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return "all"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
