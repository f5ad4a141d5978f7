package graph

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/sym"
)

// DriverSQLite is the dataset.driver value selecting a memory database
const DriverSQLite = "sqlite3"

const (
	selectNodesQuery = `SELECT id, type, label, timestamp_ms, memory_type, domain, category, agent_id,
		quality, confidence, has_embedding FROM nodes ORDER BY rowid`
	selectEdgesQuery = `SELECT source_id, target_id, type, weight FROM edges ORDER BY rowid`
)

// OpenSQLite opens a memory database read-only. The engine never writes to it.
func OpenSQLite(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening memory database", "path", path, "symbol", sym.Dataset)
	}
	db, err := sql.Open(DriverSQLite, "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open memory database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to open memory database %s", path)
	}
	return db, nil
}

// LoadSQLite reads the nodes and edges tables into a finalized graph.
// timestamp_ms is nullable unix milliseconds; edges reference nodes by id.
func LoadSQLite(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) (*Graph, error) {
	start := time.Now()

	file := datasetFile{SchemaVersion: DefaultSchemaVersion}

	nodes, err := queryNodes(ctx, db)
	if err != nil {
		return nil, err
	}
	file.Nodes = nodes

	links, err := queryEdges(ctx, db)
	if err != nil {
		return nil, err
	}
	file.Links = links

	g, err := file.toGraph()
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Infow("Loaded memory database",
			"symbol", sym.Dataset,
			"dataset_id", g.Meta.DatasetID,
			"node_count", len(g.Nodes),
			"edge_count", len(g.Links),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return g, nil
}

func queryNodes(ctx context.Context, db *sql.DB) ([]fileNode, error) {
	rows, err := db.QueryContext(ctx, selectNodesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query nodes")
	}
	defer rows.Close()

	var nodes []fileNode
	for rows.Next() {
		var (
			fn                          fileNode
			label, memType, domain, cat sql.NullString
			agent                       sql.NullString
			tsMillis                    sql.NullInt64
			quality, confidence         sql.NullFloat64
			hasEmbedding                int64
		)
		if err := rows.Scan(&fn.ID, &fn.Type, &label, &tsMillis, &memType, &domain, &cat, &agent,
			&quality, &confidence, &hasEmbedding); err != nil {
			return nil, errors.Wrap(err, "failed to scan node row")
		}

		fn.Label = label.String
		fn.MemoryType = memType.String
		fn.Domain = domain.String
		fn.Category = cat.String
		fn.AgentID = agent.String
		fn.HasEmbedding = hasEmbedding != 0
		if tsMillis.Valid {
			ts := time.UnixMilli(tsMillis.Int64).UTC()
			fn.Timestamp = &ts
		}
		if quality.Valid {
			q := quality.Float64
			fn.Quality = &q
		}
		if confidence.Valid {
			c := confidence.Float64
			fn.Confidence = &c
		}
		nodes = append(nodes, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate nodes")
	}
	return nodes, nil
}

func queryEdges(ctx context.Context, db *sql.DB) ([]fileLink, error) {
	rows, err := db.QueryContext(ctx, selectEdgesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query edges")
	}
	defer rows.Close()

	var links []fileLink
	for rows.Next() {
		var (
			fl       fileLink
			linkType sql.NullString
			weight   sql.NullFloat64
		)
		if err := rows.Scan(&fl.Source, &fl.Target, &linkType, &weight); err != nil {
			return nil, errors.Wrap(err, "failed to scan edge row")
		}
		fl.Type = linkType.String
		fl.Value = weight.Float64
		links = append(links, fl)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate edges")
	}
	return links, nil
}
