package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

// maxTreeDepth bounds ancestor walks so a corrupted parent chain cannot loop forever.
const maxTreeDepth = 64

func (q *queries) GetNodeType(ctx context.Context, id int64) (*model.NodeType, error) {
	var t model.NodeType
	err := q.c.queryRow(ctx,
		`SELECT id, name_en, name_ru, description_en, description_ru FROM geo_nodes_types WHERE id = ?`, id,
	).Scan(&t.ID, &t.NameEN, &t.NameRU, &t.DescriptionEN, &t.DescriptionRU)
	if err != nil {
		return nil, notFound(err, "store: get node type %d", id)
	}
	return &t, nil
}

func (q *queries) GetNodeTypeByName(ctx context.Context, nameEN string) (*model.NodeType, error) {
	var t model.NodeType
	err := q.c.queryRow(ctx,
		`SELECT id, name_en, name_ru, description_en, description_ru FROM geo_nodes_types WHERE name_en = ?`, nameEN,
	).Scan(&t.ID, &t.NameEN, &t.NameRU, &t.DescriptionEN, &t.DescriptionRU)
	if err != nil {
		return nil, notFound(err, "store: get node type %q", nameEN)
	}
	return &t, nil
}

const nodeColumns = `id, country_id, node_type_id, parent_id, level, name_ru, name_en, name_native,
	latitude, longitude, timezone_id, population, iso_code, wiki_data_id, created_at, updated_at`

func scanNode(r row) (*model.Node, error) {
	var n model.Node
	err := r.Scan(
		&n.ID, &n.CountryID, &n.NodeTypeID, &n.ParentID, &n.Level, &n.NameRU, &n.NameEN, &n.NameNative,
		&n.Latitude, &n.Longitude, &n.TimeZoneID, &n.Population, &n.ISOCode, &n.WikiDataID,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (q *queries) scanNodes(rs rows, what string) ([]model.Node, error) {
	defer rs.Close()
	var nodes []model.Node
	for rs.Next() {
		n, err := scanNode(rs)
		if err != nil {
			return nil, eris.Wrapf(err, "store: scan %s", what)
		}
		nodes = append(nodes, *n)
	}
	return nodes, eris.Wrapf(rs.Err(), "store: iterate %s", what)
}

// CreateNode inserts a node. CreatedAt/UpdatedAt come from the caller (the feed);
// zero values default to now.
func (q *queries) CreateNode(ctx context.Context, n *model.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ParentID != nil {
		if err := q.checkParent(ctx, 0, n.CountryID, *n.ParentID); err != nil {
			return err
		}
	}
	q.stampFeedTimes(&n.CreatedAt, &n.UpdatedAt)

	err := q.c.queryRow(ctx, `
		INSERT INTO geo_nodes (country_id, node_type_id, parent_id, level, name_ru, name_en, name_native,
			latitude, longitude, timezone_id, population, iso_code, wiki_data_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		n.CountryID, n.NodeTypeID, n.ParentID, n.Level, n.NameRU, n.NameEN, n.NameNative,
		n.Latitude, n.Longitude, n.TimeZoneID, n.Population, n.ISOCode, n.WikiDataID,
		n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
	return writeErrOrNil(err, "store: create node %q", n.NameEN)
}

// UpdateNode rewrites every column of an existing node.
func (q *queries) UpdateNode(ctx context.Context, n *model.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ParentID != nil {
		if err := q.checkParent(ctx, n.ID, n.CountryID, *n.ParentID); err != nil {
			return err
		}
	}
	q.stampFeedTimes(&n.CreatedAt, &n.UpdatedAt)

	affected, err := q.c.exec(ctx, `
		UPDATE geo_nodes SET country_id = ?, node_type_id = ?, parent_id = ?, level = ?, name_ru = ?,
			name_en = ?, name_native = ?, latitude = ?, longitude = ?, timezone_id = ?, population = ?,
			iso_code = ?, wiki_data_id = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		n.CountryID, n.NodeTypeID, n.ParentID, n.Level, n.NameRU,
		n.NameEN, n.NameNative, n.Latitude, n.Longitude, n.TimeZoneID, n.Population,
		n.ISOCode, n.WikiDataID, n.CreatedAt, n.UpdatedAt,
		n.ID,
	)
	if err != nil {
		return writeErr(err, "store: update node %d", n.ID)
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "store: update node %d", n.ID)
	}
	return nil
}

func (q *queries) GetNode(ctx context.Context, id int64) (*model.Node, error) {
	n, err := scanNode(q.c.queryRow(ctx, `SELECT `+nodeColumns+` FROM geo_nodes WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "store: get node %d", id)
	}
	return n, nil
}

func (q *queries) FindNodeByISO(ctx context.Context, countryID int64, iso string) (*model.Node, error) {
	n, err := scanNode(q.c.queryRow(ctx,
		`SELECT `+nodeColumns+` FROM geo_nodes WHERE country_id = ? AND iso_code = ? ORDER BY id LIMIT 1`,
		countryID, iso,
	))
	if err != nil {
		return nil, notFound(err, "store: find node %d/%q", countryID, iso)
	}
	return n, nil
}

func (q *queries) FindNodeByNameEN(ctx context.Context, countryID int64, nameEN string) (*model.Node, error) {
	n, err := scanNode(q.c.queryRow(ctx,
		`SELECT `+nodeColumns+` FROM geo_nodes WHERE country_id = ? AND name_en = ? ORDER BY id LIMIT 1`,
		countryID, nameEN,
	))
	if err != nil {
		return nil, notFound(err, "store: find node %d/%q", countryID, nameEN)
	}
	return n, nil
}

// FindNodeByISOCode looks a node up by its subdivision code alone, e.g. "RU-MOS".
func (q *queries) FindNodeByISOCode(ctx context.Context, iso string) (*model.Node, error) {
	n, err := scanNode(q.c.queryRow(ctx,
		`SELECT `+nodeColumns+` FROM geo_nodes WHERE iso_code = ? ORDER BY id LIMIT 1`, iso,
	))
	if err != nil {
		return nil, notFound(err, "store: find node %q", iso)
	}
	return n, nil
}

// FirstNodeOfCountry returns the alphabetically first node of the country.
func (q *queries) FirstNodeOfCountry(ctx context.Context, cca2 string) (*model.Node, error) {
	n, err := scanNode(q.c.queryRow(ctx, `
		SELECT `+prefixed("n.", nodeColumns)+`
		FROM geo_nodes n
		JOIN geo_countries c ON c.id = n.country_id
		WHERE c.cca2 = ?
		ORDER BY n.name_ru, n.id
		LIMIT 1`, cca2,
	))
	if err != nil {
		return nil, notFound(err, "store: first node of %q", cca2)
	}
	return n, nil
}

// SetNodeParent rewrites only the parent reference. The parent must belong to
// the same country and must not be the node itself or one of its descendants.
func (q *queries) SetNodeParent(ctx context.Context, nodeID int64, parentID *int64) error {
	if parentID != nil {
		node, err := q.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := q.checkParent(ctx, nodeID, node.CountryID, *parentID); err != nil {
			return err
		}
	}

	affected, err := q.c.exec(ctx, `UPDATE geo_nodes SET parent_id = ? WHERE id = ?`, parentID, nodeID)
	if err != nil {
		return eris.Wrapf(err, "store: set parent of node %d", nodeID)
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "store: set parent of node %d", nodeID)
	}
	return nil
}

// checkParent validates a prospective parent. nodeID is 0 for nodes not yet inserted.
func (q *queries) checkParent(ctx context.Context, nodeID, countryID, parentID int64) error {
	if nodeID != 0 && parentID == nodeID {
		return eris.Wrapf(ErrParentCycle, "store: node %d as its own parent", nodeID)
	}
	parent, err := q.GetNode(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.CountryID != countryID {
		return eris.Wrapf(ErrParentCountryMismatch,
			"store: parent %d is in country %d, node in country %d", parentID, parent.CountryID, countryID)
	}
	if nodeID == 0 {
		return nil
	}
	ancestors, err := q.NodeAncestors(ctx, parentID)
	if err != nil {
		return err
	}
	for _, a := range ancestors {
		if a.ID == nodeID {
			return eris.Wrapf(ErrParentCycle, "store: node %d is an ancestor of %d", nodeID, parentID)
		}
	}
	return nil
}

// NodeAncestors returns the node's ancestors ordered root-to-leaf, excluding the node itself.
func (q *queries) NodeAncestors(ctx context.Context, nodeID int64) ([]model.Node, error) {
	rs, err := q.c.query(ctx, `
		WITH RECURSIVE chain (id, parent_id, depth) AS (
			SELECT id, parent_id, 0 FROM geo_nodes WHERE id = ?
			UNION ALL
			SELECT g.id, g.parent_id, chain.depth + 1
			FROM geo_nodes g
			JOIN chain ON g.id = chain.parent_id
			WHERE chain.depth < ?
		)
		SELECT `+prefixed("n.", nodeColumns)+`
		FROM chain
		JOIN geo_nodes n ON n.id = chain.id
		WHERE chain.depth > 0
		ORDER BY chain.depth DESC`,
		nodeID, maxTreeDepth,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: ancestors of node %d", nodeID)
	}
	return q.scanNodes(rs, "ancestor")
}

func (q *queries) CountNodes(ctx context.Context) (int, error) {
	var n int
	err := q.c.queryRow(ctx, `SELECT COUNT(*) FROM geo_nodes`).Scan(&n)
	return n, eris.Wrap(err, "store: count nodes")
}

const cityColumns = `id, node_id, name_ru, name_en, name_native, latitude, longitude,
	timezone_id, population, wiki_data_id, created_at, updated_at`

func scanCity(r row) (*model.City, error) {
	var c model.City
	err := r.Scan(
		&c.ID, &c.NodeID, &c.NameRU, &c.NameEN, &c.NameNative, &c.Latitude, &c.Longitude,
		&c.TimeZoneID, &c.Population, &c.WikiDataID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *queries) CreateCity(ctx context.Context, c *model.City) error {
	if err := c.Validate(); err != nil {
		return err
	}
	q.stampFeedTimes(&c.CreatedAt, &c.UpdatedAt)

	err := q.c.queryRow(ctx, `
		INSERT INTO geo_cities (node_id, name_ru, name_en, name_native, latitude, longitude,
			timezone_id, population, wiki_data_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.NodeID, c.NameRU, c.NameEN, c.NameNative, c.Latitude, c.Longitude,
		c.TimeZoneID, c.Population, c.WikiDataID, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	return writeErrOrNil(err, "store: create city %q", c.NameEN)
}

func (q *queries) UpdateCity(ctx context.Context, c *model.City) error {
	if err := c.Validate(); err != nil {
		return err
	}
	q.stampFeedTimes(&c.CreatedAt, &c.UpdatedAt)

	affected, err := q.c.exec(ctx, `
		UPDATE geo_cities SET node_id = ?, name_ru = ?, name_en = ?, name_native = ?, latitude = ?,
			longitude = ?, timezone_id = ?, population = ?, wiki_data_id = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		c.NodeID, c.NameRU, c.NameEN, c.NameNative, c.Latitude,
		c.Longitude, c.TimeZoneID, c.Population, c.WikiDataID, c.CreatedAt, c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return writeErr(err, "store: update city %d", c.ID)
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "store: update city %d", c.ID)
	}
	return nil
}

func (q *queries) GetCity(ctx context.Context, id int64) (*model.City, error) {
	c, err := scanCity(q.c.queryRow(ctx, `SELECT `+cityColumns+` FROM geo_cities WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "store: get city %d", id)
	}
	return c, nil
}

func (q *queries) FindCity(ctx context.Context, nodeID int64, nameRU string) (*model.City, error) {
	c, err := scanCity(q.c.queryRow(ctx,
		`SELECT `+cityColumns+` FROM geo_cities WHERE node_id = ? AND name_ru = ? ORDER BY id LIMIT 1`,
		nodeID, nameRU,
	))
	if err != nil {
		return nil, notFound(err, "store: find city %d/%q", nodeID, nameRU)
	}
	return c, nil
}

func (q *queries) CountCities(ctx context.Context) (int, error) {
	var n int
	err := q.c.queryRow(ctx, `SELECT COUNT(*) FROM geo_cities`).Scan(&n)
	return n, eris.Wrap(err, "store: count cities")
}

// stampFeedTimes normalizes feed timestamps to UTC, defaulting missing ones to now.
func (q *queries) stampFeedTimes(created, updated *time.Time) {
	now := q.now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
	*created = created.UTC()
	*updated = updated.UTC()
}
