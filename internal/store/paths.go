package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

// StreetContext is everything needed to compose an address on a street.
type StreetContext struct {
	Street   model.Street
	Type     model.StreetType
	City     model.City
	Node     model.Node
	NodeType model.NodeType
	Country  model.Country
}

// LoadStreetContext walks street → type → city → node → node type → country.
func (q *queries) LoadStreetContext(ctx context.Context, streetID int64) (*StreetContext, error) {
	street, err := q.GetStreet(ctx, streetID)
	if err != nil {
		return nil, err
	}
	st, err := q.GetStreetType(ctx, street.StreetTypeID)
	if err != nil {
		return nil, err
	}
	city, err := q.GetCity(ctx, street.CityID)
	if err != nil {
		return nil, err
	}
	node, err := q.GetNode(ctx, city.NodeID)
	if err != nil {
		return nil, err
	}
	nt, err := q.GetNodeType(ctx, node.NodeTypeID)
	if err != nil {
		return nil, err
	}
	country, err := q.GetCountry(ctx, node.CountryID)
	if err != nil {
		return nil, err
	}
	return &StreetContext{
		Street:   *street,
		Type:     *st,
		City:     *city,
		Node:     *node,
		NodeType: *nt,
		Country:  *country,
	}, nil
}

// NodePath renders the node's full path from its country down.
func (q *queries) NodePath(ctx context.Context, nodeID int64) (string, error) {
	node, err := q.GetNode(ctx, nodeID)
	if err != nil {
		return "", err
	}
	country, err := q.GetCountry(ctx, node.CountryID)
	if err != nil {
		return "", err
	}
	ancestors, err := q.NodeAncestors(ctx, nodeID)
	if err != nil {
		return "", err
	}
	return node.FullPath(country.NameRU, ancestors), nil
}

// CityPath renders the city's full path through its owning node.
func (q *queries) CityPath(ctx context.Context, cityID int64) (string, error) {
	city, err := q.GetCity(ctx, cityID)
	if err != nil {
		return "", err
	}
	node, err := q.GetNode(ctx, city.NodeID)
	if err != nil {
		return "", err
	}
	country, err := q.GetCountry(ctx, node.CountryID)
	if err != nil {
		return "", err
	}
	chain, err := q.NodeAncestors(ctx, node.ID)
	if err != nil {
		return "", err
	}
	return city.FullPath(country.NameRU, append(chain, *node)), nil
}

// ResolveStreetType finds the street type spelled by token, e.g. "ул" or "avenue".
func (q *queries) ResolveStreetType(ctx context.Context, token string) (*model.StreetType, error) {
	types, err := q.ListStreetTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		if types[i].Matches(token) {
			return &types[i], nil
		}
	}
	return nil, eris.Wrapf(ErrNotFound, "store: street type %q", token)
}
