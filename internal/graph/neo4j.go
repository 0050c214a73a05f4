// Package graph stores the crawled link graph in Neo4j.
package graph

//go:generate mockgen -destination=../../mocks/mock_graph.go -package=mocks crawl-frontier/internal/graph SessionRunner,DriverSessioner

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SessionRunner abstracts neo4j.SessionWithContext.
type SessionRunner interface {
	ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)
	Close(ctx context.Context) error
}

// DriverSessioner abstracts neo4j.DriverWithContext.
type DriverSessioner interface {
	NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner
	Close(ctx context.Context) error
}

type driver struct {
	neo4j.DriverWithContext
}

func (d driver) NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner {
	return d.DriverWithContext.NewSession(ctx, config)
}

// Open connects to Neo4j and verifies connectivity.
func Open(ctx context.Context, uri, user, password string) (DriverSessioner, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	return driver{d}, nil
}
