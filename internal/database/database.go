package database

import (
	"context"
	"fmt"
	"io"
)

const (
	DriverDynamo   = "dynamodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Options struct {
	Driver   string
	Region   string
	Endpoint string
	DSN      string
	Tables   TableNames
}

// Open builds the repository named by opts.Driver. The returned closer
// releases whatever connection the driver holds.
func Open(ctx context.Context, opts Options) (Repository, io.Closer, error) {
	switch opts.Driver {
	case DriverDynamo:
		client, err := NewDynamoClient(ctx, opts.Region, opts.Endpoint)
		if err != nil {
			return nil, nil, err
		}
		return NewDynamoRepository(client, opts.Tables), nopCloser{}, nil
	case DriverPostgres:
		repo, err := NewPgRepository(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case DriverMemory:
		return NewMemoryRepository(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
