// Package repository defines data access interfaces for Tonearm.
// This file contains the unit-of-work contract shared by every backend.
package repository

import (
	"context"
	"fmt"
)

// IsolationLevel selects the transaction isolation of a unit of work.
type IsolationLevel int

const (
	// IsolationDefault runs at the store's configured default level.
	IsolationDefault IsolationLevel = iota
	IsolationSerializable
	IsolationRepeatableRead
	IsolationReadCommitted
	// IsolationReadUncommitted tolerates in-flight writes of concurrent
	// transactions. Only the album aggregate read uses it.
	IsolationReadUncommitted
)

// String returns the configuration name of the level.
func (l IsolationLevel) String() string {
	switch l {
	case IsolationSerializable:
		return "serializable"
	case IsolationRepeatableRead:
		return "repeatable_read"
	case IsolationReadCommitted:
		return "read_committed"
	case IsolationReadUncommitted:
		return "read_uncommitted"
	default:
		return "default"
	}
}

// ParseIsolation converts a configuration name into an IsolationLevel.
func ParseIsolation(name string) (IsolationLevel, error) {
	switch name {
	case "", "default":
		return IsolationDefault, nil
	case "serializable":
		return IsolationSerializable, nil
	case "repeatable_read":
		return IsolationRepeatableRead, nil
	case "read_committed":
		return IsolationReadCommitted, nil
	case "read_uncommitted":
		return IsolationReadUncommitted, nil
	}
	return IsolationDefault, fmt.Errorf("%w: %q", ErrUnsupportedIsolation, name)
}

// TxOptions configures a unit of work.
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// ReadOnly is the option set for plain reads at the default level.
var ReadOnly = TxOptions{ReadOnly: true}

// Repositories holds the repository set bound to one transaction.
type Repositories struct {
	User   UserRepository
	Artist ArtistRepository
	Album  AlbumRepository
	Review ReviewRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Store hands out transaction-scoped repositories.
//
// WithTx begins a transaction, runs fn and commits when fn returns nil.
// The transaction is rolled back when fn returns an error or panics, so
// it is always released before WithTx returns.
type Store interface {
	DatabaseHealth

	WithTx(ctx context.Context, opts TxOptions, fn func(repos *Repositories) error) error

	// Driver names the backend ("postgres" or "sqlite").
	Driver() string
}
