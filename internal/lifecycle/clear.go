package lifecycle

import (
	"context"
	"fmt"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/stats"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

const (
	StatusFulfilled = "fulfilled"
	StatusRejected  = "rejected"
)

type Outcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func settle(err error) Outcome {
	if err != nil {
		return Outcome{Status: StatusRejected, Reason: err.Error()}
	}
	return Outcome{Status: StatusFulfilled}
}

// ClearResult reports what happened to one row of a bulk clear. Table is
// absent for users, which own no table.
type ClearResult struct {
	ID     string   `json:"id"`
	Record Outcome  `json:"record"`
	Table  *Outcome `json:"table,omitempty"`
}

// Inventory lists registry ids next to every table the store knows about, so
// orphaned message tables can be spotted.
type Inventory struct {
	List   []string `json:"list"`
	Tables []string `json:"tables"`
}

// ClearEntities deletes every row of kind together with its message table.
// Each deletion runs on its own goroutine and every one is allowed to finish;
// individual failures are reported, never returned.
func (m *Manager) ClearEntities(ctx context.Context, kind database.Kind) ([]ClearResult, error) {
	ids, err := m.listIDs(ctx, kind)
	if err != nil {
		return nil, err
	}

	results := make([]ClearResult, len(ids))
	var wg conc.WaitGroup
	for i, id := range ids {
		wg.Go(func() {
			results[i] = m.clearOne(ctx, kind, id)
		})
	}
	wg.Wait()

	m.log.WithFields(logrus.Fields{"kind": kind, "count": len(ids)}).Info("registry cleared")
	return results, nil
}

func (m *Manager) clearOne(ctx context.Context, kind database.Kind, id string) ClearResult {
	var recordErr, tableErr error

	var wg conc.WaitGroup
	wg.Go(func() {
		if kind == database.KindConversation {
			recordErr = m.db.DeleteConversation(ctx, id, "")
		} else {
			recordErr = m.db.DeleteGroup(ctx, id, "")
		}
	})
	wg.Go(func() {
		tableErr = m.dropTable(ctx, kind, id)
	})
	wg.Wait()

	if recordErr == nil {
		m.stats.Incr(stats.EntitiesDeleted, string(kind))
	}

	table := settle(tableErr)
	return ClearResult{ID: id, Record: settle(recordErr), Table: &table}
}

// ClearUsers deletes every user row.
func (m *Manager) ClearUsers(ctx context.Context) ([]ClearResult, error) {
	users, err := m.db.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	results := make([]ClearResult, len(users))
	var wg conc.WaitGroup
	for i, u := range users {
		wg.Go(func() {
			results[i] = ClearResult{ID: u.Email, Record: settle(m.db.DeleteUser(ctx, u.Email))}
		})
	}
	wg.Wait()

	m.log.WithField("count", len(users)).Info("users cleared")
	return results, nil
}

func (m *Manager) Inventory(ctx context.Context, kind database.Kind) (Inventory, error) {
	ids, err := m.listIDs(ctx, kind)
	if err != nil {
		return Inventory{}, err
	}

	tables, err := m.db.ListTables(ctx)
	if err != nil {
		return Inventory{}, fmt.Errorf("list tables: %w", err)
	}
	if tables == nil {
		tables = []string{}
	}

	return Inventory{List: ids, Tables: tables}, nil
}

func (m *Manager) listIDs(ctx context.Context, kind database.Kind) ([]string, error) {
	ids := make([]string, 0)

	switch kind {
	case database.KindConversation:
		convs, err := m.db.ListConversations(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		for _, c := range convs {
			ids = append(ids, c.ID)
		}
	case database.KindGroup:
		groups, err := m.db.ListGroups(ctx)
		if err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		for _, g := range groups {
			ids = append(ids, g.ID)
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	return ids, nil
}
