package gateway

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryGateway is an in-memory Gateway used by tests and by cmd/listctl
// under its --local flag (the default), where its contents last only for
// one command invocation. It reproduces the same atomicity guarantees the
// protocol assumes of the remote store (single-item CAS, atomic list
// append, atomic conditional increment) using a single mutex that guards
// every table, which is sufficient to exercise every race the
// append/retrieval engines are built to tolerate.
type MemoryGateway struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

// NewMemoryGateway returns an empty MemoryGateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func (m *MemoryGateway) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		m.tables[name] = t
	}
	return t
}

func cloneItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (m *MemoryGateway) PutIfAbsent(_ context.Context, table, key string, item map[string]types.AttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	if _, exists := t[key]; exists {
		return ErrAlreadyExists
	}
	t[key] = cloneItem(item)
	return nil
}

func (m *MemoryGateway) Get(_ context.Context, table, key string, projection []string) (map[string]types.AttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	item, ok := t[key]
	if !ok {
		return nil, ErrNotFound
	}
	if len(projection) == 0 {
		return cloneItem(item), nil
	}
	out := make(map[string]types.AttributeValue, len(projection))
	for _, f := range projection {
		if v, ok := item[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

func (m *MemoryGateway) AppendToList(_ context.Context, table, key, field, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	item, ok := t[key]
	if !ok {
		return 0, ErrItemMissing
	}
	list, _ := item[field].(*types.AttributeValueMemberL)
	if list == nil {
		list = &types.AttributeValueMemberL{}
	}
	newValues := make([]types.AttributeValue, len(list.Value), len(list.Value)+1)
	copy(newValues, list.Value)
	newValues = append(newValues, &types.AttributeValueMemberS{Value: value})
	item[field] = &types.AttributeValueMemberL{Value: newValues}
	return len(newValues), nil
}

func (m *MemoryGateway) IncrementIfAtLeast(_ context.Context, table, key, field string, floor int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	item, ok := t[key]
	if !ok {
		return 0, ErrItemMissing
	}
	n, _ := item[field].(*types.AttributeValueMemberN)
	current := 0
	if n != nil {
		current, _ = strconv.Atoi(n.Value)
	}
	if current != floor {
		return 0, ErrPreconditionFailed
	}
	next := current + 1
	item[field] = &types.AttributeValueMemberN{Value: strconv.Itoa(next)}
	return next, nil
}

func (m *MemoryGateway) BulkGet(_ context.Context, table string, keys []string) (map[string]map[string]types.AttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	out := make(map[string]map[string]types.AttributeValue, len(keys))
	for _, k := range keys {
		if item, ok := t[k]; ok {
			out[k] = cloneItem(item)
		}
	}
	return out, nil
}
