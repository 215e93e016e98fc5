package catalog

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/cube2222/partiplan/partiplan"
)

var ErrNotFound = errors.New("table not found")

// Table is what the planner knows about a stored table.
type Table struct {
	ID   string
	Name string
	// Type is the declared type of the whole table, usually a bag of structs.
	Type partiplan.Type
	// PrimaryKey lists the primary key fields in key order.
	PrimaryKey []string
}

// RecordType returns the type of a single record of the table.
func (t Table) RecordType() partiplan.Type {
	if element, ok := t.Type.Element(); ok {
		return element
	}
	return partiplan.Dynamic
}

// Resolver resolves tables by name and by unique id.
// Within one planning session the same name must always resolve to the same table.
type Resolver interface {
	Resolve(name string) (Table, bool)
	ResolveByID(id string) (Table, bool)
}

type tableItem struct {
	key   string
	table Table
}

func (item *tableItem) Less(than btree.Item) bool {
	return item.key < than.(*tableItem).key
}

// Catalog is an in-memory Resolver. Table names are case-insensitive.
type Catalog struct {
	mu     sync.RWMutex
	byName *btree.BTree
	byID   map[string]Table
}

func New() *Catalog {
	return &Catalog{
		byName: btree.New(8),
		byID:   make(map[string]Table),
	}
}

// NewTableID generates a fresh unique table id.
func NewTableID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Add registers a table, generating an id if it has none.
func (c *Catalog) Add(table Table) (Table, error) {
	if table.Name == "" {
		return Table{}, errors.New("table name must not be empty")
	}
	if table.ID == "" {
		table.ID = NewTableID()
	}
	if _, ok := table.Type.Element(); !ok && len(table.PrimaryKey) > 0 {
		return Table{}, errors.Errorf("table %s of type %s isn't a collection of records, it can't have a primary key", table.Name, table.Type)
	}
	recordType := table.RecordType()
	for _, key := range table.PrimaryKey {
		if _, ok := recordType.FieldType(key, false); !ok {
			return Table{}, errors.Errorf("primary key field %q not found in table %s of type %s", key, table.Name, table.Type)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(table.Name)
	if c.byName.Has(&tableItem{key: key}) {
		return Table{}, errors.Errorf("table %s already exists", table.Name)
	}
	if _, ok := c.byID[table.ID]; ok {
		return Table{}, errors.Errorf("table id %s already in use", table.ID)
	}
	c.byName.ReplaceOrInsert(&tableItem{key: key, table: table})
	c.byID[table.ID] = table
	return table, nil
}

func (c *Catalog) Resolve(name string) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item := c.byName.Get(&tableItem{key: strings.ToLower(name)})
	if item == nil {
		return Table{}, false
	}
	return item.(*tableItem).table, true
}

func (c *Catalog) ResolveByID(id string) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, ok := c.byID[id]
	return table, ok
}

// Get is like Resolve, but returns an error for unknown tables.
func (c *Catalog) Get(name string) (Table, error) {
	table, ok := c.Resolve(name)
	if !ok {
		return Table{}, errors.Wrapf(ErrNotFound, "couldn't resolve %s", name)
	}
	return table, nil
}

// Tables lists all tables ordered by name.
func (c *Catalog) Tables() []Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Table, 0, c.byName.Len())
	c.byName.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*tableItem).table)
		return true
	})
	return out
}
