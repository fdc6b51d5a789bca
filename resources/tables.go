package resources

import (
	"context"
	"net/http"

	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/types"
	"github.com/gaborage/dataapi-go/validation"
)

// Column describes one column of a table schema.
type Column struct {
	Name        string      `json:"name" validate:"required,identifier,max=63"`
	Type        string      `json:"type" validate:"required,oneof=string integer float boolean datetime json text binary"`
	Nullable    bool        `json:"nullable"`
	PrimaryKey  bool        `json:"primaryKey"`
	Unique      bool        `json:"unique"`
	Default     types.Value `json:"default,omitzero"`
	Description string      `json:"description,omitempty"`
}

// Table is a table inside a database.
type Table struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	DatabaseID  string                 `json:"databaseId"`
	Schema      []Column               `json:"schema"`
	Description string                 `json:"description,omitempty"`
	RowCount    int64                  `json:"rowCount"`
	Metadata    map[string]types.Value `json:"metadata,omitempty"`
	CreatedAt   types.Timestamp        `json:"createdAt"`
	UpdatedAt   types.Timestamp        `json:"updatedAt"`
}

// TableRequest creates a table with at least one column.
type TableRequest struct {
	Name        string                 `json:"name" validate:"required,identifier,max=63"`
	Schema      []Column               `json:"schema" validate:"required,min=1,dive"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]types.Value `json:"metadata,omitempty"`
}

// TableUpdateRequest changes only the fields that are present. The schema is
// fixed once the table exists.
type TableUpdateRequest struct {
	Name        types.Optional[string] `json:"name,omitzero"`
	Description types.Optional[string] `json:"description,omitzero"`
	Metadata    map[string]types.Value `json:"metadata,omitempty"`
}

// Record is one row of a table. Version increases on every write and guards
// concurrent updates.
type Record struct {
	ID        string                 `json:"id"`
	TableID   string                 `json:"tableId"`
	Data      map[string]types.Value `json:"data"`
	Version   int64                  `json:"version"`
	CreatedAt types.Timestamp        `json:"createdAt"`
	UpdatedAt types.Timestamp        `json:"updatedAt"`
}

// RecordRequest carries record data. On update, a present Version makes the
// server reject the write with a conflict when the stored record moved on.
type RecordRequest struct {
	Data    map[string]types.Value `json:"data" validate:"required"`
	Version types.Optional[int64]  `json:"version,omitzero"`
}

// Tables wraps the table endpoints of one database.
type Tables struct {
	c          httpclient.Client
	databaseID string
}

func (t *Tables) base() (string, error) {
	return idPath("databaseId", databasesPath, t.databaseID, "tables")
}

// Page lists the tables of the database.
func (t *Tables) Page(ctx context.Context, req PageRequest) (page.Result[Table], error) {
	base, err := t.base()
	if err != nil {
		return page.Result[Table]{}, err
	}
	return getPage[Table](ctx, t.c, base, req)
}

// Get fetches one table.
func (t *Tables) Get(ctx context.Context, tableID string) (Table, error) {
	base, err := t.base()
	if err != nil {
		return Table{}, err
	}
	return getByID[Table](ctx, t.c, "tableId", base, tableID)
}

// Create adds a table to the database.
func (t *Tables) Create(ctx context.Context, req TableRequest) (Table, error) {
	base, err := t.base()
	if err != nil {
		return Table{}, err
	}
	return send[Table](ctx, t.c, http.MethodPost, base, req)
}

// Update patches the table name, description or metadata.
func (t *Tables) Update(ctx context.Context, tableID string, req TableUpdateRequest) (Table, error) {
	if name, ok := req.Name.Get(); ok {
		if err := validation.Var("name", name, "required,identifier,max=63"); err != nil {
			return Table{}, err
		}
	}
	base, err := t.base()
	if err != nil {
		return Table{}, err
	}
	p, err := idPath("tableId", base, tableID)
	if err != nil {
		return Table{}, err
	}
	return send[Table](ctx, t.c, http.MethodPatch, p, req)
}

// Delete drops the table and its records.
func (t *Tables) Delete(ctx context.Context, tableID string) error {
	base, err := t.base()
	if err != nil {
		return err
	}
	return deleteByID(ctx, t.c, "tableId", base, tableID)
}

// Records scopes record operations to tableID.
func (t *Tables) Records(tableID string) *Records {
	return &Records{tables: t, tableID: tableID}
}

// Records wraps the record endpoints of one table.
type Records struct {
	tables  *Tables
	tableID string
}

func (r *Records) base() (string, error) {
	base, err := r.tables.base()
	if err != nil {
		return "", err
	}
	return idPath("tableId", base, r.tableID, "records")
}

// Page lists records of the table.
func (r *Records) Page(ctx context.Context, req PageRequest) (page.Result[Record], error) {
	base, err := r.base()
	if err != nil {
		return page.Result[Record]{}, err
	}
	return getPage[Record](ctx, r.tables.c, base, req)
}

// Get fetches one record.
func (r *Records) Get(ctx context.Context, recordID string) (Record, error) {
	base, err := r.base()
	if err != nil {
		return Record{}, err
	}
	return getByID[Record](ctx, r.tables.c, "recordId", base, recordID)
}

// Create inserts a record.
func (r *Records) Create(ctx context.Context, data map[string]types.Value) (Record, error) {
	base, err := r.base()
	if err != nil {
		return Record{}, err
	}
	return send[Record](ctx, r.tables.c, http.MethodPost, base, RecordRequest{Data: data})
}

// Update replaces the record data. A stale Version fails with a conflict
// error and is not retried.
func (r *Records) Update(ctx context.Context, recordID string, req RecordRequest) (Record, error) {
	base, err := r.base()
	if err != nil {
		return Record{}, err
	}
	p, err := idPath("recordId", base, recordID)
	if err != nil {
		return Record{}, err
	}
	return send[Record](ctx, r.tables.c, http.MethodPatch, p, req)
}

// Delete removes the record.
func (r *Records) Delete(ctx context.Context, recordID string) error {
	base, err := r.base()
	if err != nil {
		return err
	}
	return deleteByID(ctx, r.tables.c, "recordId", base, recordID)
}
