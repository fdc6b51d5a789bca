package resources

import (
	"context"
	"net/http"

	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/types"
	"github.com/gaborage/dataapi-go/validation"
)

const databasesPath = "/databases"

// Database is a registered database connection.
type Database struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Type         string                 `json:"type"`
	Host         string                 `json:"host,omitempty"`
	Port         int                    `json:"port,omitempty"`
	DatabaseName string                 `json:"databaseName,omitempty"`
	Status       string                 `json:"status,omitempty"`
	OwnerID      string                 `json:"ownerId,omitempty"`
	Metadata     map[string]types.Value `json:"metadata,omitempty"`
	CreatedAt    types.Timestamp        `json:"createdAt"`
	UpdatedAt    types.Timestamp        `json:"updatedAt"`
}

// DatabaseRequest registers a database. Connection is optional for databases
// the server hosts itself.
type DatabaseRequest struct {
	Name        string                 `json:"name" validate:"required,max=255"`
	Description string                 `json:"description,omitempty" validate:"max=1000"`
	Connection  *ConnectionConfig      `json:"connection,omitempty"`
	Metadata    map[string]types.Value `json:"metadata,omitempty"`
}

// DatabaseUpdateRequest changes only the fields that are present.
type DatabaseUpdateRequest struct {
	Name        types.Optional[string] `json:"name,omitzero"`
	Description types.Optional[string] `json:"description,omitzero"`
	Metadata    map[string]types.Value `json:"metadata,omitempty"`
}

// ConnectionConfig describes a database to test before registering it.
type ConnectionConfig struct {
	Type         string `json:"type" validate:"required,oneof=postgresql mysql oracle sqlserver mongodb"`
	Host         string `json:"host" validate:"required,hostname|ip"`
	Port         int    `json:"port" validate:"required,gte=1,lte=65535"`
	DatabaseName string `json:"databaseName" validate:"required"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
}

// ConnectionTestResult is the outcome of TestConnection.
type ConnectionTestResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// QueryRequest runs SQL against a registered database. Params bind
// positionally to placeholders.
type QueryRequest struct {
	SQL    string        `json:"sql" validate:"required"`
	Params []types.Value `json:"params,omitempty"`
}

// QueryResult holds the rows of a query. Each row is an object keyed by column.
type QueryResult struct {
	Columns      []string      `json:"columns"`
	Rows         []types.Value `json:"rows"`
	RowCount     int64         `json:"rowCount"`
	AffectedRows int64         `json:"affectedRows"`
	ElapsedMs    int64         `json:"elapsedMs"`
}

// Databases wraps the database endpoints.
type Databases struct {
	c httpclient.Client
}

// NewDatabases binds the database endpoints to c.
func NewDatabases(c httpclient.Client) *Databases { return &Databases{c: c} }

// Page lists database connections.
func (d *Databases) Page(ctx context.Context, req PageRequest) (page.Result[Database], error) {
	return getPage[Database](ctx, d.c, databasesPath, req)
}

// Get fetches one database connection.
func (d *Databases) Get(ctx context.Context, id string) (Database, error) {
	return getByID[Database](ctx, d.c, "id", databasesPath, id)
}

// Create registers a database.
func (d *Databases) Create(ctx context.Context, req DatabaseRequest) (Database, error) {
	return send[Database](ctx, d.c, http.MethodPost, databasesPath, req)
}

// Update patches the database metadata.
func (d *Databases) Update(ctx context.Context, id string, req DatabaseUpdateRequest) (Database, error) {
	if name, ok := req.Name.Get(); ok {
		if err := validation.Var("name", name, "required,max=255"); err != nil {
			return Database{}, err
		}
	}
	p, err := idPath("id", databasesPath, id)
	if err != nil {
		return Database{}, err
	}
	return send[Database](ctx, d.c, http.MethodPatch, p, req)
}

// Delete removes the database and everything in it.
func (d *Databases) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, d.c, "id", databasesPath, id)
}

// Tables scopes table operations to database id. The id is validated on use.
func (d *Databases) Tables(id string) *Tables {
	return &Tables{c: d.c, databaseID: id}
}

// TestConnection has no side effects and is retried like a GET.
func (d *Databases) TestConnection(ctx context.Context, cfg ConnectionConfig) (ConnectionTestResult, error) {
	return send[ConnectionTestResult](ctx, d.c, http.MethodPost, databasesPath+"/test-connection", cfg, httpclient.AllowRetry())
}

// Execute runs sql on database id. Statements may write, so failures are not retried.
func (d *Databases) Execute(ctx context.Context, id, sql string, params ...types.Value) (QueryResult, error) {
	p, err := idPath("id", databasesPath, id, "execute")
	if err != nil {
		return QueryResult{}, err
	}
	return send[QueryResult](ctx, d.c, http.MethodPost, p, QueryRequest{SQL: sql, Params: params})
}
