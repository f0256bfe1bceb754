package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	kvTable     = "kv_entries"
	eventsTable = "llm_request_events"
)

var (
	// kvColumns holds the columns of the key-value table.
	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Size: 255},
		{Name: "value", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	kvSchema = &schema.Table{
		Name:       kvTable,
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
		Indexes: []*schema.Index{
			{Name: "kventries_updated_at", Columns: []*schema.Column{kvColumns[2]}},
		},
	}

	// eventColumns holds the columns of the LLM request event table.
	eventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	eventSchema = &schema.Table{
		Name:       eventsTable,
		Columns:    eventColumns,
		PrimaryKey: []*schema.Column{eventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_provider", Columns: []*schema.Column{eventColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{eventColumns[4]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{eventColumns[8]}},
		},
	}
)

// migrate creates or updates the tables. Postgres only carries the
// key-value table; the event log is local.
func migrate(ctx context.Context, drv dialect.Driver, tables ...*schema.Table) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
