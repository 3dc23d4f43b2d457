package repository

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/placementcell/eligibility/repository"

type spanKey struct{}

// tracingPlugin opens one client span per gorm operation.
type tracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

func newTracingPlugin(dbName string) *tracingPlugin {
	return &tracingPlugin{tracer: otel.Tracer(tracerName), dbName: dbName}
}

func (p *tracingPlugin) Name() string { return "placement:otel" }

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	register := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
		return nil
	}

	if err := register("create", cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE"))); err != nil {
		return err
	}
	if err := register("create", cb.Create().After("gorm:create").Register("otel:after_create", p.after())); err != nil {
		return err
	}
	if err := register("query", cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT"))); err != nil {
		return err
	}
	if err := register("query", cb.Query().After("gorm:query").Register("otel:after_query", p.after())); err != nil {
		return err
	}
	if err := register("update", cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE"))); err != nil {
		return err
	}
	if err := register("update", cb.Update().After("gorm:update").Register("otel:after_update", p.after())); err != nil {
		return err
	}
	if err := register("delete", cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE"))); err != nil {
		return err
	}
	if err := register("delete", cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after())); err != nil {
		return err
	}
	if err := register("row", cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW"))); err != nil {
		return err
	}
	if err := register("row", cb.Row().After("gorm:row").Register("otel:after_row", p.after())); err != nil {
		return err
	}
	if err := register("raw", cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW"))); err != nil {
		return err
	}
	return register("raw", cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()))
}

func (p *tracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		ctx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			),
		)
		db.Statement.Context = context.WithValue(ctx, spanKey{}, span)
	}
}

func (p *tracingPlugin) after() func(*gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if stmt := db.Statement.SQL.String(); stmt != "" {
			span.SetAttributes(attribute.String("db.statement", stmt))
		}
		switch {
		case db.Error == nil, errors.Is(db.Error, gorm.ErrRecordNotFound):
			span.SetStatus(codes.Ok, "")
		default:
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}
