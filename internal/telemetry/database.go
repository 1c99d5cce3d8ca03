package telemetry

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey        = "telemetry:span"
	maxStatementSz = 500
)

// GORMTracingPlugin returns a GORM plugin that opens a span around every
// query, create, update and delete.
func GORMTracingPlugin(tp trace.TracerProvider, dbSystem string) gorm.Plugin {
	return &tracingPlugin{tracer: tp.Tracer("gorm"), system: dbSystem}
}

type tracingPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []error{
		cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before("SELECT")),
		cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before("INSERT")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before("DELETE")),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", p.before("SELECT")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", p.before("RAW")),

		cb.Query().After("gorm:query").Register("telemetry:after_query", p.after),
		cb.Create().After("gorm:create").Register("telemetry:after_create", p.after),
		cb.Update().After("gorm:update").Register("telemetry:after_update", p.after),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.after),
		cb.Row().After("gorm:row").Register("telemetry:after_row", p.after),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.after),
	}
	for _, err := range registrations {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *tracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", p.system),
				attribute.String("db.table", table),
				attribute.String("db.operation", operation),
			),
		)
		db.InstanceSet(spanKey, span)
	}
}

func (p *tracingPlugin) after(db *gorm.DB) {
	raw, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatementSz {
			sql = sql[:maxStatementSz] + "... (truncated)"
		}
		span.SetAttributes(attribute.String("db.statement", sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))

	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
