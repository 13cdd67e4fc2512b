package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"trending_etl/internal/model"
)

const parquetFlushEvery = 100000

// ParquetWriter writes one SNAPPY-compressed <table>.parquet per table.
// Every column is OPTIONAL so null cells survive.
type ParquetWriter struct {
	dir string
	np  int64
}

func NewParquetWriter(dir string) *ParquetWriter {
	return &ParquetWriter{dir: dir, np: 4}
}

func (w *ParquetWriter) Name() string { return "parquet" }

func (w *ParquetWriter) Write(ctx context.Context, tables []model.Table) ([]Output, error) {
	return writeStaged(ctx, w.dir, ".parquet", tables, w.writeTable)
}

func parquetSchema(cols []model.Column) []string {
	md := make([]string, len(cols))
	for i, c := range cols {
		var typ string
		switch c.Kind {
		case model.KindInt:
			typ = "type=INT64"
		case model.KindBool:
			typ = "type=BOOLEAN"
		case model.KindTimestamp:
			typ = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
		default:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8"
		}
		md[i] = fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c.Name, typ)
	}
	return md
}

// parquetValue converts a rendered cell back to the Go value the column
// type expects. Null becomes nil.
func parquetValue(c model.Cell, kind model.Kind) (interface{}, error) {
	if !c.Valid {
		return nil, nil
	}
	switch kind {
	case model.KindInt:
		return strconv.ParseInt(c.String, 10, 64)
	case model.KindBool:
		return strconv.ParseBool(c.String)
	case model.KindTimestamp:
		t, err := time.Parse(model.TimestampLayout, c.String)
		if err != nil {
			return nil, err
		}
		return t.UnixMilli(), nil
	}
	return c.String, nil
}

func (w *ParquetWriter) writeTable(path string, t model.Table) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create local file writer: %w", err)
	}

	pw, err := writer.NewCSVWriter(parquetSchema(t.Columns), fw, w.np)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range t.Rows {
		rec := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			v, err := parquetValue(row[j], col.Kind)
			if err != nil {
				fw.Close()
				return fmt.Errorf("row %d column %s: %w", i, col.Name, err)
			}
			rec[j] = v
		}
		if err := pw.Write(rec); err != nil {
			fw.Close()
			return fmt.Errorf("write row %d: %w", i, err)
		}
		if (i+1)%parquetFlushEvery == 0 {
			if err := pw.Flush(true); err != nil {
				fw.Close()
				return fmt.Errorf("flush: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("error in WriteStop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("error closing file writer: %w", err)
	}
	return nil
}
