package flow

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	orderreaderv1 "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
)

// WriteCSV writes rows orders from src to w.
func WriteCSV(ctx context.Context, w io.Writer, src orderreaderv1.OrderSource, rows int) (int, error) {
	writer := csv.NewWriter(w)

	written := 0
	for written < rows {
		req, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}

		if err := writer.Write(orderreaderv1.ToRecord(req)); err != nil {
			return written, errors.NewTracer(errors.FeedWriteError.String()).Wrap(err)
		}
		written++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, errors.NewTracer(errors.FeedWriteError.String()).Wrap(err)
	}
	return written, nil
}

// WriteFile writes rows generated orders to path, replacing any existing file.
func WriteFile(ctx context.Context, path string, gen *Generator, rows int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.NewTracer(errors.FeedWriteError.String()).Wrap(err)
	}

	n, err := WriteCSV(ctx, f, gen, rows)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = errors.NewTracer(errors.FeedWriteError.String()).Wrap(closeErr)
	}
	return n, err
}

// EnsureDataFile generates path when it does not exist yet.
func EnsureDataFile(ctx context.Context, path string, gen *Generator, rows int, log *logger.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.NewTracer(errors.FeedReadError.String()).Wrap(err)
	}

	log.InfoContext(ctx, "no data found, generating",
		logger.Field{Key: "path", Value: path},
		logger.Field{Key: "rows", Value: rows},
	)

	n, err := WriteFile(ctx, path, gen, rows)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "data file generated",
		logger.Field{Key: "path", Value: path},
		logger.Field{Key: "rows", Value: n},
	)
	return nil
}
