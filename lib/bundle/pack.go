// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/databundle/lib/dataitem"
	"github.com/bureau-foundation/databundle/lib/tags"
	"github.com/bureau-foundation/databundle/lib/version"
)

// Pack writes a bundle holding items, in order, to w and returns the
// header it wrote. Each item is streamed; its payload is opened only
// while it is being copied. A nil logger discards.
func Pack(ctx context.Context, w io.Writer, items []*dataitem.Item, logger *slog.Logger) (*Header, int64, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	header, err := HeaderFor(items)
	if err != nil {
		return nil, 0, err
	}
	written, err := header.WriteTo(w)
	if err != nil {
		return nil, written, fmt.Errorf("writing bundle header: %w", err)
	}

	for position, item := range items {
		expected := header.entries[position].length.Int64()
		copied, err := copyItem(ctx, w, item)
		written += copied
		if err != nil {
			return nil, written, fmt.Errorf("writing item %d (%s): %w", position, item.Header.ID(), err)
		}
		if copied != expected {
			return nil, written, fmt.Errorf("writing item %d (%s): wrote %d bytes, header says %d", position, item.Header.ID(), copied, expected)
		}
		logger.Debug("packed item", "id", item.Header.ID(), "bytes", copied, "position", position)
	}

	logger.Info("packed bundle", "items", len(items), "bytes", written)
	return header, written, nil
}

func copyItem(ctx context.Context, w io.Writer, item *dataitem.Item) (int64, error) {
	stream, err := item.Open(ctx)
	if err != nil {
		return 0, err
	}
	copied, err := io.Copy(w, stream)
	closeErr := stream.Close()
	if err != nil {
		return copied, err
	}
	return copied, closeErr
}

// FormatTags returns the tags conventionally attached to a data item
// that wraps a bundle.
func FormatTags() []tags.Tag {
	return []tags.Tag{
		tags.FromText("Bundle-Format", "binary"),
		tags.FromText("Bundle-Version", version.BundleFormat),
	}
}
