// Package workbook extracts embedded spreadsheet streams from a container.
// Inventor keeps linked spreadsheets under the RSeEmbeddings storage, one
// substorage per embedding. The streams are handed out verbatim: interpreting
// workbook contents is the consumer's concern.
package workbook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wudi/inventorkit/cfb"
)

const embeddingsStorage = "RSeEmbeddings"

// Stream is one extracted embedded stream.
type Stream struct {
	Storage string // substorage path under RSeEmbeddings
	Name    string // stream name, usually "Workbook"
	Data    []byte
}

// Extract pulls every stream under the RSeEmbeddings storage. A container
// without embeddings yields an empty slice, not an error.
func Extract(c *cfb.Container) ([]Stream, error) {
	var out []Stream
	for _, path := range c.Streams() {
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[0] != embeddingsStorage {
			continue
		}
		data, err := c.ReadStream(path)
		if err != nil {
			if errors.Is(err, cfb.ErrStreamNotFound) {
				continue
			}
			return out, fmt.Errorf("read embedding %q: %w", path, err)
		}
		out = append(out, Stream{
			Storage: strings.Join(parts[:len(parts)-1], "/"),
			Name:    parts[len(parts)-1],
			Data:    data,
		})
	}
	return out, nil
}
