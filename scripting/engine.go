// Package scripting runs user scripts against a decoded document: parameter
// queries, feature walks, diagnostic triage. Scripts get a read-only view;
// the model is never mutated from script code.
package scripting

import (
	"context"

	"github.com/wudi/inventorkit/ir/model"
)

// Engine executes scripts against a registered document.
type Engine interface {
	// Execute runs a script and returns its final value. Cancelling the
	// context interrupts a running script.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDocument exposes the document to subsequent Execute calls.
	RegisterDocument(doc *model.Document) error
}
