// Package auto enables instrumentation at program start.
//
//	import _ "github.com/petal-labs/warehouse/bootstrap/auto"
//
// The import is inert unless LLM_WAREHOUSE_ENABLED is set.
package auto

import (
	"context"

	"github.com/petal-labs/warehouse/bootstrap"
)

func init() {
	bootstrap.Init(context.Background())
}
