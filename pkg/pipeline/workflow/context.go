package workflow

import (
	"github.com/utxolens/soprx/pkg/pipeline/activity"
)

// Context wires the activity context into the workflow definitions.
type Context struct {
	ActivityContext *activity.Context
}
