package surface

import (
	"fmt"

	"github.com/kestrel-ai/toolbridge/pkg/toolbridgeerr"
)

var errEmptyToolName = toolbridgeerr.ErrEmptyToolName

func errDuplicateToolName(name string) error {
	return fmt.Errorf("%w: %q", toolbridgeerr.ErrDuplicateToolName, name)
}
