//go:build darwin

package clipboard

import (
	"fmt"

	atclip "github.com/atotto/clipboard"
)

// CopyText places text on the system clipboard via pbcopy.
func CopyText(text string) error {
	if atclip.Unsupported {
		return fmt.Errorf("clipboard unsupported: pbcopy not found")
	}
	if err := atclip.WriteAll(text); err != nil {
		return fmt.Errorf("pbcopy: %w", err)
	}
	return nil
}
