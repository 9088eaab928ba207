package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// catPages extracts .odt and .rtf documents as a single page. Neither format records
// rendered page boundaries.
func catPages(content []byte) ([]string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}
	return []string{text}, nil
}
