package product

import (
	"fmt"

	"github.com/portifolio/catalog/internal/config"
)

// ApplyOrder computes the image list that results from reordering images by
// the given identifier sequence. Each identifier consumes the first not-yet-
// used matching reference, so duplicated display names reorder cleanly.
//
// Under the fail policy the order must be a permutation: an unknown identifier
// or an omitted reference returns ErrInvalidOrder and the input is untouched.
// Under the keepUnlisted policy unknown identifiers are dropped and unlisted
// references are appended after the listed ones, keeping their prior relative
// order.
func ApplyOrder(images []ImageRef, order []string, policy config.UnknownOrderIDPolicy) ([]ImageRef, error) {
	used := make([]bool, len(images))
	reordered := make([]ImageRef, 0, len(images))

	for _, identifier := range order {
		idx := -1
		for i, ref := range images {
			if !used[i] && ref.Matches(identifier) {
				idx = i
				break
			}
		}
		if idx < 0 {
			if policy == config.OrderPolicyKeepUnlisted {
				continue
			}
			return nil, fmt.Errorf("unknown image identifier %q: %w", identifier, ErrInvalidOrder)
		}
		used[idx] = true
		reordered = append(reordered, images[idx])
	}

	if len(reordered) != len(images) {
		if policy != config.OrderPolicyKeepUnlisted {
			return nil, fmt.Errorf("order omits %d reference(s): %w", len(images)-len(reordered), ErrInvalidOrder)
		}
		for i, ref := range images {
			if !used[i] {
				reordered = append(reordered, ref)
			}
		}
	}

	return reordered, nil
}
