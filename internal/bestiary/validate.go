package bestiary

import (
	"fmt"
	"strings"
)

// ValidatePack checks a pack's structural constraints and reports every
// problem found in one error.
func ValidatePack(p Pack) error {
	var errs []string

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.Contains(p.Name, "/") {
		errs = append(errs, "name must not contain '/'")
	}

	seen := make(map[string]int, len(p.Creatures))
	for i, c := range p.Creatures {
		if strings.TrimSpace(c.ID) == "" {
			errs = append(errs, fmt.Sprintf("creatures[%d].id is required", i))
		} else if j, dup := seen[c.ID]; dup {
			errs = append(errs, fmt.Sprintf("creatures[%d].id %q duplicates creatures[%d]", i, c.ID, j))
		} else {
			seen[c.ID] = i
		}
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Sprintf("creatures[%d].name is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("pack validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
