// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package export

import (
	"encoding/json"
	"fmt"
)

// ParseImport decodes and validates an export package. The package must carry
// version, exportedAt, and logs; anything else is rejected before any state
// changes, so a malformed file never partially applies.
func ParseImport(data []byte) (*Package, error) {
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}
	if pkg.Version == "" {
		return nil, fmt.Errorf("invalid export file: missing version")
	}
	if pkg.ExportedAt == "" {
		return nil, fmt.Errorf("invalid export file: missing exportedAt")
	}
	if pkg.Logs == nil {
		return nil, fmt.Errorf("invalid export file: missing logs")
	}
	return &pkg, nil
}
