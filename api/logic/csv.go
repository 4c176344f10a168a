/* csv.go
 * Renders rows as CSV text for the reports handed back to operators
 */

package logic

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// renderCSV writes the header followed by rows. No rows renders as the empty string.
func renderCSV(headers []string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}
