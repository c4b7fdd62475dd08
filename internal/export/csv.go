// Package export serializes matched customer sets for downstream
// consumers: CSV files for download or S3 hand-off and plain email
// lists for clipboard and campaign tooling.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ignite/customer-insights/internal/profile"
)

// csvColumns is the fixed export column order.
var csvColumns = []string{"name", "email", "role", "lifetime_value", "joined_date"}

// WriteCSV serializes the matched set in the fixed column order, every
// field wrapped in double quotes with embedded quotes doubled. The
// lifetime value column carries the realized value, not the stored
// one.
func WriteCSV(w io.Writer, matched []profile.Profile) error {
	if err := writeRow(w, csvColumns); err != nil {
		return err
	}

	for _, p := range matched {
		row := []string{
			p.Name,
			p.Email,
			p.Role,
			fmt.Sprintf("%.2f", p.RealizedValue),
			p.CreatedAt.Format("2006-01-02"),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}

	return nil
}

// writeRow quotes every field unconditionally. encoding/csv only
// quotes when forced to, and the export contract wants all fields
// wrapped, so the quoting is done by hand.
func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// EmailList extracts lowercase, deduplicated emails from the matched
// set in population order, for clipboard copy and campaign hand-off.
func EmailList(matched []profile.Profile) []string {
	seen := make(map[string]bool, len(matched))
	emails := make([]string, 0, len(matched))

	for _, p := range matched {
		email := strings.ToLower(strings.TrimSpace(p.Email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}

	return emails
}
