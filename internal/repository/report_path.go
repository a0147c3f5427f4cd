package repository

import (
	"fmt"
	"strings"
	"time"
)

// ReportFilePath builds the download path of a generated report, e.g.
// /reportes/reporte_general_3_2024-05-01.pdf.
func ReportFilePath(reportType string, plantID uint64, at time.Time) string {
	t := strings.ToLower(strings.TrimSpace(reportType))
	t = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, t)
	if t == "" {
		t = "general"
	}
	return fmt.Sprintf("/reportes/reporte_%s_%d_%s.pdf", t, plantID, at.UTC().Format("2006-01-02"))
}
