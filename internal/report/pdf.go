// Package report renders the downloadable PDF for a stored report.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

// Document is the data printed on a report.
type Document struct {
	Report      model.Report
	Plant       model.Plant
	Incidents   []model.Incident
	Maintenance []model.Maintenance
}

// Summary counts a plant's incidents and maintenance jobs per status.
type Summary struct {
	Incidents   map[string]int
	Maintenance map[string]int
}

func Summarize(incidents []model.Incident, jobs []model.Maintenance) Summary {
	s := Summary{Incidents: map[string]int{}, Maintenance: map[string]int{}}
	for _, in := range incidents {
		s.Incidents[string(in.Status)]++
	}
	for _, m := range jobs {
		s.Maintenance[string(m.Status)]++
	}
	return s
}

// Render writes a one page A4 PDF for doc to w.
func Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Report %d", doc.Report.ID), true)
	pdf.SetCreator("plant-maintenance", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr("Maintenance report"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	}
	field("Plant", doc.Plant.Name)
	field("Location", doc.Plant.Location)
	field("Client", doc.Plant.ClientName)
	field("Type", doc.Report.Type)
	field("Period", doc.Report.Period)
	field("Generated by", doc.Report.GeneratorName)
	field("Generated at", doc.Report.GeneratedAt.UTC().Format(time.RFC1123))

	if doc.Report.Description != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, tr("Description"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(doc.Report.Description), "", "L", false)
	}

	sum := Summarize(doc.Incidents, doc.Maintenance)
	table := func(title string, counts map[string]int) {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(229, 231, 235)
		pdf.CellFormat(90, 8, "Status", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "Count", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		if len(counts) == 0 {
			pdf.CellFormat(120, 8, tr("No records"), "1", 1, "L", false, 0, "")
			return
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pdf.CellFormat(90, 8, tr(k), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 8, fmt.Sprint(counts[k]), "1", 1, "R", false, 0, "")
		}
	}
	table("Incidents", sum.Incidents)
	table("Maintenance", sum.Maintenance)

	return pdf.Output(w)
}
