// Package render produces the final prescription document. Rendering is a
// pure function of its input: no I/O, no mutation, and absent optional
// sections are omitted rather than rendered empty.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/medscribe/backend/services/scribe/entity"
)

// Clinic letterhead. A layout contract with the end user, not with other
// components.
const (
	clinicName    = "Gotham City Hospital"
	clinicStreet  = "123 Medical Center Drive"
	clinicCity    = "Gotham City, GC 10001"
	clinicPhone   = "Phone: (555) 123-4567"
	doctorLicense = "License: MD12345"

	notAvailable = "N/A"
)

// Input carries everything the document needs. Now is injected so rendering
// stays deterministic.
type Input struct {
	Patient      *entity.PatientRecord
	Prescription entity.Prescription
	Items        []entity.PrescriptionItem
	Summary      string
	Now          time.Time
}

// Document renders the paginated prescription PDF.
func Document(in Input) ([]byte, error) {
	if in.Patient == nil {
		return nil, fmt.Errorf("render document: patient is required")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Medical Prescription", false)
	// Pin document metadata to the injected clock so output is a pure
	// function of the input.
	pdf.SetCreationDate(in.Now)
	pdf.SetModificationDate(in.Now)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	header(pdf, in)
	title(pdf)
	patientInfo(pdf, in)

	listSection(pdf, "Symptoms", in.Prescription.SignSymptom)
	medicationTable(pdf, in.Items)
	listSection(pdf, "Condition Severity", in.Prescription.Severity)
	listSection(pdf, "Medical Advice", in.Prescription.Advice)
	listSection(pdf, "Recommended Tests", in.Prescription.Tests)
	listSection(pdf, "Follow Up Instructions", in.Prescription.FollowUp)
	listSection(pdf, "Diagnostic Procedures", in.Prescription.DiagnosticProcedure)
	summarySection(pdf, in.Summary)

	footer(pdf, in)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

func header(pdf *fpdf.Fpdf, in Input) {
	pdf.SetFont("Helvetica", "", 9)

	left := []string{clinicName, clinicStreet, clinicCity, clinicPhone}
	right := []string{
		"Prescribing Physician:",
		in.Patient.DoctorName,
		"Date of visit: " + formatDate(in.Patient.VisitDate),
		"Time of visit: " + orNA(in.Patient.VisitTime),
		"Patient ID: " + shortID(in.Patient.ID),
	}

	top := pdf.GetY()
	for _, line := range left {
		pdf.CellFormat(95, 4.5, line, "", 1, "L", false, 0, "")
	}
	pdf.SetY(top)
	for i, line := range right {
		style := ""
		if i == 0 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.SetX(110)
		pdf.CellFormat(85, 4.5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetDrawColor(60, 60, 60)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(4)
}

func title(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "MEDICAL PRESCRIPTION", "", 1, "C", false, 0, "")
	pdf.Ln(3)
}

func patientInfo(pdf *fpdf.Fpdf, in Input) {
	p := in.Patient

	age := notAvailable
	if years, ok := p.Age(in.Now); ok {
		age = strconv.Itoa(years)
	}
	dob := notAvailable
	if birth, ok := p.BirthDate(); ok {
		dob = birth.Format("01/02/2006")
	}

	sectionTitle(pdf, "Patient Information")

	pairs := [][2]string{
		{"Name:", p.FullName()},
		{"Age:", age},
		{"Date of Birth:", dob},
		{"Contact:", p.Phone},
	}
	if p.Email != nil && *p.Email != "" {
		pairs = append(pairs, [2]string{"Email:", *p.Email})
	}
	pairs = append(pairs, [2]string{"Gender:", string(p.Gender)})
	if len(in.Prescription.Diseases) > 0 {
		pairs = append(pairs, [2]string{"Diagnosis:", strings.Join(in.Prescription.Diseases, ", ")})
	}

	for _, pair := range pairs {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 5.5, pair[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5.5, pair[1], "", "L", false)
	}
	pdf.Ln(2)
}

func sectionTitle(pdf *fpdf.Fpdf, name string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6.5, name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func listSection(pdf *fpdf.Fpdf, name string, items []string) {
	if len(items) == 0 {
		return
	}
	sectionTitle(pdf, name)
	for _, item := range items {
		pdf.SetX(20)
		pdf.MultiCell(0, 5.5, "- "+item, "", "L", false)
	}
	pdf.Ln(2)
}

func medicationTable(pdf *fpdf.Fpdf, items []entity.PrescriptionItem) {
	if len(items) == 0 {
		return
	}
	sectionTitle(pdf, "Prescribed Medications")

	widths := []float64{55, 40, 45, 40}
	headers := []string{"Medicine", "Dosage", "Frequency", "Duration"}

	pdf.SetFont("Helvetica", "B", 9.5)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9.5)
	for _, item := range items {
		duration := item.Duration
		if duration == "" {
			duration = "As directed"
		}
		cells := []string{item.Medicine, item.Dosage, item.Frequency, duration}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6.5, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func summarySection(pdf *fpdf.Fpdf, summary string) {
	if summary == "" {
		return
	}
	sectionTitle(pdf, "Clinical Summary")
	pdf.MultiCell(0, 5.5, summary, "", "L", false)
	pdf.Ln(2)
}

func footer(pdf *fpdf.Fpdf, in Input) {
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5.5, in.Patient.DoctorName, "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, doctorLicense, "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+in.Now.Format("01/02/2006"), "", 1, "R", false, 0, "")
}

func formatDate(value string) string {
	if value == "" {
		return notAvailable
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("01/02/2006")
		}
	}
	return value
}

func orNA(value string) string {
	if value == "" {
		return notAvailable
	}
	return value
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
