package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries the fields printed on a participation certificate.
type CertificateDocument struct {
	Number           string
	RecipientName    string
	EventTitle       string
	EventDate        time.Time
	Location         string
	OrganizerName    string
	IssuerName       string
	IssuedAt         time.Time
	VerificationHash string
}

// CertificateRenderer draws certificates as single page landscape PDFs.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces the PDF bytes for doc.
func (r *CertificateRenderer) Render(doc CertificateDocument) ([]byte, error) {
	if doc.Number == "" || doc.RecipientName == "" || doc.EventTitle == "" {
		return nil, fmt.Errorf("certificate requires number, recipient and event")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate "+doc.Number, true)
	pdf.SetAuthor(doc.IssuerName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()
	pdf.SetDrawColor(40, 62, 120)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, width-20, height-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, width-28, height-28, "D")

	if doc.IssuerName != "" {
		pdf.SetY(26)
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(0, 8, tr(strings.ToUpper(doc.IssuerName)), "", 1, "C", false, 0, "")
	}

	pdf.SetY(40)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetTextColor(40, 62, 120)
	pdf.CellFormat(0, 14, "CERTIFICATE OF PARTICIPATION", "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(0, 14, tr(doc.RecipientName), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, "attended", "", 1, "C", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(40, 62, 120)
	pdf.MultiCell(0, 9, tr(doc.EventTitle), "", "C", false)

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	details := make([]string, 0, 2)
	if !doc.EventDate.IsZero() {
		details = append(details, doc.EventDate.Format("January 2, 2006"))
	}
	if doc.Location != "" {
		details = append(details, doc.Location)
	}
	if len(details) > 0 {
		pdf.CellFormat(0, 7, tr(strings.Join(details, "  |  ")), "", 1, "C", false, 0, "")
	}

	footerY := height - 48
	if doc.OrganizerName != "" {
		pdf.Line(width/2-45, footerY, width/2+45, footerY)
		pdf.SetXY(width/2-45, footerY+1)
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(90, 6, tr(doc.OrganizerName), "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(90, 5, "Organizer", "", 0, "C", false, 0, "")
	}

	issued := doc.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}
	pdf.SetXY(20, height-30)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, fmt.Sprintf("Certificate ID: %s    Issued: %s", doc.Number, issued.Format("2006-01-02")), "", 1, "L", false, 0, "")
	if doc.VerificationHash != "" {
		pdf.SetFont("Courier", "", 7)
		pdf.CellFormat(0, 5, "Verification: "+doc.VerificationHash, "", 1, "L", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
