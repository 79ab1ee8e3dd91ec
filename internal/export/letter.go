package export

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Letter is what the welcome letter shows to a new customer
type Letter struct {
	CustomerName   string
	TrackingNumber string
	CaseNumber     string
	PortalURL      string
}

// LoginURL is the portal address encoded in the QR code
func (l Letter) LoginURL() string {
	u, err := url.Parse(l.PortalURL)
	if err != nil {
		return l.PortalURL
	}
	q := u.Query()
	q.Set("dosya", l.TrackingNumber)
	u.RawQuery = q.Encode()
	return u.String()
}

// WelcomeLetterPDF renders a one page letter with the tracking number and a
// QR code that opens the portal login
func WelcomeLetterPDF(l Letter) ([]byte, error) {
	qrPng, err := qrcode.Encode(l.LoginURL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "Deger360", "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	body := fmt.Sprintf("Sayin %s,\n\nDeger kaybi basvurunuz alinmistir. Dosyanizin durumunu asagidaki bilgilerle musteri portalindan takip edebilirsiniz.", l.CustomerName)
	pdf.MultiCell(0, 6, fold(body), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(50, 7, "Dosya Takip No", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, l.TrackingNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(50, 7, "Dosya No", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fold(l.CaseNumber), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	imgOptions := gofpdf.ImageOptions{
		ImageType: "PNG",
		ReadDpi:   true,
	}
	pdf.RegisterImageOptionsReader("portal_qr", imgOptions, bytes.NewReader(qrPng))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to embed qr code: %w", err)
	}
	x := pdf.GetX()
	y := pdf.GetY()
	pdf.ImageOptions("portal_qr", x, y, 45, 45, false, imgOptions, 0, "")

	pdf.SetXY(x+50, y+15)
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, "Portala giris icin kodu telefonunuzla okutun:\n"+l.LoginURL(), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
