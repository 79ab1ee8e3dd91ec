// Package receipt encodes cash payments that have no uploaded receipt file
package receipt

import (
	"embed"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prefix marks a document file_path that points to no stored object
const Prefix = "NO_RECEIPT:"

// DateLayout is the dd/mm/yyyy form stored in the sentinel
const DateLayout = "02/01/2006"

//go:embed templates/receipt.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

var printer = message.NewPrinter(language.Turkish)

// NoReceipt is a decoded sentinel
type NoReceipt struct {
	Date   string
	Amount *float64
}

// IsSentinel reports whether a file path is a no-receipt record
func IsSentinel(filePath string) bool {
	return strings.HasPrefix(filePath, Prefix)
}

// Encode builds NO_RECEIPT:dd/mm/yyyy with an optional :amount suffix
func Encode(date time.Time, amount *float64) string {
	s := Prefix + date.Format(DateLayout)
	if amount != nil {
		s += ":" + strconv.FormatFloat(*amount, 'f', -1, 64)
	}
	return s
}

// Decode parses a sentinel. Records written before amounts were stored
// carry only the date.
func Decode(filePath string) (NoReceipt, bool) {
	if !IsSentinel(filePath) {
		return NoReceipt{}, false
	}
	parts := strings.Split(strings.TrimPrefix(filePath, Prefix), ":")

	n := NoReceipt{Date: parts[0]}
	if len(parts) > 1 && parts[1] != "" {
		if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
			n.Amount = &v
		}
	}
	return n, true
}

// FormatAmount renders a whole lira amount with Turkish digit grouping
func FormatAmount(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v))) + " TL"
}

// DisplayName is the document name shown in listings
func DisplayName(date time.Time) string {
	return "Ödeme Dekontu - " + date.Format(DateLayout)
}

// Description is the plain-text note stored alongside the record
func Description(date time.Time) string {
	return "Bu dosyanın ödemesi " + date.Format(DateLayout) + " tarihinde nakit olarak yapılmıştır"
}

// Render writes the confirmation page served in place of a file
func Render(w io.Writer, n NoReceipt) error {
	data := struct {
		Date   string
		Amount string
	}{Date: n.Date}
	if n.Amount != nil {
		data.Amount = FormatAmount(*n.Amount)
	}
	return page.Execute(w, data)
}
