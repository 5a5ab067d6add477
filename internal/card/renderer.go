// Package card renders issued digital IDs as printable PDF cards and gathers
// the image assets the render needs.
package card

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"kabaleid/internal/digitalid"
)

// Card dimensions in points, landscape ID-card proportions.
const (
	cardWidth  = 380.0
	cardHeight = 240.0

	headerHeight = 46.0
	margin       = 14.0
)

const dateLayout = "02 Jan 2006"

// Data is everything printed on a card.
type Data struct {
	DigitalID   digitalid.DigitalID
	FullName    string
	DateOfBirth time.Time
	Gender      string
	Phone       string
	Address     string
	Nationality string
	KabaleName  string
	KabaleCode  string
}

// Render produces the two-page card PDF. The document's creation date is
// pinned to the ID's issuance time, so the same config and data always render
// the same bytes.
func Render(cfg digitalid.DesignConfig, data Data, assets Assets) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetCreationDate(data.DigitalID.IssuedAt.UTC())
	pdf.SetAutoPageBreak(false, 0)

	font := coreFont(cfg.FontFamily)
	headerR, headerG, headerB := parseHex(cfg.HeaderColor, 26, 86, 50)
	accentR, accentG, accentB := parseHex(cfg.AccentColor, 245, 197, 24)
	textR, textG, textB := parseHex(cfg.TextColor, 27, 27, 27)

	drawHeader := func() {
		pdf.SetFillColor(headerR, headerG, headerB)
		pdf.Rect(0, 0, cardWidth, headerHeight, "F")
		pdf.SetFillColor(accentR, accentG, accentB)
		pdf.Rect(0, headerHeight, cardWidth, 4, "F")

		if assets.Logo != nil {
			placeImage(pdf, "logo", assets.Logo, margin, 7, 32, 32)
		}

		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont(font, "B", 13)
		pdf.SetXY(0, 10)
		pdf.CellFormat(cardWidth, 14, cfg.HeaderText, "", 0, "C", false, 0, "")
		pdf.SetFont(font, "", 9)
		pdf.SetXY(0, 26)
		pdf.CellFormat(cardWidth, 11, cfg.SubHeaderText, "", 0, "C", false, 0, "")
	}

	field := func(x, y float64, label, value string) {
		pdf.SetTextColor(textR, textG, textB)
		pdf.SetFont(font, "", 6)
		pdf.SetXY(x, y)
		pdf.CellFormat(0, 7, strings.ToUpper(label), "", 0, "L", false, 0, "")
		pdf.SetFont(font, "B", 9)
		pdf.SetXY(x, y+7)
		pdf.CellFormat(0, 10, value, "", 0, "L", false, 0, "")
	}

	// Front: photo, personal details, ID number.
	pdf.AddPage()
	drawHeader()

	photoX, photoY := margin, headerHeight+14.0
	photoW, photoH := 86.0, 108.0
	if assets.Photo != nil {
		placeImage(pdf, "photo", assets.Photo, photoX, photoY, photoW, photoH)
	} else {
		pdf.SetFillColor(225, 225, 225)
		pdf.Rect(photoX, photoY, photoW, photoH, "F")
		pdf.SetTextColor(120, 120, 120)
		pdf.SetFont(font, "", 7)
		pdf.SetXY(photoX, photoY+photoH/2-4)
		pdf.CellFormat(photoW, 8, "NO PHOTO", "", 0, "C", false, 0, "")
	}

	colX := photoX + photoW + 16
	field(colX, headerHeight+14, "Full Name", data.FullName)
	field(colX, headerHeight+44, "Date of Birth", data.DateOfBirth.Format(dateLayout))
	field(colX, headerHeight+74, "Sex", data.Gender)
	field(colX, headerHeight+104, "Phone", data.Phone)

	col2X := colX + 130
	field(col2X, headerHeight+44, "Kabale", data.KabaleName)
	field(col2X, headerHeight+74, "Code", data.KabaleCode)

	pdf.SetTextColor(textR, textG, textB)
	pdf.SetFont(font, "B", 8)
	pdf.SetXY(margin, cardHeight-24)
	pdf.CellFormat(0, 10, "ID NO: "+idNumber(data.DigitalID), "", 0, "L", false, 0, "")

	// Back: residence details, validity dates, QR.
	pdf.AddPage()
	drawHeader()

	field(margin, headerHeight+14, "Nationality", data.Nationality)
	field(margin, headerHeight+44, "Address", data.Address)
	field(margin, headerHeight+74, "Date of Issue", data.DigitalID.IssuedAt.Format(dateLayout))
	field(margin, headerHeight+104, "Date of Expiry", data.DigitalID.ExpiresAt.Format(dateLayout))

	qrSide := 104.0
	qrX, qrY := cardWidth-margin-qrSide, headerHeight+18
	if assets.QR != nil {
		placeImage(pdf, "qr", assets.QR, qrX, qrY, qrSide, qrSide)
	} else {
		pdf.SetDrawColor(120, 120, 120)
		pdf.Rect(qrX, qrY, qrSide, qrSide, "D")
	}
	pdf.SetTextColor(textR, textG, textB)
	pdf.SetFont(font, "", 6)
	pdf.SetXY(qrX, qrY+qrSide+2)
	pdf.CellFormat(qrSide, 7, "SCAN TO VERIFY", "", 0, "C", false, 0, "")

	pdf.SetFont(font, "B", 8)
	pdf.SetXY(margin, cardHeight-24)
	pdf.CellFormat(0, 10, "ID NO: "+idNumber(data.DigitalID), "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render card pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// idNumber is the printed form of the digital ID, uppercase without dashes.
func idNumber(d digitalid.DigitalID) string {
	return strings.ToUpper(strings.ReplaceAll(d.ID.String(), "-", ""))
}

// coreFont maps the configured family onto a PDF core font. Unknown families
// fall back to Helvetica rather than failing the render.
func coreFont(family string) string {
	switch strings.ToLower(family) {
	case "helvetica", "arial", "":
		return "Helvetica"
	case "times":
		return "Times"
	case "courier":
		return "Courier"
	}
	return "Helvetica"
}

// parseHex parses "#RRGGBB", returning the given defaults on malformed input.
func parseHex(s string, dr, dg, db int) (int, int, int) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return dr, dg, db
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return dr, dg, db
	}
	return int(v >> 16), int(v >> 8 & 0xFF), int(v & 0xFF)
}

// placeImage registers raw image bytes under name and draws them. Unsupported
// bytes are skipped; the card renders without that asset.
func placeImage(pdf *gofpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	imgType := sniffImageType(data)
	if imgType == "" {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		// Undecodable image: clear the error and draw nothing.
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func sniffImageType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "PNG"
	case bytes.HasPrefix(data, []byte("\xFF\xD8")):
		return "JPG"
	}
	return ""
}
