// Package summary renders today's activity board as a PNG table, one block
// per technician, for posting to the team chat.
package summary

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"servicedesk/internal/aggregate"
	"servicedesk/internal/complaint"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Table styling constants, rendered at 2x scale for chat clarity
const (
	cellPaddingX  = 20
	cellPaddingY  = 16
	minRowHeight  = 68
	groupHeight   = 64
	headerHeight  = 80
	fontSize      = 24
	headerFontSz  = 24
	titleFontSz   = 38
	titlePadding  = 110
	footerPadding = 80
	minColWidth   = 110
	maxNameWidth  = 360.0
	maxModelWidth = 240.0
)

// Light theme colors
var (
	bgColor         = color.RGBA{R: 245, G: 247, B: 250, A: 255} // Light gray bg
	titleColor      = color.RGBA{R: 30, G: 41, B: 59, A: 255}    // Dark slate
	headerBgColor   = color.RGBA{R: 37, G: 99, B: 235, A: 255}   // Blue
	headerTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255} // White
	groupBgColor    = color.RGBA{R: 15, G: 23, B: 42, A: 255}    // Near black
	rowEvenColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255} // White
	rowOddColor     = color.RGBA{R: 241, G: 245, B: 249, A: 255} // Subtle blue-gray
	textColor       = color.RGBA{R: 30, G: 41, B: 59, A: 255}    // Dark slate
	doneColor       = color.RGBA{R: 16, G: 185, B: 129, A: 255}  // Green
	borderColor     = color.RGBA{R: 203, G: 213, B: 225, A: 255} // Slate border
	footerColor     = color.RGBA{R: 100, G: 116, B: 139, A: 255} // Muted slate
)

// column definition for the table.
type column struct {
	header   string
	field    func(r *complaint.Record) string
	maxWidth float64 // 0 means auto
}

// columns defines the job row layout.
var columns = []column{
	{"Time", func(r *complaint.Record) string { return aggregate.TimeOnly(r.LastActivity()) }, 0},
	{"Complaint No.", func(r *complaint.Record) string { return r.ComplaintNo }, 0},
	{"Customer", func(r *complaint.Record) string { return r.CustomerName }, maxNameWidth},
	{"Phone", func(r *complaint.Record) string { return r.PhoneNo }, 0},
	{"Model", func(r *complaint.Record) string { return r.Model }, maxModelWidth},
	{"Action", func(r *complaint.Record) string { return aggregate.ActionLabel(r.Status) }, 0},
}

// fonts are the embedded Go fonts, parsed once.
var fonts = sync.OnceValues(func() ([2]*truetype.Font, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return [2]*truetype.Font{}, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return [2]*truetype.Font{}, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return [2]*truetype.Font{regular, bold}, nil
})

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// wrapText splits text into multiple lines to fit within maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	if maxWidth <= 0 {
		return []string{text}
	}

	w, _ := dc.MeasureString(text)
	if w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	currentLine := words[0]

	for _, word := range words[1:] {
		testLine := currentLine + " " + word
		tw, _ := dc.MeasureString(testLine)
		if tw > maxWidth {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = testLine
		}
	}
	lines = append(lines, currentLine)
	return lines
}

// rowHeight calculates the height of a job row based on wrapped text.
func rowHeight(dc *gg.Context, r *complaint.Record, colWidths []float64) float64 {
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4

	maxLines := 1
	for i, col := range columns {
		wrapped := wrapText(dc, col.field(r), colWidths[i]-cellPaddingX*2)
		maxLines = max(maxLines, len(wrapped))
	}
	return max(float64(maxLines)*lineSpacing+cellPaddingY*2, minRowHeight)
}

// RenderActivity renders the activity board and returns PNG bytes.
//
// Layout:
//   - Title with the long date label
//   - Column header row
//   - Per technician: a dark band with name and job count, then the jobs
//   - Footer with totals
//
// Returns an error when there is no activity to show.
func RenderActivity(a aggregate.Activity) ([]byte, error) {
	if a.Total == 0 {
		return nil, fmt.Errorf("no activity to render")
	}

	ff, err := fonts()
	if err != nil {
		return nil, err
	}
	regular, bold := ff[0], ff[1]

	// ---- Step 1: Measure column widths ----
	tmpDC := gg.NewContext(1, 1)
	tmpDC.SetFontFace(face(bold, headerFontSz))

	colWidths := make([]float64, len(columns))
	for i, col := range columns {
		w, _ := tmpDC.MeasureString(col.header)
		colWidths[i] = max(w+cellPaddingX*2+4, minColWidth)
	}

	tmpDC.SetFontFace(face(regular, fontSize))
	for _, g := range a.Groups {
		for _, r := range g.Records {
			for i, col := range columns {
				w, _ := tmpDC.MeasureString(col.field(&r))
				colWidths[i] = max(colWidths[i], w+cellPaddingX*2+4)
			}
		}
	}
	for i, col := range columns {
		if col.maxWidth > 0 && colWidths[i] > col.maxWidth {
			colWidths[i] = col.maxWidth
		}
	}

	var totalWidth float64
	for _, w := range colWidths {
		totalWidth += w
	}

	// ---- Step 2: Calculate canvas size ----
	heights := make([][]float64, len(a.Groups))
	bodyHeight := 0.0
	for gi, g := range a.Groups {
		bodyHeight += groupHeight
		heights[gi] = make([]float64, len(g.Records))
		for ri, r := range g.Records {
			h := rowHeight(tmpDC, &r, colWidths)
			heights[gi][ri] = h
			bodyHeight += h
		}
	}

	canvasWidth := totalWidth + 80 // 40px margin each side
	canvasHeight := float64(titlePadding) + float64(headerHeight) + bodyHeight + float64(footerPadding)

	// ---- Step 3: Draw ----
	dc := gg.NewContext(int(canvasWidth), int(canvasHeight))
	dc.SetColor(bgColor)
	dc.Clear()

	dc.SetFontFace(face(bold, titleFontSz))
	dc.SetColor(titleColor)
	title := fmt.Sprintf("Today's Activity  |  %s", a.DateLabel)
	dc.DrawStringAnchored(title, canvasWidth/2, float64(titlePadding)/2+2, 0.5, 0.5)

	tableX := 40.0
	tableY := float64(titlePadding)

	dc.SetColor(headerBgColor)
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, float64(headerHeight), 16)
	dc.Fill()

	dc.SetFontFace(face(bold, headerFontSz))
	dc.SetColor(headerTextColor)
	x := tableX
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+colWidths[i]/2, tableY+float64(headerHeight)/2, 0.5, 0.5)
		x += colWidths[i]
	}

	regularFace := face(regular, fontSize)
	boldFace := face(bold, fontSize)
	dc.SetFontFace(regularFace)
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4
	curY := tableY + float64(headerHeight)

	for gi, g := range a.Groups {
		// Technician band
		dc.SetColor(groupBgColor)
		dc.DrawRectangle(tableX, curY, totalWidth, groupHeight)
		dc.Fill()
		dc.SetFontFace(boldFace)
		dc.SetColor(headerTextColor)
		band := fmt.Sprintf("%s  (%d)", g.Assignee, len(g.Records))
		dc.DrawStringAnchored(band, tableX+cellPaddingX, curY+groupHeight/2, 0, 0.5)
		curY += groupHeight

		dc.SetFontFace(regularFace)
		for ri, r := range g.Records {
			rh := heights[gi][ri]

			if ri%2 == 0 {
				dc.SetColor(rowEvenColor)
			} else {
				dc.SetColor(rowOddColor)
			}
			dc.DrawRectangle(tableX, curY, totalWidth, rh)
			dc.Fill()

			dc.SetColor(borderColor)
			dc.SetLineWidth(0.5)
			dc.DrawLine(tableX, curY+rh, tableX+totalWidth, curY+rh)
			dc.Stroke()

			x := tableX
			for i, col := range columns {
				dc.SetColor(textColor)
				if i == len(columns)-1 && r.Status.Done() {
					dc.SetColor(doneColor)
				}
				wrapped := wrapText(dc, col.field(&r), colWidths[i]-cellPaddingX*2)
				startY := curY + (rh-float64(len(wrapped))*lineSpacing)/2 + lineH
				for li, line := range wrapped {
					dc.DrawString(line, x+cellPaddingX, startY+float64(li)*lineSpacing)
				}
				x += colWidths[i]
			}
			curY += rh
		}
	}

	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, float64(headerHeight)+bodyHeight, 16)
	dc.Stroke()

	dc.SetFontFace(face(regular, 22))
	dc.SetColor(footerColor)
	footer := fmt.Sprintf("Total: %d jobs  |  %d active personnel", a.Total, a.ActivePersonnel)
	dc.DrawStringAnchored(footer, canvasWidth/2, canvasHeight-30, 0.5, 0.5)

	// ---- Step 4: Encode to PNG ----
	return encodeImage(dc.Image())
}

func encodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Caption is the text sent along with the board: one line per technician.
func Caption(a aggregate.Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Today's activity, %s\n", a.DateLabel)
	for _, g := range a.Groups {
		done := 0
		for _, r := range g.Records {
			if r.Status.Done() {
				done++
			}
		}
		fmt.Fprintf(&b, "• %s: %d jobs, %d done\n", g.Assignee, len(g.Records), done)
	}
	fmt.Fprintf(&b, "Total: %d jobs, %d active personnel", a.Total, a.ActivePersonnel)
	return b.String()
}
