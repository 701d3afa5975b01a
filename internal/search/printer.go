package search

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/sift/internal/models"
)

// Printer writes matching paths to the output stream.
type Printer struct {
	w          *bufio.Writer
	terminator byte
	colorize   bool

	dirColor  *color.Color
	linkColor *color.Color
	execColor *color.Color
	pipeColor *color.Color
}

// NewPrinter creates a Printer. print0 separates paths with NUL instead of
// newline; colorize highlights file names by type.
func NewPrinter(w io.Writer, print0, colorize bool) *Printer {
	p := &Printer{
		w:          bufio.NewWriter(w),
		terminator: '\n',
		colorize:   colorize,
		dirColor:   color.New(color.FgBlue, color.Bold),
		linkColor:  color.New(color.FgCyan),
		execColor:  color.New(color.FgGreen, color.Bold),
		pipeColor:  color.New(color.FgYellow),
	}
	if print0 {
		p.terminator = 0
	}
	if colorize {
		for _, c := range []*color.Color{p.dirColor, p.linkColor, p.execColor, p.pipeColor} {
			c.EnableColor()
		}
	}
	return p
}

// Print writes one entry.
func (p *Printer) Print(e *models.Entry) error {
	if p.colorize {
		if _, err := p.w.WriteString(p.render(e)); err != nil {
			return err
		}
	} else if _, err := p.w.WriteString(e.Path); err != nil {
		return err
	}
	return p.w.WriteByte(p.terminator)
}

// render colors the final path component according to the entry type.
func (p *Printer) render(e *models.Entry) string {
	var c *color.Color
	switch e.Type() {
	case models.TypeDir:
		c = p.dirColor
	case models.TypeSymlink:
		c = p.linkColor
	case models.TypePipe, models.TypeSocket:
		c = p.pipeColor
	case models.TypeFile:
		if info, err := e.Metadata(); err == nil && info.Mode().Perm()&0o111 != 0 {
			c = p.execColor
		}
	}
	if c == nil {
		return e.Path
	}

	i := strings.LastIndexAny(e.Path, "/"+string(filepath.Separator))
	return e.Path[:i+1] + c.Sprint(e.Path[i+1:])
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	return p.w.Flush()
}
