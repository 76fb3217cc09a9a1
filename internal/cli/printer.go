package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/nash-io/nashws"
)

// printer writes received messages, one per line. Binary payloads
// are printed hex encoded.
type printer struct {
	w      io.Writer
	binary *color.Color
	close  *color.Color
}

func newPrinter(w io.Writer, useColor bool) *printer {
	p := &printer{
		w:      w,
		binary: color.New(color.FgCyan),
		close:  color.New(color.FgYellow),
	}
	if !useColor {
		p.binary.DisableColor()
		p.close.DisableColor()
	}
	return p
}

func (p *printer) print(m nashws.Message) error {
	var err error
	switch m := m.(type) {
	case nashws.Text:
		_, err = fmt.Fprintln(p.w, string(m))
	case nashws.Binary:
		_, err = p.binary.Fprintf(p.w, "%x\n", []byte(m))
	case nashws.Close:
		if m.Reason == "" {
			_, err = p.close.Fprintln(p.w, "closed")
		} else {
			_, err = p.close.Fprintf(p.w, "closed: %s\n", m.Reason)
		}
	}
	return err
}
