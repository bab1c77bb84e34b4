package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/widget"
)

// logLines is the number of lines in the demo log panel.
const logLines = 200

// Scene is the demo widget tree shown by the tessera command.
type Scene struct {
	Header  widget.NodeID
	Log     widget.NodeID
	Side    widget.NodeID
	Overlay widget.NodeID
	Status  widget.NodeID
}

// BuildScene populates tree with the demo layout: a header, a scrollable
// log, a side panel, a hidden overlay and a status line.
func BuildScene(tree *widget.Tree) (*Scene, error) {
	s := &Scene{}
	fullRow := func(top, bottom widget.Dim) widget.Position {
		return widget.Position{Left: widget.Abs(0), Right: widget.Abs(0), Top: top, Bottom: bottom, Height: widget.Abs(1)}
	}

	adds := []struct {
		id   *widget.NodeID
		node widget.Node
	}{
		{&s.Header, widget.Node{
			Name:     "header",
			Position: fullRow(widget.Abs(0), widget.Dim{}),
			Style:    widget.Style{Attr: core.Attr{Fg: 15, Bg: 4, Bold: true}},
			Content:  "{center}tessera {light-cyan-fg}compositor{/light-cyan-fg} demo{/center}",
			Tags:     true,
		}},
		{&s.Log, widget.Node{
			Name:       "log",
			Position:   widget.Position{Left: widget.Abs(0), Top: widget.Abs(1), Width: widget.Pct(60, 0), Bottom: widget.Abs(1)},
			Style:      widget.Style{Attr: core.DefaultAttr},
			Border:     widget.Border{Type: widget.BorderLine, Glyphs: widget.GlyphsRounded, Attr: core.Attr{Fg: 6, Bg: core.ColorDefault}},
			Content:    logContent(logLines),
			Tags:       true,
			Scrollable: true,
		}},
		{&s.Side, widget.Node{
			Name:     "side",
			Position: widget.Position{Left: widget.Pct(60, 0), Top: widget.Abs(1), Right: widget.Abs(0), Bottom: widget.Abs(1)},
			Style:    widget.Style{Attr: core.Attr{Fg: core.ColorDefault, Bg: 236}},
			Border:   widget.Border{Type: widget.BorderLine, Glyphs: widget.GlyphsDouble, Attr: core.Attr{Fg: 3, Bg: 236}},
			Padding:  widget.Padding{Left: 1, Right: 1},
			Content: "{bold}keys{/bold}\n" +
				"j/k, arrows  scroll\n" +
				"o  toggle overlay\n" +
				"^L redraw, q quit\n\n" +
				"{underline}wide{/underline} 中文 テスト\n" +
				"{#ff8700-fg}orange{/} {#5f87ff-bg}blue bg{/}\n" +
				"{inverse}inverse{/inverse} {blink}blink{/blink}",
			Tags: true,
			Wrap: true,
		}},
		{&s.Overlay, widget.Node{
			Name:     "overlay",
			Position: widget.Position{Left: widget.Centered(), Top: widget.Centered(), Width: widget.Abs(32), Height: widget.Abs(5)},
			Style:    widget.Style{Attr: core.Attr{Fg: 15, Bg: 1}, Transparent: true, Shadow: true},
			Border:   widget.Border{Type: widget.BorderLine, Glyphs: widget.GlyphsHeavy, Attr: core.Attr{Fg: 15, Bg: 1}},
			Content:  "{center}transparent overlay{/center}\n{center}with a shadow{/center}",
			Tags:     true,
			Hidden:   true,
		}},
		{&s.Status, widget.Node{
			Name:     "status",
			Position: fullRow(widget.Dim{}, widget.Abs(0)),
			Style:    widget.Style{Attr: core.Attr{Fg: 0, Bg: 7}},
			Tags:     true,
		}},
	}
	for _, a := range adds {
		id, err := tree.Add(widget.Root, a.node)
		if err != nil {
			return nil, fmt.Errorf("build scene: %s: %w", a.node.Name, err)
		}
		*a.id = id
	}
	return s, nil
}

func logContent(n int) string {
	levels := []string{"{green-fg}info{/green-fg}", "{yellow-fg}warn{/yellow-fg}", "{red-fg}fail{/red-fg}"}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%4d %s\tframe event %d", i+1, levels[i%7%3], i*17%101)
	}
	return b.String()
}

// SetStatus writes stats into the status line.
func (s *Scene) SetStatus(tree *widget.Tree, st renderer.Stats, now time.Time) error {
	session := st.Session
	if len(session) > 8 {
		session = session[:8]
	}
	text := fmt.Sprintf(" %s  %s  frames %d  ops %d  scrolls %d  bytes %d",
		now.Format("15:04:05"), session, st.Frames, st.Ops, st.Scrolls, st.Bytes)
	return tree.SetContent(s.Status, text)
}

// ToggleOverlay shows or hides the overlay.
func (s *Scene) ToggleOverlay(tree *widget.Tree) error {
	n := tree.Node(s.Overlay)
	if n == nil {
		return fmt.Errorf("toggle overlay: %w", widget.ErrNoSuchNode)
	}
	return tree.SetHidden(s.Overlay, !n.Hidden)
}
