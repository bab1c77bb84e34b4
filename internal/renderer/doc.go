// Package renderer provides the compositing session that turns a widget
// tree into terminal output.
//
// A Screen owns:
//   - The widget tree and the compositor that paints it
//   - A front buffer holding what the terminal shows
//   - A back buffer painted fresh every frame
//   - The diff engine that turns buffer differences into output operations
//   - A dirty tracker that carries damage across frames
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│            Screen (session)             │
//	├─────────────────────────────────────────┤
//	│  widget.Tree │ compositor │ dirty       │
//	│  format      │ color      │ width       │
//	├─────────────────────────────────────────┤
//	│     diff.Engine  (front vs back)        │
//	├─────────────────────────────────────────┤
//	│  backend.Writer: term │ tcell │ recorder│
//	└─────────────────────────────────────────┘
//
// Usage:
//
//	caps, _ := backend.LookupCaps("xterm-256color")
//	w, _ := backend.OpenTerminal(os.Stdout, caps)
//	s, _ := renderer.New(w, renderer.DefaultOptions())
//	s.Update(func(t *widget.Tree) error {
//		_, err := t.Add(widget.Root, widget.Node{Position: widget.Fill(), Content: "hi"})
//		return err
//	})
//	s.Render()
package renderer
