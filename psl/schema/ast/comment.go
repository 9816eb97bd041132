package ast

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Comment is a single line comment: a doc comment (///) or a plain
// comment (//).
type Comment struct {
	Pos  lexer.Position
	Text string `@(DocComment | Comment)`
}

// IsDoc reports whether the comment is a /// doc comment.
func (c *Comment) IsDoc() bool {
	return c != nil && strings.HasPrefix(c.Text, "///")
}

// Content returns the comment text without the leading "///" or "//".
func (c *Comment) Content() string {
	if c == nil {
		return ""
	}
	text := strings.TrimRight(c.Text, "\r")
	if c.IsDoc() {
		return strings.TrimPrefix(text, "///")
	}
	return strings.TrimPrefix(text, "//")
}

// joinComments joins comment lines with newlines, stripping the markers.
func joinComments(comments []*Comment) string {
	if len(comments) == 0 {
		return ""
	}
	parts := make([]string, len(comments))
	for i, c := range comments {
		parts[i] = c.Content()
	}
	return strings.Join(parts, "\n")
}

// docAttacher assigns doc comments to the node that follows them and
// same-line comments of either kind to the node they trail. Plain comments
// on their own line are dropped.
type docAttacher struct {
	pending  []*Comment
	lastLine int
	trail    func(*Comment)
}

func (d *docAttacher) comment(c *Comment) {
	if d.trail != nil && c.Pos.Line == d.lastLine {
		d.trail(c)
		return
	}
	if !c.IsDoc() {
		return
	}
	d.pending = append(d.pending, c)
}

// take returns the pending doc comments and marks pos as the last node.
func (d *docAttacher) take(pos lexer.Position, trail func(*Comment)) []*Comment {
	docs := d.pending
	d.pending = nil
	d.lastLine = pos.Line
	d.trail = trail
	return docs
}

// reset drops pending comments that are not followed by a documentable node.
func (d *docAttacher) reset() {
	d.pending = nil
	d.trail = nil
}
