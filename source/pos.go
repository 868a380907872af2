package source

import "fmt"

// Pos is an absolute position in a source file: a byte offset plus the
// 1-based line and column it corresponds to.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Zero is the position at the very start of a source file.
var Zero = Pos{Offset: 0, Line: 1, Column: 1}

// Advance returns the position reached after consuming rune c, expanding
// tabs to the next multiple of tabWidth columns. A tab at column 1 with
// tabWidth 2 advances to column 3; one at column 2 also advances to column
// 3. Newlines reset the column and bump the line; everything else advances
// the column by one rune.
func (p Pos) Advance(c rune, tabWidth int) Pos {
	p.Offset += len(string(c))
	switch c {
	case '\n':
		p.Line++
		p.Column = 1
	case '\t':
		if tabWidth < 1 {
			tabWidth = 1
		}
		p.Column = ((p.Column-1)/tabWidth+1)*tabWidth + 1
	default:
		p.Column++
	}
	return p
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
