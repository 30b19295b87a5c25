package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/mimic/internal/domain"
)

// BodyMarker is the line that ends setting parsing. Everything after it is
// taken verbatim as the response body.
const BodyMarker = "# Body"

// Context is the state shared by the parsing steps for one description.
type Context struct {
	reader *bufio.Reader
	line   int

	// Desc is the description being built.
	Desc *domain.ServiceDescription

	// Input is the current, trimmed line.
	Input string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewContext prepares a parsing context reading from r into desc. A leading
// UTF-8 byte order mark is skipped.
func NewContext(r io.Reader, desc *domain.ServiceDescription) *Context {
	if r == nil || desc == nil {
		panic("parser: nil reader or description")
	}
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &Context{
		reader: br,
		Desc:   desc,
	}
}

// Exhausted reports whether the input has no more bytes to read.
func (c *Context) Exhausted() (bool, error) {
	_, err := c.reader.Peek(1)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, io.EOF):
		return true, nil
	default:
		return true, fmt.Errorf("read input: %w", err)
	}
}

// ReadLine reads the next line into Input, trimmed of surrounding whitespace.
func ReadLine(c *Context, next func() error) error {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("read line: %w", err)
		}
		if line == "" {
			return ErrEndOfInput
		}
	}

	c.line++
	c.Input = strings.TrimSpace(line)
	return next()
}

// ParseBody consumes the rest of the input as the body when the current line
// is the body marker. The body is kept byte for byte.
func ParseBody(c *Context, next func() error) error {
	if c.Input != BodyMarker {
		return next()
	}

	body, err := io.ReadAll(c.reader)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	c.Desc.Body = string(body)
	return nil
}

// IgnoreCommentsAndBlankLines stops the pass for blank lines and comments.
func IgnoreCommentsAndBlankLines(c *Context, next func() error) error {
	if strings.TrimSpace(c.Input) == "" || strings.HasPrefix(c.Input, "#") {
		return nil
	}
	return next()
}

// ParseSetting applies a "Name: Value" line to the description. Only the
// first colon separates name from value. It is the last step and never
// calls next.
func ParseSetting(c *Context, _ func() error) error {
	parts := strings.SplitN(c.Input, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("line %d: %w: settings must have a name and value. For example: MyFavoriteColor: Red", c.line, ErrMalformedSetting)
	}

	name := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if name == "" {
		return fmt.Errorf("line %d: %w: setting name must be provided", c.line, ErrMalformedSetting)
	}
	if value == "" {
		return fmt.Errorf("line %d: %w: setting value must be provided for %s", c.line, ErrMalformedSetting, name)
	}

	if err := c.Desc.Set(name, value); err != nil {
		return fmt.Errorf("line %d: %w", c.line, err)
	}
	return nil
}
