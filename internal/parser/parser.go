// Package parser turns the line-oriented service description format into a
// domain.ServiceDescription.
//
// The format is a list of "Name: Value" settings. Blank lines and lines
// starting with '#' are ignored, except the exact line "# Body", after which
// the remaining input is the response body:
//
//	# Request
//	Method: POST
//	Path: /api/students
//
//	# Response
//	ContentType: application/json
//	StatusCode: 200
//
//	# Body
//	{"studentId": "ST-001"}
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/mimic/internal/domain"
	"github.com/MrSnakeDoc/mimic/internal/pipeline"
	"github.com/MrSnakeDoc/mimic/internal/utils"
)

var (
	// ErrMalformedDescription wraps every parsing failure.
	ErrMalformedDescription = errors.New("unable to parse service description")

	// ErrMalformedSetting is returned for lines that are not "Name: Value".
	ErrMalformedSetting = errors.New("malformed setting")

	// ErrEndOfInput is returned by ReadLine when no line is left.
	ErrEndOfInput = errors.New("no more lines to read")
)

// Parser parses service descriptions. It holds no per-parse state and is
// safe for concurrent use.
type Parser struct {
	handler pipeline.Handler[*Context]
}

// New builds a Parser with the standard step order.
func New() *Parser {
	handler, err := pipeline.New[*Context]().
		Use(ReadLine).
		Use(ParseBody).
		Use(IgnoreCommentsAndBlankLines).
		Use(ParseSetting).
		Build()
	if err != nil {
		panic(err)
	}
	return &Parser{handler: handler}
}

// Parse reads a description from rc and closes rc before returning,
// whatever the outcome.
func (p *Parser) Parse(rc io.ReadCloser) (*domain.ServiceDescription, error) {
	defer utils.Close(rc)

	desc := domain.NewServiceDescription()
	ctx := NewContext(rc, desc)

	for {
		done, err := ctx.Exhausted()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDescription, err)
		}
		if done {
			return desc, nil
		}
		if err := p.handler(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDescription, err)
		}
	}
}
