package query

import (
	"strconv"
	"strings"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

// Dimensions is a parsed dimension expression. Only the grammar produced by
// Selection (plus bare definition references) is understood.
type Dimensions struct {
	FileName      string
	Definition    string
	AllFiles      bool
	ExcludeKey    string
	ExcludeValues []int
	Availability  string
	Limit         int
}

// ParseDimensions parses expressions of the form
//
//	<file_name X | defname: D | file_id > 0> [minus <key> v1,v2] [with availability A] [with limit N]
func ParseDimensions(expr string) (*Dimensions, error) {
	norm := strings.ReplaceAll(expr, "defname :", "defname:")
	norm = strings.ReplaceAll(norm, "defname:", "defname: ")
	tokens := strings.Fields(norm)
	if len(tokens) == 0 {
		return nil, errors.NewValidationError("empty dimension expression")
	}

	d := &Dimensions{}
	p := &parser{tokens: tokens, expr: expr}

	switch strings.ToLower(p.next()) {
	case "file_name":
		d.FileName = p.next()
		if d.FileName == "" {
			return nil, p.fail("file_name needs a value")
		}
	case "defname:":
		d.Definition = p.next()
		if d.Definition == "" {
			return nil, p.fail("defname: needs a value")
		}
	case "file_id":
		if p.next() != ">" || p.next() != "0" {
			return nil, p.fail("only file_id > 0 is supported")
		}
		d.AllFiles = true
	default:
		return nil, p.fail("unsupported selector")
	}

	for p.more() {
		switch strings.ToLower(p.next()) {
		case "minus":
			d.ExcludeKey = p.next()
			values := p.next()
			if d.ExcludeKey == "" || values == "" {
				return nil, p.fail("minus needs a key and values")
			}
			for _, v := range strings.Split(values, ",") {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, p.fail("minus values must be integers")
				}
				d.ExcludeValues = append(d.ExcludeValues, n)
			}
		case "with":
			switch strings.ToLower(p.next()) {
			case "availability":
				d.Availability = p.next()
			case "limit":
				n, err := strconv.Atoi(p.next())
				if err != nil || n < 0 {
					return nil, p.fail("limit must be a non-negative integer")
				}
				d.Limit = n
			default:
				return nil, p.fail("unsupported with clause")
			}
		default:
			return nil, p.fail("unexpected token")
		}
	}
	return d, nil
}

// Excludes reports whether flag is one of the excluded values.
func (d *Dimensions) Excludes(flag int) bool {
	for _, v := range d.ExcludeValues {
		if v == flag {
			return true
		}
	}
	return false
}

// PhysicalOnly reports whether only files with a physical location match.
func (d *Dimensions) PhysicalOnly() bool {
	return strings.HasPrefix(d.Availability, "physical")
}

type parser struct {
	tokens []string
	pos    int
	expr   string
}

func (p *parser) more() bool {
	return p.pos < len(p.tokens)
}

func (p *parser) next() string {
	if !p.more() {
		return ""
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

func (p *parser) fail(msg string) error {
	return errors.NewValidationError("invalid dimensions: "+msg, p.expr)
}
