// clearance/parse.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package clearance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	av "github.com/atctrainer/flightcontrols/aviation"
	"github.com/atctrainer/flightcontrols/math"
)

var (
	ErrUnparseable = errors.New("Unable to parse clearance")
)

// Decimal degrees pair, e.g. "40.0/-75.0", "40.0;-75.0" or "40.0 -75.0".
const coordPattern = `[+-]?\d+(?:\.\d+)?(?:\s*[/;]\s*|\s+)[+-]?\d+(?:\.\d+)?`

const numberPattern = `\d+(?:\.\d+)?`

// grammar is one recognizable instruction. Patterns are matched at the
// start of the remaining text, case-insensitively; submatch 1 is always
// the optional AFTER prefix.
type grammar struct {
	name  string
	re    *regexp.Regexp
	apply func(m []string, c *Clearance) error
}

func mustGrammar(name string, pattern string, apply func(m []string, c *Clearance) error) grammar {
	return grammar{
		name:  name,
		re:    regexp.MustCompile(`(?i)^(AFTER\s+)?` + pattern),
		apply: apply,
	}
}

func parseHeading(s string) (float64, error) {
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || !av.ValidHeading(h) {
		return 0, fmt.Errorf("%s: %w", s, av.ErrInvalidHeading)
	}
	return h, nil
}

// grammars is searched in order and the first match wins, regardless of
// how much text a later grammar would have consumed.
var grammars = []grammar{
	mustGrammar("heading", `(?:FH|HDG|T)\s*(`+numberPattern+`)`,
		func(m []string, c *Clearance) error {
			h, err := parseHeading(m[2])
			if err != nil {
				return err
			}
			c.Instructions = append(c.Instructions, Heading{Degrees: h, After: m[1] != ""})
			return nil
		}),
	mustGrammar("turn left", `TL\s*(`+numberPattern+`)`,
		func(m []string, c *Clearance) error {
			h, err := parseHeading(m[2])
			if err != nil {
				return err
			}
			c.Instructions = append(c.Instructions, TurnLeft{Degrees: h, After: m[1] != ""})
			return nil
		}),
	mustGrammar("turn right", `TR\s*(`+numberPattern+`)`,
		func(m []string, c *Clearance) error {
			h, err := parseHeading(m[2])
			if err != nil {
				return err
			}
			c.Instructions = append(c.Instructions, TurnRight{Degrees: h, After: m[1] != ""})
			return nil
		}),
	mustGrammar("altitude", `(EX\s+)?(?:ALT|A|C|D)\s*(\d+)`,
		func(m []string, c *Clearance) error {
			alt, err := strconv.Atoi(m[3])
			if err != nil || alt > 600 {
				return fmt.Errorf("%s: %w", m[3], av.ErrInvalidAltitude)
			}
			c.Instructions = append(c.Instructions,
				Altitude{Feet: alt * 100, Expedite: m[2] != "", After: m[1] != ""})
			return nil
		}),
	mustGrammar("speed", `SPD\s*(\d+)`,
		func(m []string, c *Clearance) error {
			spd, err := strconv.Atoi(m[2])
			if err != nil || spd > 999 {
				return fmt.Errorf("%s: %w", m[2], av.ErrInvalidSpeed)
			}
			c.Instructions = append(c.Instructions, Speed{Knots: spd, After: m[1] != ""})
			return nil
		}),
	mustGrammar("squawk", `SQK?\s*(\d{4})`,
		func(m []string, c *Clearance) error {
			sq, err := av.ParseSquawk(m[2])
			if err != nil {
				return fmt.Errorf("%s: %w", m[2], err)
			}
			c.Squawk = &sq
			return nil
		}),
	mustGrammar("direct", `DCT\s*(`+coordPattern+`)`,
		func(m []string, c *Clearance) error {
			p, err := math.ParseLatLong(m[2])
			if err != nil {
				return err
			}
			c.Instructions = append(c.Instructions, Direct{Fix: p, FixText: m[2], After: m[1] != ""})
			return nil
		}),
	mustGrammar("hold", `HOLD\s+(LEFT|RIGHT)\s*(`+numberPattern+`)\s+(`+coordPattern+`)`,
		func(m []string, c *Clearance) error {
			dir, err := av.ParseTurnDirection(strings.ToUpper(m[2]))
			if err != nil {
				return err
			}
			crs, err := parseHeading(m[3])
			if err != nil {
				return err
			}
			p, err := math.ParseLatLong(m[4])
			if err != nil {
				return err
			}
			c.Instructions = append(c.Instructions, Holding{
				Hold: av.Hold{
					Fix:           p,
					FixText:       m[4],
					InboundCourse: crs,
					TurnDirection: dir,
				},
				After: m[1] != "",
			})
			return nil
		}),
}

// match returns the first grammar in gs that matches at the start of s,
// along with its submatches.
func match(gs []grammar, s string) (*grammar, []string) {
	for i := range gs {
		if m := gs[i].re.FindStringSubmatch(s); m != nil {
			return &gs[i], m
		}
	}
	return nil, nil
}

func trimSeparators(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Parse splits a clearance such as "FH 090 C 50 SPD 210" into its
// instructions. The message must be entirely made up of recognized
// instructions separated by whitespace or punctuation; otherwise
// ErrUnparseable is returned. A recognized field with an invalid value
// (e.g. "SQK 1289") is left out and reported in FieldErrors.
func Parse(text string) (Clearance, error) {
	return parse(grammars, text)
}

func parse(gs []grammar, text string) (Clearance, error) {
	var c Clearance
	rest := trimSeparators(text)
	if rest == "" {
		return Clearance{}, ErrUnparseable
	}

	for rest != "" {
		g, m := match(gs, rest)
		if g == nil {
			return Clearance{}, fmt.Errorf("%q: %w", rest, ErrUnparseable)
		}
		if err := g.apply(m, &c); err != nil {
			c.FieldErrors = append(c.FieldErrors, fmt.Errorf("%s: %w", g.name, err))
		}
		rest = trimSeparators(rest[len(m[0]):])
	}

	return c, nil
}

///////////////////////////////////////////////////////////////////////////
// ILS

var ilsRe = regexp.MustCompile(`(?i)\bILS\s+([+-]?\d+(?:\.\d+)?)[ /;]([+-]?\d+(?:\.\d+)?);?\s*(\d+(?:\.\d+)?);?\s*(-?\d+);?\s*(\d+(?:\.\d+)?)`)

// ParseILS looks for an ILS clearance, "ILS <lat>/<lon> <course>
// <elevation> <glideslope>", anywhere in text. It returns false if there
// isn't one. An error is returned if there is one but its values are
// invalid.
func ParseILS(text string) (av.ILSApproach, bool, error) {
	m := ilsRe.FindStringSubmatch(text)
	if m == nil {
		return av.ILSApproach{}, false, nil
	}

	p, err := math.ParseLatLong(m[1] + "/" + m[2])
	if err != nil {
		return av.ILSApproach{}, true, err
	}

	var ils av.ILSApproach
	ils.Threshold = p
	ils.Text = m[0]
	if ils.Course, err = strconv.ParseFloat(m[3], 64); err != nil {
		return av.ILSApproach{}, true, fmt.Errorf("%s: %w", m[3], av.ErrInvalidHeading)
	}
	if ils.Elevation, err = strconv.ParseFloat(m[4], 64); err != nil {
		return av.ILSApproach{}, true, fmt.Errorf("%s: %w", m[4], av.ErrInvalidAltitude)
	}
	if ils.GlideslopeAngle, err = strconv.ParseFloat(m[5], 64); err != nil {
		return av.ILSApproach{}, true, fmt.Errorf("%s: %w", m[5], av.ErrInvalidGlideslope)
	}

	if err := ils.Validate(); err != nil {
		return av.ILSApproach{}, true, err
	}
	return ils, true, nil
}
