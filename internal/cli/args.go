// args.go - Argument parsing for olympus command lines and chat commands.
//
// The same parser handles process arguments (olympus chat --demo) and
// slash commands typed at the chat prompt (/open 2, /new --title Notes).
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits arguments into flags and positionals.
// It handles multiple flag formats consistently:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//
// Names listed in boolNames never consume the following argument, so
// "--demo chat" parses as a boolean flag and a positional.
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. boolNames lists flags that never take a value.
//
// Example:
//
//	args := NewArgParser([]string{"chat", "--config", "a.toml", "--demo"}, "demo")
//	args.Subcommand()     // "chat"
//	args.Flag("config")   // "a.toml"
//	args.BoolFlag("demo") // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}
	isBool := make(map[string]bool, len(boolNames))
	for _, name := range boolNames {
		isBool[name] = true
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		// A lone "-" and negative numbers are positional.
		if !strings.HasPrefix(arg, "-") || arg == "-" || isNumber(arg) {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		// "--" ends flag parsing.
		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}

		// --flag=value
		if name, value, ok := strings.Cut(arg, "="); ok {
			name = strings.TrimLeft(name, "-")
			if value == "true" || value == "false" {
				parser.boolFlags[name] = value == "true"
			} else {
				parser.flags[name] = value
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if !isBool[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			parser.flags[name] = raw[i+1]
			i += 2
			continue
		}
		parser.boolFlags[name] = true
		i++
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "" when absent.
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or a default if not found.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// BoolFlag returns the value of a boolean flag.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// HasFlag returns true if the flag exists (either as string or bool flag).
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at index, or "".
// Index 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseIntWithValidation parses a positive integer.
func ParseIntWithValidation(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is required", fieldName)
	}

	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", fieldName, s)
	}
	if val <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", fieldName, val)
	}
	return val, nil
}

// JoinPositionalArgs joins positional arguments from startIndex with spaces.
func JoinPositionalArgs(parser *ArgParser, startIndex int) string {
	return strings.Join(parser.PositionalFrom(startIndex), " ")
}
