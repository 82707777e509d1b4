package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saviobatista/fuelbal/internal/types"
)

// Verb names a pilot command
type Verb string

const (
	CmdStart     Verb = "start"
	CmdTrip      Verb = "trip"
	CmdSwap      Verb = "swap"
	CmdUndo      Verb = "undo"
	CmdShutdown  Verb = "shutdown"
	CmdEngine    Verb = "engine"
	CmdFuel      Verb = "fuel"
	CmdRest      Verb = "rest"
	CmdGPH       Verb = "gph"
	CmdEndTrip   Verb = "endtrip"
	CmdAssemble  Verb = "assemble"
	CmdStatus    Verb = "status"
	CmdLegs      Verb = "legs"
	CmdTrips     Verb = "trips"
	CmdReconcile Verb = "reconcile"
	CmdReport    Verb = "report"
	CmdAircraft  Verb = "aircraft"
	CmdCancel    Verb = "cancel"
	CmdClear     Verb = "clear"
	CmdHelp      Verb = "help"
	CmdQuit      Verb = "quit"
)

var aliases = map[string]Verb{
	"exit": CmdQuit,
	"q":    CmdQuit,
	"?":    CmdHelp,
	"end":  CmdEndTrip,
}

var (
	ErrEmptyCommand      = errors.New("empty command")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrMissingArgument   = errors.New("missing argument")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnterminatedQuote = errors.New("unterminated quote")
)

// Command is one parsed input line
type Command struct {
	Verb Verb
	// Sub is the action of engine (start, stop) and aircraft (list, use, add, rm)
	Sub    string
	Preset types.Preset
	// Levels holds per-tank quantities given as lMain=12 style options
	Levels    types.TankQuantities
	HasLevels bool
	// Value is the totalizer reading of swap and shutdown, or the gph rate
	Value float64
	// Name is a trip name, trip id or tail number depending on the verb
	Name     string
	IDs      []string
	Price    *float64
	Total    *float64
	Misc     *float64
	Location string
	Notes    string
	Post     bool
	FuelType types.FuelType
	Model    string
}

// Tokenize splits a line on whitespace. Double quotes group words and are
// removed, so notes="tie down" yields the token notes=tie down.
func Tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

func parseNumber(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidArgument, name, s)
	}
	return v, nil
}

func numberPtr(name, s string) (*float64, error) {
	v, err := parseNumber(name, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// splitOption returns key and value of a key=value token
func splitOption(tok string) (string, string, bool) {
	i := strings.IndexByte(tok, '=')
	if i <= 0 {
		return "", "", false
	}
	return strings.ToLower(tok[:i]), tok[i+1:], true
}

// options separates positional tokens from key=value tokens and applies
// tank levels. Keys not in allowed are rejected.
func (c *Command) options(tokens []string, allowed ...string) ([]string, map[string]string, error) {
	var positional []string
	opts := make(map[string]string)
	for _, tok := range tokens {
		key, val, ok := splitOption(tok)
		if !ok {
			positional = append(positional, tok)
			continue
		}
		if tank, err := types.ParseTank(key); err == nil {
			v, err := parseNumber(tank.Key(), val)
			if err != nil {
				return nil, nil, err
			}
			if v < 0 {
				return nil, nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidArgument, tank.Key())
			}
			c.Levels.Set(tank, v)
			c.HasLevels = true
			continue
		}
		if !contains(allowed, key) {
			return nil, nil, fmt.Errorf("%w: unknown option %q for %s", ErrInvalidArgument, key, c.Verb)
		}
		opts[key] = val
	}
	return positional, opts, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *Command) reading(args []string, what string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s needs a %s", ErrMissingArgument, c.Verb, what)
	}
	v, err := parseNumber(what, args[0])
	if err != nil {
		return err
	}
	c.Value = v
	return nil
}

func (c *Command) costs(opts map[string]string) error {
	var err error
	if v, ok := opts["price"]; ok {
		if c.Price, err = numberPtr("price", v); err != nil {
			return err
		}
	}
	if v, ok := opts["total"]; ok {
		if c.Total, err = numberPtr("total", v); err != nil {
			return err
		}
	}
	if v, ok := opts["misc"]; ok {
		if c.Misc, err = numberPtr("misc", v); err != nil {
			return err
		}
	}
	c.Location = opts["loc"]
	c.Notes = opts["notes"]
	return nil
}

// Parse reads one command line
func Parse(line string) (*Command, error) {
	tokens, err := Tokenize(strings.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}

	word := strings.ToLower(tokens[0])
	verb, ok := aliases[word]
	if !ok {
		verb = Verb(word)
	}
	c := &Command{Verb: verb}
	rest := tokens[1:]

	switch verb {
	case CmdStart:
		args, _, err := c.options(rest)
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: start needs a preset (topoff, tabs, custom)", ErrMissingArgument)
		}
		if c.Preset, err = types.ParsePreset(args[0]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		if c.Preset == types.PresetCustom && !c.HasLevels {
			return nil, fmt.Errorf("%w: custom start needs tank levels", ErrMissingArgument)
		}

	case CmdTrip:
		c.Name = strings.Join(rest, " ")

	case CmdSwap, CmdShutdown:
		if err := c.reading(rest, "reading"); err != nil {
			return nil, err
		}

	case CmdGPH:
		if err := c.reading(rest, "rate"); err != nil {
			return nil, err
		}

	case CmdEngine:
		if len(rest) == 0 || (rest[0] != "start" && rest[0] != "stop") {
			return nil, fmt.Errorf("%w: engine needs start or stop", ErrMissingArgument)
		}
		c.Sub = rest[0]

	case CmdFuel:
		args, opts, err := c.options(rest, "price", "total", "misc", "loc", "notes")
		if err != nil {
			return nil, err
		}
		if !c.HasLevels {
			return nil, fmt.Errorf("%w: fuel needs the new tank levels", ErrMissingArgument)
		}
		if err := c.costs(opts); err != nil {
			return nil, err
		}
		for _, a := range args {
			if strings.ToLower(a) != "post" {
				return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidArgument, a)
			}
			c.Post = true
		}

	case CmdRest:
		args, opts, err := c.options(rest, "misc", "notes")
		if err != nil {
			return nil, err
		}
		if len(args) > 0 || c.HasLevels {
			return nil, fmt.Errorf("%w: rest takes only misc and notes", ErrInvalidArgument)
		}
		if err := c.costs(opts); err != nil {
			return nil, err
		}

	case CmdAssemble:
		args, opts, err := c.options(rest, "name")
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: assemble needs at least one leg id", ErrMissingArgument)
		}
		c.IDs = args
		c.Name = opts["name"]

	case CmdReconcile, CmdReport:
		if len(rest) > 0 {
			c.Name = rest[0]
		}

	case CmdAircraft:
		if err := c.parseAircraft(rest); err != nil {
			return nil, err
		}

	case CmdUndo, CmdEndTrip, CmdStatus, CmdLegs, CmdTrips, CmdCancel, CmdClear, CmdHelp, CmdQuit:
		if len(rest) > 0 {
			return nil, fmt.Errorf("%w: %s takes no arguments", ErrInvalidArgument, verb)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, tokens[0])
	}

	return c, nil
}

func (c *Command) parseAircraft(rest []string) error {
	if len(rest) == 0 {
		c.Sub = "list"
		return nil
	}
	c.Sub = strings.ToLower(rest[0])
	switch c.Sub {
	case "list":
		return nil
	case "use", "rm":
		if len(rest) < 2 {
			return fmt.Errorf("%w: aircraft %s needs a tail number", ErrMissingArgument, c.Sub)
		}
		c.Name = rest[1]
		return nil
	case "add":
		args, opts, err := c.options(rest[1:], "model", "fuel")
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return fmt.Errorf("%w: aircraft add needs a tail number", ErrMissingArgument)
		}
		if !c.HasLevels {
			return fmt.Errorf("%w: aircraft add needs tank capacities", ErrMissingArgument)
		}
		c.Name = args[0]
		c.Model = opts["model"]
		c.FuelType = types.FuelAvgas
		switch strings.ToLower(strings.ReplaceAll(opts["fuel"], "-", "")) {
		case "", "avgas", "100ll":
		case "jeta", "jet":
			c.FuelType = types.FuelJetA
		default:
			return fmt.Errorf("%w: unknown fuel type %q", ErrInvalidArgument, opts["fuel"])
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown aircraft action %q", ErrInvalidArgument, c.Sub)
	}
}

// Usage is the command summary printed by help
const Usage = `Commands:
  start <topoff|tabs|custom> [lTip=.. lMain=.. rMain=.. rTip=..]
  trip [name]                 open a trip
  swap <reading>              log a tank swap at the totalizer reading
  undo                        undo the last swap
  shutdown <reading>          close the leg at the final reading
  engine <start|stop>
  fuel lTip=.. lMain=.. rMain=.. rTip=.. [price=..] [total=..] [misc=..] [loc=..] [notes=".."] [post]
  rest [misc=..] [notes=".."] resume without fuel
  gph <rate>                  observed fuel flow
  endtrip
  assemble <legID>... [name=".."]
  status | legs | trips
  reconcile [tripID]
  report [tripID]
  aircraft [list | use <tail> | rm <tail> | add <tail> lTip=.. lMain=.. rMain=.. rTip=.. [model=".."] [fuel=jeta]]
  cancel | clear | help | quit`
