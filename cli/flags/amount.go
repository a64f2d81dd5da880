package flags

import (
	"flag"

	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/urfave/cli"
)

// Amount is a wrapper for a fixedn.Amount with flag.Value methods. The
// amount is parsed with DefaultDecimals (that is, in ether) unless
// Decimals is set.
type Amount struct {
	IsSet    bool
	Decimals int
	Value    fixedn.Amount
}

// AmountFlag is a flag with type fixedn.Amount.
type AmountFlag struct {
	Name     string
	Usage    string
	Value    Amount
	Required bool
}

var (
	_ flag.Value       = (*Amount)(nil)
	_ cli.RequiredFlag = AmountFlag{}
)

// String implements the fmt.Stringer interface.
func (a Amount) String() string {
	if a.Value.Value == nil {
		return ""
	}
	return a.Value.String()
}

// Set implements the flag.Value interface.
func (a *Amount) Set(s string) error {
	decimals := a.Decimals
	if decimals == 0 {
		decimals = fixedn.DefaultDecimals
	}
	v, err := fixedn.AmountFromString(s, decimals)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a.IsSet = true
	a.Value = v
	return nil
}

// String returns a readable representation of this value
// (for usage defaults).
func (f AmountFlag) String() string {
	return flagString(f.Name, f.Usage)
}

// GetName returns the name of the flag.
func (f AmountFlag) GetName() string {
	return f.Name
}

// IsRequired implements the cli.RequiredFlag interface.
func (f AmountFlag) IsRequired() bool {
	return f.Required
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f AmountFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// AmountFromContext returns a parsed amount and whether it was set,
// provided flag name.
func AmountFromContext(ctx *cli.Context, name string) (fixedn.Amount, bool) {
	a, ok := ctx.Generic(name).(*Amount)
	if !ok || !a.IsSet {
		return fixedn.Amount{}, false
	}
	return a.Value, true
}
