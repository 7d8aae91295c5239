package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/beanledger/ast"
)

// Options understood by the ledger. Other keys are stored as-is.
const (
	OptionBookingMethod            = "booking_method"
	OptionInferredToleranceDefault = "inferred_tolerance_default"
	OptionToleranceMultiplier      = "tolerance_multiplier"
)

type optionDirective struct {
	d *ast.Option
}

// PreProcess applies the option before any directive is handled. Invalid values
// are left for Validate to report.
func (o *optionDirective) PreProcess(ctx context.Context, l *Ledger) error {
	_ = l.applyOption(o.d.Key, o.d.Value)
	return nil
}

func (o *optionDirective) Validate(ctx context.Context, l *Ledger, span ast.Position) (bool, error) {
	if err := validateOption(o.d.Key, o.d.Value); err != nil {
		return false, l.recordError(ctx, InvalidOptionValue, span, map[string]string{
			"key":   o.d.Key,
			"value": o.d.Value,
		})
	}
	return true, nil
}

func (o *optionDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	if err := l.applyOption(o.d.Key, o.d.Value); err != nil {
		return err
	}
	return l.store.SetOption(ctx, o.d.Key, o.d.Value)
}

func validateOption(key, value string) error {
	switch key {
	case OptionBookingMethod:
		if _, ok := lotInfoForBooking(value); !ok || value == "" {
			return fmt.Errorf("unsupported booking method %q", value)
		}
	case OptionInferredToleranceDefault:
		_, err := parseToleranceDefaults(value)
		return err
	case OptionToleranceMultiplier:
		_, err := parseToleranceMultiplier(value)
		return err
	}
	return nil
}

// applyOption updates the ledger settings controlled by key. The caller holds
// the ledger lock or is the only goroutine using the ledger.
func (l *Ledger) applyOption(key, value string) error {
	if err := validateOption(key, value); err != nil {
		return err
	}
	switch key {
	case OptionBookingMethod:
		l.booking = strings.ToUpper(value)
	case OptionInferredToleranceDefault:
		return l.tolerance.SetDefaults(value)
	case OptionToleranceMultiplier:
		return l.tolerance.SetMultiplier(value)
	}
	return nil
}

type pluginDirective struct {
	alwaysValid
	d *ast.Plugin
}

func (p *pluginDirective) PreProcess(ctx context.Context, l *Ledger) error {
	fn, ok := l.plugins[p.d.Module]
	if !ok {
		return fmt.Errorf("%s: %w", p.d.Module, ErrPluginNotFound)
	}
	return fn(ctx, l.store, p.d.Config)
}

func (p *pluginDirective) Process(ctx context.Context, l *Ledger, span ast.Position) error {
	return l.store.InsertPlugin(ctx, PluginRecord{Module: p.d.Module, Config: p.d.Config})
}

// AutoCommodities declares every commodity listed in config (comma separated)
// that is not declared yet.
func AutoCommodities(ctx context.Context, store Store, config string) error {
	for _, name := range strings.Split(config, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		exists, err := store.ExistsCommodity(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := store.InsertCommodity(ctx, CommodityRecord{Name: name}); err != nil {
			return err
		}
	}
	return nil
}
