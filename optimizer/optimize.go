package optimizer

import (
	"context"
	"sort"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/config"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/physical"
)

// Environment holds what pass factories may need to build passes.
type Environment struct {
	Tables catalog.Resolver
}

// PassFactory builds a pass from its configuration options.
type PassFactory func(options map[string]interface{}, env Environment) (Pass, error)

var passFactories = map[string]PassFactory{
	MergeFilters.Name:         staticPass(MergeFilters),
	RemoveUselessFilters.Name: staticPass(RemoveUselessFilters),
	FuseWindows.Name:          staticPass(FuseWindows),
	"key_lookup":              keyLookupPassFromOptions,
}

func staticPass(pass Pass) PassFactory {
	return func(options map[string]interface{}, env Environment) (Pass, error) {
		return pass, nil
	}
}

func keyLookupPassFromOptions(options map[string]interface{}, env Environment) (Pass, error) {
	if env.Tables == nil {
		return Pass{}, errors.New("key lookup pass requires a table resolver")
	}
	encoding, err := config.GetString(options, "keyEncoding", config.WithDefault("tuple"))
	if err != nil {
		return Pass{}, err
	}

	var constructKeys KeyValueConstructor
	switch encoding {
	case "tuple":
		constructKeys = TupleKeys
	case "concatenated":
		separator, err := config.GetString(options, "separator", config.WithDefault("|"))
		if err != nil {
			return Pass{}, err
		}
		constructKeys = ConcatenatedKeys(separator)
	default:
		return Pass{}, errors.Errorf("unknown key encoding '%s', expected tuple or concatenated", encoding)
	}

	return NewKeyLookupPass(ResolveByID(env.Tables), constructKeys), nil
}

// PassNames lists the names of all configurable passes.
func PassNames() []string {
	out := make([]string, 0, len(passFactories))
	for name := range passFactories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DefaultPasses returns the pass list used when none is configured.
// Key lookups are only introduced when tables are available.
func DefaultPasses(tables catalog.Resolver) []Pass {
	passes := []Pass{MergeFilters}
	if tables != nil {
		passes = append(passes, NewKeyLookupPass(ResolveByID(tables), TupleKeys))
	}
	return append(passes, FuseWindows, RemoveUselessFilters)
}

// Optimizer applies its passes one after another, each over the whole plan.
// The pass list is repeated while it keeps changing the plan, at most MaxRounds times.
type Optimizer struct {
	Passes    []Pass
	MaxRounds int
	// Debug logs a diff of the plan after each pass which changed it.
	Debug bool
	Log   *logrus.Entry
}

func New(cfg config.OptimizerConfig, env Environment, log *logrus.Entry) (*Optimizer, error) {
	var passes []Pass
	if len(cfg.Passes) == 0 {
		passes = DefaultPasses(env.Tables)
	}
	for i, passConfig := range cfg.Passes {
		factory, ok := passFactories[passConfig.Name]
		if !ok {
			return nil, errors.Errorf("unknown pass %d: '%s', available passes: %v", i, passConfig.Name, PassNames())
		}
		pass, err := factory(passConfig.Options, env)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't create pass %d: '%s'", i, passConfig.Name)
		}
		passes = append(passes, pass)
	}

	return &Optimizer{
		Passes:    passes,
		MaxRounds: cfg.MaxRounds,
		Debug:     cfg.Debug,
		Log:       log,
	}, nil
}

func (o *Optimizer) Optimize(ctx context.Context, plan physical.Node, sink diagnostics.Sink) physical.Node {
	span, ctx := opentracing.StartSpanFromContext(ctx, "optimizer.optimize")
	defer span.Finish()

	rounds := max(o.MaxRounds, 1)
	for round := 0; round < rounds; round++ {
		changed := false
		for _, pass := range o.Passes {
			var passChanged bool
			plan, passChanged = o.runPass(ctx, round, pass, plan, sink)
			changed = changed || passChanged
		}
		if !changed {
			break
		}
	}
	return plan
}

func (o *Optimizer) runPass(ctx context.Context, round int, pass Pass, plan physical.Node, sink diagnostics.Sink) (physical.Node, bool) {
	span, _ := opentracing.StartSpanFromContext(ctx, "optimizer.pass")
	span.SetTag("pass", pass.Name)
	defer span.Finish()

	output := Run(plan, []Pass{pass}, sink)
	changed := physical.Fingerprint(plan) != physical.Fingerprint(output)
	span.SetTag("changed", changed)

	log := o.logger().WithFields(logrus.Fields{
		"pass":    pass.Name,
		"round":   round,
		"node":    output.NodeType.String(),
		"changed": changed,
	})
	log.Debug("ran pass")

	if changed && o.Debug {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(physical.Describe(plan)),
			B:        difflib.SplitLines(physical.Describe(output)),
			FromFile: "before",
			ToFile:   "after " + pass.Name,
			Context:  3,
		})
		if err != nil {
			log.WithError(err).Warn("couldn't diff plans")
		} else {
			log.Debug("plan diff:\n" + diff)
		}
	}

	return output, changed
}

func (o *Optimizer) logger() *logrus.Entry {
	if o.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return o.Log
}
