// Package scenario replays scripted user actions against a controller.
//
// A scenario is a TOML file with a list of steps:
//
//	name = "fork and truncate"
//
//	[[step]]
//	action = "select"
//	branch = 0
//	block = 0
//
//	[[step]]
//	action = "append"
//
//	[[step]]
//	action = "fork"
//
// Supported actions are select, deselect, append, fork and reset. A select
// step whose branch or block is out of range is skipped and reported in the
// [Report]; it never aborts the run. The step "repeat" field runs a step
// several times, which keeps long chains short to write.
package scenario

import (
	"bytes"
	"context"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/controller"
	"github.com/matzehuels/forkview/pkg/errors"
)

// Actions.
const (
	ActionSelect   = "select"
	ActionDeselect = "deselect"
	ActionAppend   = "append"
	ActionFork     = "fork"
	ActionReset    = "reset"
)

// Scenario is a named list of steps.
type Scenario struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Steps       []Step `toml:"step"`
}

// Step is one scripted action. Branch and Block are only used by select.
// A negative Block counts from the end of the branch (-1 is the head).
type Step struct {
	Action string `toml:"action"`
	Branch int    `toml:"branch"`
	Block  int    `toml:"block"`
	Repeat int    `toml:"repeat"`
}

// Report summarizes a run.
type Report struct {
	Executed int
	Skipped  []int // indexes of skipped steps
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "scenario %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read scenario %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "parse scenario")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown key %s", undecoded[0])
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step.
func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		switch st.Action {
		case ActionSelect, ActionDeselect, ActionAppend, ActionFork, ActionReset:
		default:
			return errors.New(errors.ErrCodeInvalidScenario, "step %d: unknown action %q", i, st.Action)
		}
		if st.Repeat < 0 {
			return errors.New(errors.ErrCodeInvalidScenario, "step %d: repeat must not be negative", i)
		}
	}
	return nil
}

// Run replays the steps against c. It stops at the first failing action
// and returns the error together with the report so far.
func Run(ctx context.Context, c *controller.Controller, steps []Step, logger *log.Logger) (Report, error) {
	if logger == nil {
		logger = log.Default()
	}
	var rep Report
	for i, st := range steps {
		n := max(st.Repeat, 1)
		for range n {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			ok, err := apply(ctx, c, st)
			if err != nil {
				code := errors.GetCode(err)
				if code == "" {
					code = errors.ErrCodeInternal
				}
				return rep, errors.Wrap(code, err, "step %d (%s)", i, st.Action)
			}
			if !ok {
				logger.Warn("skipped step, no such block", "step", i, "branch", st.Branch, "block", st.Block)
				rep.Skipped = append(rep.Skipped, i)
				break
			}
			rep.Executed++
		}
	}
	return rep, nil
}

func apply(ctx context.Context, c *controller.Controller, st Step) (bool, error) {
	switch st.Action {
	case ActionSelect:
		block := st.Block
		if block < 0 {
			br, ok := c.Snapshot().Branch(st.Branch)
			if !ok {
				return false, nil
			}
			block += br.Len()
		}
		_, ok := c.SelectAt(ctx, st.Branch, block)
		return ok, nil
	case ActionDeselect:
		c.Deselect(ctx)
		return true, nil
	case ActionAppend:
		_, err := c.AddBlock(ctx)
		return true, err
	case ActionFork:
		_, err := c.Fork(ctx)
		return true, err
	case ActionReset:
		return true, c.Reset(ctx)
	}
	return false, errors.New(errors.ErrCodeInvalidScenario, "unknown action %q", st.Action)
}
