package deploy

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
)

var ErrDependencyCycle = errors.New("deploy script dependency cycle")

// Script is a tagged deployment step. Dependencies are tags whose scripts
// must have run first.
type Script struct {
	Name         string
	Tags         []string
	Dependencies []string
	Func         func(ctx context.Context, env Environment) error
}

func (s Script) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Runner interface {
	Register(scripts ...Script)
	Run(ctx context.Context, tags ...string) ([]string, error)
}

type runner struct {
	env     Environment
	scripts []Script
}

func NewRunner(env Environment, scripts ...Script) Runner {
	return &runner{env: env, scripts: scripts}
}

func (r *runner) Register(scripts ...Script) {
	r.scripts = append(r.scripts, scripts...)
}

// Run executes, in registration order, every script carrying one of tags and
// the scripts they depend on. Each script runs at most once. With no tags
// every script runs. It returns the names of the scripts executed.
func (r *runner) Run(ctx context.Context, tags ...string) ([]string, error) {
	rs := &runState{ctx: ctx, env: r.env, done: map[string]bool{}, visiting: map[string]bool{}}

	for _, script := range r.scripts {
		if len(tags) != 0 && !hasAnyTag(script, tags) {
			continue
		}
		if err := rs.script(r, script); err != nil {
			return rs.executed, err
		}
	}

	return rs.executed, nil
}

type runState struct {
	ctx      context.Context
	env      Environment
	done     map[string]bool
	visiting map[string]bool
	executed []string
}

func (rs *runState) script(r *runner, script Script) error {
	if rs.done[script.Name] {
		return nil
	}
	if rs.visiting[script.Name] {
		return fmt.Errorf("%w: %s", ErrDependencyCycle, script.Name)
	}
	rs.visiting[script.Name] = true
	defer delete(rs.visiting, script.Name)

	for _, dependency := range script.Dependencies {
		for _, dep := range r.scripts {
			if !dep.HasTag(dependency) || dep.Name == script.Name {
				continue
			}
			if err := rs.script(r, dep); err != nil {
				return err
			}
		}
	}

	if err := rs.ctx.Err(); err != nil {
		return err
	}

	zap.L().With(zap.String("script", script.Name), zap.String("network", rs.env.Network())).Debug("Deploy: Running script")
	if err := script.Func(rs.ctx, rs.env); err != nil {
		return fmt.Errorf("%s: %w", script.Name, err)
	}
	rs.done[script.Name] = true
	rs.executed = append(rs.executed, script.Name)

	return nil
}

func hasAnyTag(script Script, tags []string) bool {
	for _, tag := range tags {
		if script.HasTag(tag) {
			return true
		}
	}
	return false
}
