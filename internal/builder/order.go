package builder

import (
	"fmt"
	"slices"
	"strings"
)

// ResolveOrder returns a build order of roots and all their transitive
// dependencies: a depth-first postorder where every module comes after the
// modules it depends on. Dependencies are visited in declaration order.
func ResolveOrder(modules map[string]*Module, roots []string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var order []string
	var stack []string

	var visit func(name, from string) error
	visit = func(name, from string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := slices.Index(stack, name)
			cycle := append(slices.Clone(stack[start:]), name)
			return fmt.Errorf("%w: dependency cycle detected: %s", ErrGraph, strings.Join(cycle, " -> "))
		}

		mod, ok := modules[name]
		if !ok {
			if from == "" {
				return fmt.Errorf("%w: unknown module %q", ErrGraph, name)
			}
			return fmt.Errorf("%w: module %q lists a non-existent dependency: %q", ErrGraph, from, name)
		}

		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range mod.Depends {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	sortedRoots := slices.Clone(roots)
	slices.Sort(sortedRoots)
	for _, root := range sortedRoots {
		if err := visit(root, ""); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ValidateOrder asserts that order is a topological order of the modules it
// names: each module appears once and after all of its dependencies
func ValidateOrder(order []string, modules map[string]*Module) error {
	position := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := modules[name]; !ok {
			return fmt.Errorf("%w: build order names unknown module %q", ErrGraph, name)
		}
		if _, dup := position[name]; dup {
			return fmt.Errorf("%w: module %q appears twice in the build order", ErrGraph, name)
		}
		position[name] = i
	}
	for i, name := range order {
		for _, dep := range modules[name].Depends {
			pos, ok := position[dep]
			if !ok {
				return fmt.Errorf("%w: module %q depends on %q, which is not in the build order", ErrGraph, name, dep)
			}
			if pos > i {
				return fmt.Errorf("%w: module %q is ordered before its dependency %q", ErrGraph, name, dep)
			}
		}
	}
	return nil
}
