package core

import (
	"fmt"
	"sort"
	"strings"

	"sprintify-backend-go/internal/models"
)

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// FindDependencyCycle returns one cycle in graph (task ID -> IDs it depends
// on) as a path whose first and last element are equal, or nil if the graph
// is acyclic. Edges to unknown IDs are ignored. Traversal order is sorted so
// the reported cycle is deterministic.
func FindDependencyCycle(graph map[string][]string) []string {
	state := make(map[string]visitState, len(graph))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range graph[id] {
			if _, known := graph[dep]; !known {
				continue
			}
			switch state[dep] {
			case visiting:
				for i, s := range stack {
					if s == dep {
						return append(append([]string(nil), stack[i:]...), dep)
					}
				}
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = visited
		return nil
	}

	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// validateDependencies checks that deps only name other tasks of the same
// sprint and that giving taskID those deps keeps the graph acyclic. taskID is
// empty for a task that does not exist yet.
func validateDependencies(taskID string, deps []string, siblings []*models.Task) error {
	graph := make(map[string][]string, len(siblings)+1)
	for _, t := range siblings {
		graph[t.ID] = t.Dependencies
	}

	var problems []string
	for _, dep := range deps {
		if dep == taskID && taskID != "" {
			return fmt.Errorf("%w: task '%s' depends on itself", ErrDependencyCycle, taskID)
		}
		if _, ok := graph[dep]; !ok {
			problems = append(problems, fmt.Sprintf("Dependency %q is not a task in this sprint", dep))
		}
	}
	if len(problems) > 0 {
		return invalid(problems...)
	}

	// Nothing can depend on a task that does not exist yet.
	if taskID == "" {
		return nil
	}
	graph[taskID] = deps
	if cycle := FindDependencyCycle(graph); cycle != nil {
		return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> "))
	}
	return nil
}
