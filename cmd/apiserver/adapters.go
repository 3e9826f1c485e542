package main

import (
	"context"
	"fmt"

	"github.com/turtacn/dockview/internal/bootstrap"
	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/interfaces/http/handlers"
)

// healthCheckers adapts every connected backend to the readiness probe and
// adds the Vina executable as an optional check.
func healthCheckers(comps *bootstrap.Components) []handlers.HealthChecker {
	probes := comps.Probes()
	checks := make([]handlers.HealthChecker, 0, len(probes)+1)
	for _, p := range probes {
		checks = append(checks, handlers.NewCheck(p.Name, p.Check))
	}
	if env := comps.Engines.Environment; env != nil {
		checks = append(checks, handlers.NewOptionalCheck(docking.StatusVina, func(ctx context.Context) error {
			if !env.Check(ctx).Ready(docking.StatusVina) {
				return fmt.Errorf("vina executable is not usable")
			}
			return nil
		}))
	}
	return checks
}
