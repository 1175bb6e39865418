package fx_test

import (
	"testing"

	fxmodules "pubg-tournament/internal/fx"
	"pubg-tournament/internal/server"

	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	err := fx.ValidateApp(
		fxmodules.Module,
		fx.Invoke(func(*server.TrackerServer) {}),
	)
	if err != nil {
		t.Fatalf("dependency graph is invalid: %v", err)
	}
}
