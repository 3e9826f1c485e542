package docking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/dockview/internal/domain/docking"
)

func TestEnvironmentChecker_Check(t *testing.T) {
	fakeExec(t, "env")
	c := NewEnvironmentChecker(VinaConfig{}, OpenDockConfig{}, 0, nil)

	status := c.Check(context.Background())
	assert.True(t, status.Ready(docking.StatusVina))
	assert.True(t, status.Ready(docking.StatusOpenDockEnv))
}

func TestEnvironmentChecker_MissingEnv(t *testing.T) {
	fakeExec(t, "env")
	c := NewEnvironmentChecker(VinaConfig{}, OpenDockConfig{EnvName: "other"}, 0, nil)

	status := c.Check(context.Background())
	assert.True(t, status[docking.StatusVina])
	assert.False(t, status[docking.StatusOpenDockEnv])
}

func TestEnvironmentChecker_ToolsFail(t *testing.T) {
	fakeExec(t, "fail")
	c := NewEnvironmentChecker(VinaConfig{}, OpenDockConfig{}, 0, nil)

	assert.Equal(t, docking.EnvironmentStatus{
		docking.StatusVina:        false,
		docking.StatusOpenDockEnv: false,
	}, c.Check(context.Background()))
}

func TestEnvironmentChecker_ConcurrentCallers(t *testing.T) {
	fakeExec(t, "env")
	c := NewEnvironmentChecker(VinaConfig{}, OpenDockConfig{}, 0, nil)

	var wg sync.WaitGroup
	results := make([]docking.EnvironmentStatus, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Check(context.Background())
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.Ready(docking.StatusVina))
	}
	results[0][docking.StatusVina] = false
	assert.True(t, results[1][docking.StatusVina], "callers get independent maps")
}

func TestHasCondaEnv(t *testing.T) {
	listing := "# conda environments:\n#\nbase   *  /opt/conda\n/srv/envs/opendock\n"
	assert.True(t, HasCondaEnv(listing, "base"))
	assert.True(t, HasCondaEnv(listing, "opendock"))
	assert.False(t, HasCondaEnv(listing, "vina"))
	assert.False(t, HasCondaEnv("", "base"))
}
