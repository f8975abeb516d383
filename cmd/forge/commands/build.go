package commands

import (
	"context"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/common/logger"
	"github.com/forgebuild/forge/configloader/hcl"
	"github.com/forgebuild/forge/engine"
	"github.com/forgebuild/forge/engine/artifact"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/filehashcache"
	"github.com/forgebuild/forge/engine/plugin"
)

var (
	workspaceDir string
	invalidate   bool
)

var buildCmd = &cobra.Command{
	Use:   "build <job>",
	Short: "Build the given target job identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(args[0])
	},
}

func init() {
	buildCmd.Flags().StringVarP(&workspaceDir, "workspace", "w", ".", "Workspace root directory")
	buildCmd.Flags().BoolVar(&invalidate, "invalidate", false, "Ignore the artifact cache and rebuild everything")
}

func runBuild(target string) error {
	registry, err := logger.NewLogRegistry(logger.LogLevelConfig(""))
	if err != nil {
		return err
	}
	logFactory := logger.NewLogrusFactoryStdOut(registry)
	log := logFactory("build")

	absDir, err := filepath.Abs(workspaceDir)
	if err != nil {
		return err
	}

	ws, err := hcl.Load(absDir)
	if err != nil {
		return err
	}

	bus := eventbus.NewBus(clock.New())
	bus.AddSink(eventbus.NewLogrusSink(logFactory("events")))

	dataDir := filepath.Join(absDir, ".forge")
	artifactIndex, err := artifact.OpenIndex(
		filepath.Join(dataDir, "cache", "artifacts.json"),
		filepath.Join(dataDir, "artifacts"),
	)
	if err != nil {
		return err
	}
	fileHashes, err := filehashcache.Open(filepath.Join(dataDir, "cache", "filehashes"))
	if err != nil {
		return err
	}

	eng := engine.New(ws, bus, artifactIndex, fileHashes, plugin.NewExtensionManager(), clock.New(), log)
	return eng.Run(context.Background(), target, invalidate)
}
