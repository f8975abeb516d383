package commands

import (
	"net/http"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/common/logger"
	"github.com/forgebuild/forge/configloader/hcl"
	"github.com/forgebuild/forge/engine"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/httpapi"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the read-only graph/events diagnostics API for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&workspaceDir, "workspace", "w", ".", "Workspace root directory")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
}

func runServe() error {
	registry, err := logger.NewLogRegistry(logger.LogLevelConfig(""))
	if err != nil {
		return err
	}
	log := logger.NewLogrusFactoryStdOut(registry)("serve")

	absDir, err := filepath.Abs(workspaceDir)
	if err != nil {
		return err
	}

	ws, err := hcl.Load(absDir)
	if err != nil {
		return err
	}

	bus := eventbus.NewBus(clock.New())
	eng := engine.New(ws, bus, nil, nil, nil, clock.New(), log)
	if err := eng.BuildGraph(); err != nil {
		return err
	}

	log.Infof("serving diagnostics API on :%s", servePort)
	return http.ListenAndServe(":"+servePort, httpapi.New(eng.Graph, bus))
}
