package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/nnstreamer/ml-service-core/internal/service"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// ExtensionAgent implements AgentModule for the Extension/Hosted-pipeline
// Service handle variants: any configuration whose top level names
// "single" or "pipeline".
type ExtensionAgent struct {
	svc    *service.Service
	logger logging.Interface
}

// NewExtensionAgent constructs an unstarted ExtensionAgent.
func NewExtensionAgent() *ExtensionAgent { return &ExtensionAgent{} }

func (a *ExtensionAgent) Name() string { return "extension" }

func (a *ExtensionAgent) ShortDescription() string {
	return "Run an Extension or Hosted-pipeline service handle"
}

func (a *ExtensionAgent) LongDescription() string {
	return "extension loads a single/pipeline configuration and runs the resulting " +
		"Extension or Hosted-pipeline service handle until terminated."
}

func (a *ExtensionAgent) ConfigureCommand(cmd *cobra.Command) {
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, a, a.Start)
	}
}

func (a *ExtensionAgent) FxModules() []fx.Option {
	return []fx.Option{
		logging.Module,
		fx.Provide(func(v *viper.Viper, l logging.Interface) (*service.Service, error) {
			data, err := configJSON(v)
			if err != nil {
				return nil, err
			}
			deps := buildServiceDeps(context.Background(), l)
			svc, err := service.New(context.Background(), data, deps)
			if err != nil {
				return nil, err
			}
			if svc.Kind() == service.KindOffloading {
				_ = svc.Close(context.Background())
				return nil, mlerrors.New(mlerrors.InvalidParameter, "extension-agent", "configuration selects an offloading handle; use the offloading subcommand")
			}
			return svc, nil
		}),
		fx.Populate(&a.svc, &a.logger),
	}
}

// Start runs the handle until SIGINT/SIGTERM.
func (a *ExtensionAgent) Start() error {
	ctx := context.Background()
	if err := a.svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = a.svc.Close(ctx) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	return a.svc.Stop(ctx)
}
