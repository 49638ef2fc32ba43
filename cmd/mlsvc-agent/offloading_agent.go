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

// OffloadingAgent implements AgentModule for the Offloading service
// handle variant: any configuration whose top level names
// "offloading".
type OffloadingAgent struct {
	svc    *service.Service
	logger logging.Interface
}

// NewOffloadingAgent constructs an unstarted OffloadingAgent.
func NewOffloadingAgent() *OffloadingAgent { return &OffloadingAgent{} }

func (a *OffloadingAgent) Name() string { return "offloading" }

func (a *OffloadingAgent) ShortDescription() string {
	return "Run an Offloading service handle"
}

func (a *OffloadingAgent) LongDescription() string {
	return "offloading loads an offloading configuration and runs the resulting " +
		"sender or receiver handle until terminated."
}

func (a *OffloadingAgent) ConfigureCommand(cmd *cobra.Command) {
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, a, a.Start)
	}
}

func (a *OffloadingAgent) FxModules() []fx.Option {
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
			if svc.Kind() != service.KindOffloading {
				_ = svc.Close(context.Background())
				return nil, mlerrors.New(mlerrors.InvalidParameter, "offloading-agent", "configuration does not select an offloading handle; use the extension subcommand")
			}
			return svc, nil
		}),
		fx.Populate(&a.svc, &a.logger),
	}
}

// Start runs the handle until SIGINT/SIGTERM.
func (a *OffloadingAgent) Start() error {
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
