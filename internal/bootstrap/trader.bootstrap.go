package bootstrap

import (
	"context"
	"net/http"

	"github.com/krobus00/tick-follower/internal/config"
	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/krobus00/tick-follower/internal/handler/status"
	"github.com/krobus00/tick-follower/internal/infrastructure"
	"github.com/krobus00/tick-follower/internal/repository"
	"github.com/krobus00/tick-follower/internal/service/broker"
	"github.com/krobus00/tick-follower/internal/service/strategy/tickfollower"
	"github.com/krobus00/tick-follower/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartTrader(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["trading"])
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, db, config.Env.Database["trading"].PingInterval)

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	stateStore, err := tickfollower.NewRedisPositionStateStore(config.Env.Redis["strategy"].CacheDSN)
	util.ContinueOrFatal(err)

	journalRepo := repository.NewOrderJournalRepository(db)

	alpacaBroker := broker.InitAlpacaBroker(config.Env.Brokers[string(entity.BrokerAlpaca)], js)

	strategyService, err := tickfollower.NewService(
		config.Env.Strategy.TickFollower,
		string(entity.BrokerAlpaca),
		alpacaBroker,
		journalRepo,
		stateStore,
		js,
	)
	util.ContinueOrFatal(err)

	err = strategyService.SyncPositions(ctx)
	util.ContinueOrFatal(err)

	strategyService.Start(ctx)

	subscribers := make([]entity.Subscriber, 0)
	subscribers = append(subscribers, strategyService)
	for _, v := range subscribers {
		err = v.JetstreamEventSubscribe(ctx)
		util.ContinueOrFatal(err)
	}

	statusHandler := status.NewStatusHTTPHandler(strategyService.Symbols(), stateStore)
	mux := http.NewServeMux()
	statusHandler.Register(mux)

	httpServer := infrastructure.NewHTTPServerWithConfig(infrastructure.DefaultHTTPServerConfig(), mux)
	go func() {
		if err := httpServer.Start(); err != nil {
			logrus.Errorf("http server stopped: %v", err)
		}
	}()

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"http server": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
		"database": func(ctx context.Context) error {
			cancel()
			return db.Close()
		},
		"redis cache": func(ctx context.Context) error {
			return stateStore.Close()
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		},
	})

	<-wait
}
