package bootstrap

import (
	"context"
	"strings"
	"sync"

	"github.com/krobus00/tick-follower/internal/config"
	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/krobus00/tick-follower/internal/infrastructure"
	"github.com/krobus00/tick-follower/internal/service/broker"
	"github.com/krobus00/tick-follower/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartMarketDataGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	broker.InitAlpacaBroker(config.Env.Brokers[string(entity.BrokerAlpaca)], js)

	symbols := make([]string, 0, len(config.Env.Strategy.TickFollower.Symbols))
	for _, symbol := range config.Env.Strategy.TickFollower.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}

	publishers := make([]entity.Publisher, 0)
	for key, v := range broker.GlobalBrokerRegistry {
		if publisher, ok := v.(entity.Publisher); ok {
			publishers = append(publishers, publisher)
			logrus.Info("added publisher for broker: ", key)
		}
	}

	for _, publisher := range publishers {
		err := publisher.JetstreamEventInit(ctx)
		util.ContinueOrFatal(err)
	}

	var subscriptionWG sync.WaitGroup

	for key, v := range broker.GlobalBrokerRegistry {
		subscriptionWG.Add(1)
		go func(key entity.BrokerName, v entity.Broker) {
			defer subscriptionWG.Done()
			logrus.Info("starting market data subscription for broker: ", key)
			err := v.SubscribeMarketData(ctx, symbols)
			if err != nil {
				logrus.Errorf("error subscribing to market data for broker %s: %v", key, err)
			}
		}(key, v)
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"broker-ws connection": func(ctx context.Context) error {
			cancel()
			subscriptionWG.Wait()
			return nil
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		},
	})

	<-wait
}
