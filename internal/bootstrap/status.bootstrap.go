package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/krobus00/tick-follower/internal/config"
	"github.com/krobus00/tick-follower/internal/service/strategy/tickfollower"
	"github.com/krobus00/tick-follower/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	stateStore, err := tickfollower.NewRedisPositionStateStore(config.Env.Redis["strategy"].CacheDSN)
	util.ContinueOrFatal(err)
	defer func() {
		if closeErr := stateStore.Close(); closeErr != nil {
			logrus.Warnf("error closing redis connection: %v", closeErr)
		}
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTOTAL\tPENDING BUY\tPENDING SELL\tOPEN ORDERS\tLEVELS\tUPDATED AT")

	for _, symbol := range config.Env.Strategy.TickFollower.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		snapshot, found, err := stateStore.Load(ctx, symbol)
		if err != nil {
			logrus.Errorf("error loading position snapshot for %s: %v", symbol, err)
			continue
		}
		if !found {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\n", symbol)
			continue
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			snapshot.Symbol,
			snapshot.TotalShares,
			snapshot.PendingBuyShares,
			snapshot.PendingSellShares,
			snapshot.PendingOrders,
			snapshot.LevelCount,
			snapshot.UpdatedAt.Format("2006-01-02 15:04:05 MST"),
		)
	}

	err = w.Flush()
	util.ContinueOrFatal(err)
}
