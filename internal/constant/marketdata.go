package constant

import "fmt"

const (
	MarketDataStreamName       = "marketdata"
	MarketDataStreamSubjectAll = "marketdata.>"
)

func GetQuoteStreamSubject(symbol string) string {
	return fmt.Sprintf("marketdata.quote.%s", symbol)
}

func GetTradeStreamSubject(symbol string) string {
	return fmt.Sprintf("marketdata.trade.%s", symbol)
}
