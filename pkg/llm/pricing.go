package llm

// modelPrice holds USD prices per million tokens.
type modelPrice struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Published per-million-token prices. Unknown models fall back to
// defaultPrice so cost stays an estimate rather than zero.
var pricing = map[string]modelPrice{
	"claude-3-5-haiku-latest":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"claude-3-5-sonnet-latest": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-sonnet-4-0":        {InputPerMillion: 3.00, OutputPerMillion: 15.00},
}

var defaultPrice = modelPrice{InputPerMillion: 3.00, OutputPerMillion: 15.00}

// EstimateCost is the deterministic cost function over token counts and the
// fixed price table.
func EstimateCost(model string, usage Usage) float64 {
	price, ok := pricing[model]
	if !ok {
		price = defaultPrice
	}

	return float64(usage.InputTokens)/1_000_000*price.InputPerMillion +
		float64(usage.OutputTokens)/1_000_000*price.OutputPerMillion
}
