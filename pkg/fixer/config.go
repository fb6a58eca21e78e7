// Package fixer implements the automated remediation core: the bounded
// analyze/plan/execute/verify loop that diagnoses and patches a failing
// hosted workflow.
package fixer

// Default budgets. MaxIterations bounds the whole session; the character
// budget bounds planner prompt cost for nodes with large parameter trees.
const (
	DefaultMaxIterations = 5

	analyzeMaxTokens = 300
	planMaxTokens    = 1500
	paramCharBudget  = 4000
)

// Config tunes one orchestrator instance.
type Config struct {
	MaxIterations int
	AnalyzeModel  string
	PlanModel     string
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}

	return c
}
