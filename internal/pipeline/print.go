package pipeline

import (
	"telcochurn/internal/evaluation"
	"telcochurn/internal/report"
)

// Print writes every section of the run to c in stage order.
func (r *Result) Print(c *report.Console, dropped string) {
	c.Quality(r.RawQuality)
	c.Cleaning(&r.Cleaning, dropped)

	e := r.Exploration
	c.DTypes(e.DTypes)
	c.Describe(e.Describe)
	c.ValueCounts(e.Target, e.TargetCounts)

	c.Encoding(r.Encoding)
	c.Selection(r.Selection)
	c.Split(r.Split, evaluation.PositiveClass)

	for _, run := range r.Models {
		c.Model(run.Name, run.Metrics)
	}

	c.Stages(r.Stages)
}
