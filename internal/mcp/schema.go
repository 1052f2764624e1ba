package mcp

import (
	"github.com/nvandessel/moideas/internal/batch"
	"github.com/nvandessel/moideas/internal/simulation"
	"github.com/nvandessel/moideas/internal/store"
	"github.com/nvandessel/moideas/internal/sweep"
)

// SimulateInput defines the input for moideas_simulate tool.
type SimulateInput struct {
	Config *simulation.Configuration `json:"config,omitempty" jsonschema:"Simulation parameters; omitted fields are not defaulted so pass a complete configuration or leave it out for the baseline"`
	Runs   int                       `json:"runs,omitempty" jsonschema:"Number of simulations to average (default 300, max 5000)"`
	Seed   *int64                    `json:"seed,omitempty" jsonschema:"Batch seed (default from configuration)"`
}

// SimulateOutput defines the output for moideas_simulate tool.
type SimulateOutput struct {
	BatchID string        `json:"batch_id" jsonschema:"Id of the stored batch"`
	Seed    int64         `json:"seed" jsonschema:"Seed the batch ran with"`
	Summary batch.Summary `json:"summary" jsonschema:"Aggregated outcome over all runs"`
	Message string        `json:"message" jsonschema:"Human-readable result message"`
}

// PresetsInput defines the input for moideas_presets tool.
type PresetsInput struct {
	Name string `json:"name,omitempty" jsonschema:"Only describe this preset"`
}

// PresetInfo describes one built-in sweep.
type PresetInfo struct {
	Name string     `json:"name"`
	Size int        `json:"size" jsonschema:"Number of configurations the sweep expands to"`
	Grid sweep.Grid `json:"grid"`
}

// PresetsOutput defines the output for moideas_presets tool.
type PresetsOutput struct {
	Presets []PresetInfo `json:"presets"`
	Count   int          `json:"count"`
}

// HistoryInput defines the input for moideas_history tool.
type HistoryInput struct {
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of batches to list (default 10)"`
	BatchID string `json:"batch_id,omitempty" jsonschema:"Return the summaries of this batch instead of a listing"`
}

// HistoryOutput defines the output for moideas_history tool.
type HistoryOutput struct {
	Batches []store.Batch `json:"batches"`
	Count   int           `json:"count"`
}
