// Package constants provides named constants used throughout the moideas codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Population and horizon defaults, taken from the marketplace experiments.
const (
	// DefaultAgentsN is the number of ordinary agents in a population.
	DefaultAgentsN = 30

	// DefaultPStartBelief is the chance an agent starts with some belief.
	DefaultPStartBelief = 0.3

	// DefaultRoundsOfPlay is the number of rounds per simulation.
	DefaultRoundsOfPlay = 20
)

// Epistemic defaults
const (
	// DefaultMRB is the minimum evidence before a belief forms (time to belief).
	DefaultMRB = 3

	// DefaultTW is the truth-wins bonus to adoption of true signals.
	DefaultTW = 0.1

	// DefaultAtrophyP is the per-round chance an uncontested belief is forgotten.
	DefaultAtrophyP = 0.2

	// DefaultMinBAR is the lower bound of the base adoption rate (trust in testimony).
	DefaultMinBAR = 0.1

	// DefaultMaxBAR is the upper bound of the base adoption rate.
	DefaultMaxBAR = 0.9

	// DefaultOutputP is the per-round chance an agent broadcasts its belief.
	DefaultOutputP = 0.8

	// DefaultDisinfoBroadcastCapability is the fan-out of a disinformation broadcast.
	DefaultDisinfoBroadcastCapability = 1
)

// Batch defaults
const (
	// DefaultSimCount is the number of simulations run per configuration.
	DefaultSimCount = 300

	// DefaultSeed seeds a batch when none is configured.
	DefaultSeed int64 = 45

	// ProportionPrecision is the number of decimal places kept when
	// reporting proportions of true beliefs.
	ProportionPrecision = 4
)

// Paths
const (
	// DataDirName is the directory under the user's home holding config,
	// the results database and traces.
	DataDirName = ".moideas"

	// ConfigFileName is the YAML config file inside DataDirName.
	ConfigFileName = "config.yaml"

	// DatabaseFileName is the SQLite results database inside DataDirName.
	DatabaseFileName = "moideas.db"

	// DefaultResultsCSV is the default CSV output path for batch runs.
	DefaultResultsCSV = "results/moideas.csv"
)
