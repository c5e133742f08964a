package classifier

// Prediction is the outcome of a single classification.
type Prediction struct {
	// Cluster is the winning label.
	Cluster string

	// Certainty is Votes/K, in [1/K, 1].
	Certainty float64

	// Votes is how many of the K neighbors carry Cluster.
	Votes int
	K     int

	// Response is the catalog text for Cluster.
	Response string

	// Annotated is false when Response is the catalog fallback.
	Annotated bool

	// Neighbors are the K nearest reference points, closest first.
	Neighbors []Neighbor

	// Tallies are the vote counts in order of first appearance.
	Tallies []Tally

	// BuildID identifies the reference snapshot consulted.
	BuildID string
}

// Neighbor is a reference point that voted in a prediction.
type Neighbor struct {
	Position int
	Distance float64
	Label    string
}

// Tally is the vote count for one label.
type Tally struct {
	Label     string
	Count     int
	FirstRank int
}
