package model

// QueryInput represents one inbound user utterance.
type QueryInput struct {
	SessionKey string `json:"session_key"`
	Query      string `json:"query"`
}

// TurnResult is what the transport layer receives for one completed turn.
// ArtifactID keys the speech artifact that is synthesized in the background;
// the audio may not exist yet when the result is returned.
type TurnResult struct {
	Answer     string `json:"answer"`
	ArtifactID string `json:"artifact_id"`
	Mood       Mood   `json:"mood"`
}
