package queue

const (
	TypePrewarm = "tts:prewarm"
)

// PrewarmPayload asks a worker to synthesize one (text, speed) pair into the
// cache ahead of the first listener.
type PrewarmPayload struct {
	Text  string `json:"text"`
	Speed string `json:"speed"`
}
