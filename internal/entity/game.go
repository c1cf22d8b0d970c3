package entity

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// GameState is a point-in-time summary of one hosted game.
type GameState struct {
	ID      string     `json:"id"`
	Status  string     `json:"status"`
	Setup   BoardSetup `json:"setup"`
	Joined  int        `json:"joined"`
	Turn    int        `json:"turn"`
	Scores  []int      `json:"scores"`
	Skipped []bool     `json:"skipped"`
}

func (that GameState) IsFinished() bool {
	return that.Status == StatusFinished
}
