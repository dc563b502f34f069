package assets

import (
	_ "embed"
	"encoding/json"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
)

//go:embed players.json
var playersJSON []byte

// Players decodes the embedded seed catalog. Used to populate an empty
// players table on first start.
func Players() ([]catalog.Player, error) {
	var out []catalog.Player
	if err := json.Unmarshal(playersJSON, &out); err != nil {
		return nil, err
	}
	return out, nil
}
