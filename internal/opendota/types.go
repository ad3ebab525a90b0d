package opendota

import "time"

// RadiantSlotLimit separates Radiant player slots (below) from Dire slots.
const RadiantSlotLimit = 128

// MatchSummary is one row of a player's match history.
type MatchSummary struct {
	MatchID   int64 `json:"match_id"`
	StartTime int64 `json:"start_time"`
	Duration  int   `json:"duration"`
}

// Start returns the match start instant in UTC.
func (m MatchSummary) Start() time.Time {
	return time.Unix(m.StartTime, 0).UTC()
}

// End returns Start plus the match duration.
func (m MatchSummary) End() time.Time {
	return m.Start().Add(time.Duration(m.Duration) * time.Second)
}

// Match is the full match record returned by /matches/{id}.
type Match struct {
	MatchID      int64    `json:"match_id"`
	StartTime    int64    `json:"start_time"`
	Duration     int      `json:"duration"`
	RadiantWin   bool     `json:"radiant_win"`
	RadiantScore int      `json:"radiant_score"`
	DireScore    int      `json:"dire_score"`
	Patch        *int     `json:"patch"`
	GameMode     int      `json:"game_mode"`
	LobbyType    int      `json:"lobby_type"`
	Players      []Player `json:"players"`
}

// Start returns the match start instant in UTC.
func (m *Match) Start() time.Time {
	return time.Unix(m.StartTime, 0).UTC()
}

// Player returns the participant with the given account id.
func (m *Match) Player(accountID int64) (*Player, bool) {
	if m == nil || accountID == 0 {
		return nil, false
	}
	for i := range m.Players {
		if m.Players[i].AccountID == accountID {
			return &m.Players[i], true
		}
	}
	return nil, false
}

// Player is one participant's line in a match record. Anonymous players carry
// a zero AccountID.
type Player struct {
	AccountID   int64 `json:"account_id"`
	PlayerSlot  int   `json:"player_slot"`
	HeroID      int   `json:"hero_id"`
	Kills       int   `json:"kills"`
	Deaths      int   `json:"deaths"`
	Assists     int   `json:"assists"`
	Item0       int   `json:"item_0"`
	Item1       int   `json:"item_1"`
	Item2       int   `json:"item_2"`
	Item3       int   `json:"item_3"`
	Item4       int   `json:"item_4"`
	Item5       int   `json:"item_5"`
	Backpack0   int   `json:"backpack_0"`
	Backpack1   int   `json:"backpack_1"`
	Backpack2   int   `json:"backpack_2"`
	ItemNeutral int   `json:"item_neutral"`
}

// IsRadiant reports whether the player sat on the Radiant side.
func (p *Player) IsRadiant() bool {
	return p.PlayerSlot < RadiantSlotLimit
}

// MainItems returns inventory slots 0-5 in order, zeros included.
func (p *Player) MainItems() []int {
	return []int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5}
}

// BackpackItems returns backpack slots 0-2 in order, zeros included.
func (p *Player) BackpackItems() []int {
	return []int{p.Backpack0, p.Backpack1, p.Backpack2}
}

// HeroConstant is an entry of /constants/heroes.
type HeroConstant struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name"`
}

// ItemConstant is an entry of /constants/items.
type ItemConstant struct {
	ID    int    `json:"id"`
	DName string `json:"dname"`
}

// PatchConstant is an entry of /constants/patch.
type PatchConstant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}
