package describe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"matchreel/internal/catalog"
	"matchreel/internal/opendota"
)

const (
	// MaxTags caps the tag list handed to the upload sink.
	MaxTags = 35

	maxItemTags       = 10
	maxPromptItems    = 8
	maxVideoItems     = 12
	emptyItemList     = "—"
	anonymousHeroName = "Dota 2"
	isoLayout         = "2006-01-02T15:04:05Z"
)

// Input gathers everything Build needs.
type Input struct {
	Match          *opendota.Match
	PlayerID       int64
	Catalogs       catalog.Catalogs
	RecordingStart time.Time
	// ExtraTags are the operator's default tags, appended after the generated ones.
	ExtraTags []string
}

// Metadata is the generated text for one recording.
type Metadata struct {
	Title           string
	Description     string
	Tags            []string
	ThumbnailPrompt string

	Hero        string
	Result      string
	Patch       string
	Items       []string
	PlayerFound bool
}

// Build renders metadata for in.Match. A player missing from the match still
// yields metadata, with a generic hero and no player sections.
func Build(in Input) Metadata {
	match := in.Match
	if match == nil {
		match = &opendota.Match{}
	}
	player, found := match.Player(in.PlayerID)

	meta := Metadata{Hero: anonymousHeroName, PlayerFound: found}
	if found {
		meta.Hero = in.Catalogs.HeroName(player.HeroID)
		meta.Items = itemNames(player, in.Catalogs)
	}
	if match.Patch != nil {
		if name, ok := in.Catalogs.PatchName(*match.Patch); ok {
			meta.Patch = name
		}
	}
	meta.Result = result(match, player)

	minutes := max(1, match.Duration/60)
	meta.Title = title(meta.Hero, meta.Patch, meta.Result, minutes, match.MatchID)

	var kda string
	if found {
		kda = fmt.Sprintf("%d/%d/%d", player.Kills, player.Deaths, player.Assists)
	}
	meta.ThumbnailPrompt = thumbnailPrompt(promptInput{
		hero:    meta.Hero,
		patch:   meta.Patch,
		result:  meta.Result,
		minutes: minutes,
		score:   scoreText(match),
		kda:     kda,
		items:   strings.Join(limit(meta.Items, maxPromptItems), ", "),
		matchID: match.MatchID,
	})
	meta.Tags = Tags(meta.Hero, meta.Patch, meta.Items, in.ExtraTags)
	meta.Description = description(in, match, player, meta)
	return meta
}

func result(match *opendota.Match, player *opendota.Player) string {
	radiant := player != nil && player.IsRadiant()
	won := match.RadiantWin
	if !radiant {
		won = !won
	}
	if won {
		return "Win"
	}
	return "Loss"
}

func title(hero, patch, result string, minutes int, matchID int64) string {
	parts := []string{hero + " Gameplay"}
	if patch != "" {
		parts = append(parts, "Patch "+patch)
	}
	parts = append(parts, result, strconv.Itoa(minutes)+"min", "Dota 2", "Match "+strconv.FormatInt(matchID, 10))
	return strings.Join(parts, " | ")
}

func description(in Input, match *opendota.Match, player *opendota.Player, meta Metadata) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	winner := "Dire"
	if match.RadiantWin {
		winner = "Radiant"
	}
	line("Match ID: %d", match.MatchID)
	line("Recording start (UTC): %s", in.RecordingStart.UTC().Format(isoLayout))
	line("Match start (UTC): %s", match.Start().Format(isoLayout))
	line("Duration: %s", FormatDuration(match.Duration))
	line("Winner: %s", winner)
	line("Score: %s", scoreText(match))

	if player != nil {
		line("")
		line("Player")
		line("Account ID: %d", in.PlayerID)
		line("Hero: %s", meta.Hero)
		line("K/D/A: %d/%d/%d", player.Kills, player.Deaths, player.Assists)
		line("")
		line("Items")
		line("Main: %s", itemList(player.MainItems(), in.Catalogs))
		line("Backpack: %s", itemList(player.BackpackItems(), in.Catalogs))
		line("Neutral: %s", itemList([]int{player.ItemNeutral}, in.Catalogs))
	}

	url := MatchURL(match.MatchID)
	line("")
	line("Links")
	line("OpenDota match: %s", url)

	line("")
	line("Video")
	line("Hero: %s", meta.Hero)
	if meta.Patch != "" {
		line("Patch: %s", meta.Patch)
	}
	if len(meta.Items) > 0 {
		line("Items: %s", strings.Join(limit(meta.Items, maxVideoItems), ", "))
	}
	line("Match: %s", url)
	line("")
	line("#dota2 #dota #opendota")
	line("")
	line("Thumbnail Prompt")
	line("%s", meta.ThumbnailPrompt)
	return b.String()
}

// MatchURL is the public OpenDota page for a match.
func MatchURL(matchID int64) string {
	return "https://www.opendota.com/matches/" + strconv.FormatInt(matchID, 10)
}

// FormatDuration renders seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func scoreText(match *opendota.Match) string {
	return fmt.Sprintf("Radiant %d - %d Dire", match.RadiantScore, match.DireScore)
}

// itemList resolves non-zero ids in slot order; an empty set renders as a dash.
func itemList(ids []int, cats catalog.Catalogs) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		names = append(names, cats.ItemName(id))
	}
	if len(names) == 0 {
		return emptyItemList
	}
	return strings.Join(names, ", ")
}

// itemNames lists main-slot and neutral items once each, in slot order.
func itemNames(player *opendota.Player, cats catalog.Catalogs) []string {
	ids := append(player.MainItems(), player.ItemNeutral)
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		name := cats.ItemName(id)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func limit(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
