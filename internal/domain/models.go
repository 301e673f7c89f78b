package domain

import (
	"time"
)

// CWLType distinguishes how seriously a clan runs its war league.
type CWLType string

const (
	CWLTypeLazy    CWLType = "Lazy"
	CWLTypeRegular CWLType = "Regular"
)

// League is the ranked tier a clan competes in.
type League string

const (
	LeagueChampion1 League = "Champion 1"
	LeagueChampion2 League = "Champion 2"
	LeagueChampion3 League = "Champion 3"
	LeagueMaster1   League = "Master 1"
	LeagueMaster2   League = "Master 2"
	LeagueMaster3   League = "Master 3"
	LeagueCrystal1  League = "Crystal 1"
)

// Player is an admin-curated roster entry. Tags are stored as entered;
// duplicates and malformed values are tolerated and only flattened by
// NormalizeTag at comparison time.
type Player struct {
	Name            string `json:"name"`
	Tag             string `json:"tag"`
	DiscordUsername string `json:"discordUsername"`
}

type Clan struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Tag     string   `json:"tag"`
	CWLType CWLType  `json:"cwlType"`
	League  League   `json:"league"`
	Players []Player `json:"players"`
}

// AppData is the single logical roster document: a display title plus
// every clan. It is replaced wholesale on admin edits.
type AppData struct {
	Title string `json:"title"`
	Clans []Clan `json:"clans"`
}

// DefaultTitle is returned when no roster document has been persisted yet.
const DefaultTitle = "MERCILESS CWL TRACKER"

// LiveMember is a clan member as the upstream game API currently reports
// it. Never persisted.
type LiveMember struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	ExpLevel          int    `json:"expLevel"`
	Trophies          int    `json:"trophies"`
	TownHallLevel     int    `json:"townHallLevel"`
	Donations         int    `json:"donations"`
	DonationsReceived int    `json:"donationsReceived"`
}

// MemberStatus classifies a roster player against a clan's live member list.
type MemberStatus string

const (
	StatusInClan     MemberStatus = "IN_CLAN"
	StatusNotInClan  MemberStatus = "NOT_IN_CLAN"
	StatusInvalidTag MemberStatus = "INVALID_TAG"
)

// PlayerCheck is the reconciliation result for one roster player.
type PlayerCheck struct {
	Player Player       `json:"player"`
	Status MemberStatus `json:"status"`
}

// ClanCheck is the reconciliation result for one clan.
type ClanCheck struct {
	ClanID    string        `json:"clanId"`
	ClanName  string        `json:"clanName"`
	ClanTag   string        `json:"clanTag"`
	CheckedAt time.Time     `json:"checkedAt"`
	Players   []PlayerCheck `json:"players"`
}

// TrackedPlayer is a push-event leaderboard row. PlayerTag is canonical
// (normalized, no leading '#') and unique across rows.
type TrackedPlayer struct {
	ID              string    `json:"id"`
	PlayerName      string    `json:"player_name"`
	PlayerTag       string    `json:"player_tag"`
	Trophies        int       `json:"trophies"`
	DiscordUsername string    `json:"discord_username"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EODEntry is one player's trophies inside an end-of-day snapshot.
type EODEntry struct {
	PlayerTag string `json:"player_tag"`
	Trophies  int    `json:"trophies"`
}

// EODRecord is an immutable point-in-time snapshot of every tracked
// player. Records are only ever appended, never rewritten.
type EODRecord struct {
	ID         string     `json:"id"`
	RecordedAt time.Time  `json:"recorded_at"`
	Records    []EODEntry `json:"records"`
}

// EODStanding is a leaderboard row derived from the latest EOD record.
// TrophyChange is nil when the player has no entry in the previous
// record, which is distinct from a change of zero.
type EODStanding struct {
	PlayerName      string    `json:"player_name"`
	PlayerTag       string    `json:"player_tag"`
	Trophies        int       `json:"trophies"`
	DiscordUsername string    `json:"discord_username"`
	RecordedAt      time.Time `json:"recorded_at"`
	TrophyChange    *int      `json:"trophy_change,omitempty"`
}

// SearchResult is a roster player matched by tag or discord handle,
// carrying the clan it was found under.
type SearchResult struct {
	PlayerName      string `json:"playerName"`
	PlayerTag       string `json:"playerTag"`
	DiscordUsername string `json:"discordUsername"`
	ClanName        string `json:"clanName"`
	ClanTag         string `json:"clanTag"`
}

// RefreshSummary reports the outcome of one leaderboard refresh run.
type RefreshSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
