package api

import (
	"fmt"
	"strconv"
	"time"
)

// Bot represents a listed Discord bot as returned by the listing service.
type Bot struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Discriminator    string    `json:"discriminator"`
	Prefix           string    `json:"prefix"`
	ShortDescription string    `json:"shortdesc"`
	LongDescription  string    `json:"longdesc,omitempty"`
	Tags             []string  `json:"tags"`
	Website          string    `json:"website,omitempty"`
	Support          string    `json:"support,omitempty"`
	Github           string    `json:"github,omitempty"`
	Owners           []string  `json:"owners"`
	Guilds           []string  `json:"guilds"`
	Invite           string    `json:"invite,omitempty"`
	BannerURL        string    `json:"bannerUrl,omitempty"`
	Date             time.Time `json:"date"`
	IsCertified      bool      `json:"certifiedBot"`
	Shards           []int     `json:"shards,omitempty"`
	Votes            int       `json:"points"`
	MonthlyVotes     int       `json:"monthlyPoints"`
	Avatar           string    `json:"avatar,omitempty"`
	Vanity           string    `json:"vanity,omitempty"`
}

// URL returns the bot's listing page URL, preferring its vanity slug.
func (b *Bot) URL() string {
	slug := b.Vanity
	if slug == "" {
		slug = b.ID
	}
	return "https://top.gg/bot/" + slug
}

// AvatarURL returns the bot's Discord CDN avatar URL, falling back to a
// default embed avatar derived from the discriminator.
func (b *Bot) AvatarURL() string {
	return avatarURL(b.Avatar, b.ID, b.Discriminator)
}

// Socials holds a user's social links.
type Socials struct {
	Github    string `json:"github,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Reddit    string `json:"reddit,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
}

// User represents a user account on the listing service.
type User struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Discriminator  string   `json:"discriminator,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	Banner         string   `json:"banner,omitempty"`
	Socials        *Socials `json:"social,omitempty"`
	IsSupporter    bool     `json:"supporter"`
	IsCertifiedDev bool     `json:"certifiedDev"`
	IsModerator    bool     `json:"mod"`
	IsWebModerator bool     `json:"webMod"`
	IsAdmin        bool     `json:"admin"`
	Avatar         string   `json:"avatar,omitempty"`
}

// CreatedAt derives the account creation time from the user's snowflake ID.
func (u *User) CreatedAt() time.Time {
	return SnowflakeTime(u.ID)
}

// AvatarURL returns the user's Discord CDN avatar URL.
func (u *User) AvatarURL() string {
	return avatarURL(u.Avatar, u.ID, u.Discriminator)
}

// Voter represents a user who has voted for the bound bot.
type Voter struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// CreatedAt derives the account creation time from the voter's snowflake ID.
func (v *Voter) CreatedAt() time.Time {
	return SnowflakeTime(v.ID)
}

// AvatarURL returns the voter's Discord CDN avatar URL.
func (v *Voter) AvatarURL() string {
	return avatarURL(v.Avatar, v.ID, "")
}

// Stats is the statistics snapshot posted to the listing service. At most
// one of ServerCount and Shards is meaningful per post; when both are set,
// the per-shard counts win and ServerCount is recomputed as their sum.
type Stats struct {
	ServerCount *int  `json:"server_count,omitempty"`
	Shards      []int `json:"shards,omitempty"`
	ShardID     *int  `json:"shard_id,omitempty"`
	ShardCount  *int  `json:"shard_count,omitempty"`
}

// StatsFromCount builds a snapshot carrying a plain server count.
func StatsFromCount(serverCount int) Stats {
	if serverCount < 0 {
		serverCount = 0
	}
	return Stats{ServerCount: &serverCount}
}

// StatsFromShards builds a snapshot carrying per-shard server counts.
// shardID identifies the reporting shard; pass a negative value to omit it.
func StatsFromShards(shards []int, shardID int) Stats {
	stats := Stats{Shards: append([]int(nil), shards...)}
	if shardID >= 0 && shardID < len(shards) {
		stats.ShardID = &shardID
	}
	stats.Normalize()
	return stats
}

// Normalize resolves the snapshot into its canonical posted form: negative
// counts clamp to zero, and per-shard data overrides a plain server count.
func (s *Stats) Normalize() {
	if len(s.Shards) > 0 {
		// clamp into a fresh slice so the caller's backing array is
		// never written through
		shards := make([]int, len(s.Shards))
		total := 0
		for i, count := range s.Shards {
			if count < 0 {
				count = 0
			}
			shards[i] = count
			total += count
		}
		shardCount := len(shards)
		s.Shards = shards
		s.ServerCount = &total
		s.ShardCount = &shardCount
	} else if s.ServerCount != nil && *s.ServerCount < 0 {
		zero := 0
		s.ServerCount = &zero
	}
}

// SnowflakeTime extracts the creation time embedded in a Discord snowflake.
// The zero time is returned for unparseable IDs.
func SnowflakeTime(id string) time.Time {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}
	}
	const discordEpochMs = 1420070400000
	return time.UnixMilli(int64(n>>22) + discordEpochMs).UTC()
}

func avatarURL(hash, id, discriminator string) string {
	if hash != "" {
		ext := "png"
		if len(hash) > 2 && hash[:2] == "a_" {
			ext = "gif"
		}
		return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.%s?size=1024", id, hash, ext)
	}

	index := 0
	if d, err := strconv.Atoi(discriminator); err == nil {
		index = d % 5
	}
	return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", index)
}

// Wire envelopes used by Client operations.

type botsResponse struct {
	Results []Bot `json:"results"`
}

type votedResponse struct {
	Voted int `json:"voted"`
}

type weekendResponse struct {
	IsWeekend bool `json:"is_weekend"`
}

type ratelimitResponse struct {
	RetryAfter int `json:"retry-after"`
}
