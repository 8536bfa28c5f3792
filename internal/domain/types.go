package domain

import "time"

type RoomID string
type MessageID string

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// IntentLabel is the small label the intent classifier maps free text to.
type IntentLabel string

const (
	IntentRecommendation IntentLabel = "recommendation" // "what should I play next"
	IntentGameInfo       IntentLabel = "game_info"      // facts about a specific title
	IntentComparison     IntentLabel = "comparison"     // title A vs title B
	IntentHowTo          IntentLabel = "how_to"         // builds, bosses, walkthroughs
	IntentGeneral        IntentLabel = "general"        // safe fallback
	IntentOutOfDomain    IntentLabel = "out_of_domain"
)

// LabelInDomain is the label the text-domain classifier emits for on-topic text.
const LabelInDomain = "games"

type Timestamp = time.Time
