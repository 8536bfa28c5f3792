// Package gate decides whether a user message may reach the remote answer
// service. The policy is ordered and short-circuiting: heuristics first
// (cheap, deterministic), classifier last, fail-closed on ambiguity.
package gate

import (
	"context"
	"strings"

	"github.com/playdex/playdex-chat/internal/domain"
	"github.com/playdex/playdex-chat/internal/observability"
)

type Reason string

const (
	ReasonPromptInjection Reason = "prompt_injection"
	ReasonSecretRequest   Reason = "secret_request"
	ReasonProfanity       Reason = "profanity"
	ReasonNonDomain       Reason = "non_domain"
)

type Decision struct {
	Allowed     bool
	Reason      Reason // set when blocked
	CannedReply string // set when blocked
}

// DefaultThreshold is the minimum classifier confidence the gate trusts.
const DefaultThreshold = 0.70

// Deny-list heuristics, in fixed priority order.
var defaultInjectionPhrases = []string{
	"ignore previous instructions",
	"ignore all previous instructions",
	"disregard your instructions",
	"system prompt",
	"you are now",
	"pretend you are",
	"jailbreak",
}

var defaultSecretPhrases = []string{
	"api key",
	"api_key",
	"password",
	"passwords",
	"credentials",
	"secret key",
	"access token",
	"private key",
}

var defaultProfanity = []string{
	"fuck",
	"shit",
	"asshole",
	"bitch",
	"cunt",
}

// Strong domain keywords that let a message skip the classifier.
var defaultAllowTokens = []string{
	"game",
	"games",
	"gameplay",
	"build",
	"boss",
	"quest",
	"level",
	"loadout",
	"walkthrough",
	"achievement",
	"speedrun",
	"dlc",
	"platform",
	"console",
	"controller",
	"multiplayer",
	"rpg",
	"fps",
}

var cannedReplies = map[Reason]string{
	ReasonPromptInjection: "Nice try! I can only help with questions about games in the catalog.",
	ReasonSecretRequest:   "I can't help with accounts, keys, or credentials. Ask me about games instead!",
	ReasonProfanity:       "Let's keep it friendly. Happy to help with any game question.",
	ReasonNonDomain:       "I'm the catalog's game assistant, so that's outside my wheelhouse. Ask me about a game!",
}

type Gate struct {
	classifier domain.Classifier // nil = absent, fail closed
	threshold  float64

	injectionPhrases []string
	secretPhrases    []string
	profanity        []string
	allowTokens      []string
}

type Option func(*Gate)

func WithThreshold(t float64) Option {
	return func(g *Gate) { g.threshold = t }
}

func WithAllowTokens(tokens []string) Option {
	return func(g *Gate) { g.allowTokens = tokens }
}

func WithDenyLists(injection, secrets, profanity []string) Option {
	return func(g *Gate) {
		g.injectionPhrases = injection
		g.secretPhrases = secrets
		g.profanity = profanity
	}
}

// New builds a gate. classifier may be nil; every non-heuristic path then
// blocks as non-domain.
func New(classifier domain.Classifier, opts ...Option) *Gate {
	g := &Gate{
		classifier:       classifier,
		threshold:        DefaultThreshold,
		injectionPhrases: defaultInjectionPhrases,
		secretPhrases:    defaultSecretPhrases,
		profanity:        defaultProfanity,
		allowTokens:      defaultAllowTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate runs the ordered policy. No state is mutated; the only side
// effect is one structured log line per call.
func (g *Gate) Evaluate(ctx context.Context, text string) Decision {
	d := g.evaluate(ctx, text)

	log := observability.LoggerFromContext(ctx)
	if d.Allowed {
		log.Info("gate decision", "allowed", true)
	} else {
		log.Info("gate decision", "allowed", false, "reason", string(d.Reason))
	}
	return d
}

func (g *Gate) evaluate(ctx context.Context, text string) Decision {
	lower := strings.ToLower(strings.TrimSpace(text))

	if lower == "" {
		return block(ReasonNonDomain)
	}

	if containsAny(lower, g.injectionPhrases) {
		return block(ReasonPromptInjection)
	}
	if containsAny(lower, g.secretPhrases) {
		return block(ReasonSecretRequest)
	}
	if containsAny(lower, g.profanity) {
		return block(ReasonProfanity)
	}

	if containsAny(lower, g.allowTokens) {
		return Decision{Allowed: true}
	}

	if g.classifier == nil {
		return block(ReasonNonDomain)
	}

	pred, err := g.classifier.Predict(ctx, text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("gate classifier failed, blocking", "error", err)
		return block(ReasonNonDomain)
	}

	if pred.Confidence >= g.threshold {
		if pred.Label == domain.LabelInDomain {
			return Decision{Allowed: true}
		}
		return block(ReasonNonDomain)
	}

	// Ambiguous or low confidence: safety by default.
	return block(ReasonNonDomain)
}

func block(r Reason) Decision {
	return Decision{Allowed: false, Reason: r, CannedReply: cannedReplies[r]}
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
