package bot

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	pingCooldown = 30 * time.Second
	// pingCleanupThreshold is the map size above which idle limiters are pruned.
	pingCleanupThreshold = 500
)

type pingEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// pingLimiter allows one ping answer per user per cooldown.
type pingLimiter struct {
	mu    sync.Mutex
	users map[string]*pingEntry
	every time.Duration
	now   func() time.Time
}

func newPingLimiter(every time.Duration) *pingLimiter {
	return &pingLimiter{
		users: make(map[string]*pingEntry),
		every: every,
		now:   time.Now,
	}
}

func (p *pingLimiter) Allow(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if len(p.users) > pingCleanupThreshold {
		cutoff := now.Add(-2 * p.every)
		for k, e := range p.users {
			if e.lastSeen.Before(cutoff) {
				delete(p.users, k)
			}
		}
	}

	e, ok := p.users[userID]
	if !ok {
		e = &pingEntry{limiter: rate.NewLimiter(rate.Every(p.every), 1)}
		p.users[userID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

type pingAnswer struct {
	en, il string
	weight int
}

var pingAnswers = []pingAnswer{
	{"Oy gevalt", "אוי געוואלד", 30},
	{"Oy vey", "אוי ווי", 20},
	{"Ma laazazel", "מה לעזאזל", 10},
	{"Mazal tov!", "מזל טוב!", 4},
	{"I feel like eating chleb", "אני רעב", 2},
	{"{user} is the winner!", "{user} הוא המנצח!", 1},
}

// pickPingAnswer returns a weighted random answer in language, or the answer
// named by fixed. It returns false for an unknown language.
func pickPingAnswer(r *rand.Rand, language, fixed, mention string) (string, bool) {
	if language != "en" && language != "il" {
		return "", false
	}
	pick := func(a pingAnswer) string {
		s := a.en
		if language == "il" {
			s = a.il
		}
		return strings.ReplaceAll(s, "{user}", mention)
	}

	if fixed != "" && fixed != "random" {
		for _, a := range pingAnswers {
			if a.en == fixed {
				return pick(a), true
			}
		}
		return fixed, true
	}

	total := 0
	for _, a := range pingAnswers {
		total += a.weight
	}
	n := r.IntN(total)
	for _, a := range pingAnswers {
		n -= a.weight
		if n < 0 {
			return pick(a), true
		}
	}
	return pick(pingAnswers[0]), true
}
