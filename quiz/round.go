package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/goutil/errorsx"
)

const (
	PointsPerCorrectAnswer = 100
	TimeLimit              = 30 * time.Second
)

var (
	ErrRoundNotFound    = errors.New("round not found")
	ErrRoundFinished    = errors.New("round already answered")
	ErrNoCountriesToAsk = errors.New("no named countries in the dataset")
)

type GuessOutcome string

const (
	GuessOutcomeCorrect GuessOutcome = "correct"
	GuessOutcomeWrong   GuessOutcome = "wrong"
	GuessOutcomeTooLate GuessOutcome = "too_late"
)

// Round asks the player to find one country
type Round struct {
	ID         string    `json:"id"`
	TargetName string    `json:"targetName"`
	StartedAt  time.Time `json:"startedAt"`
	Deadline   time.Time `json:"deadline"`
	finished   bool
}

type GuessResult struct {
	RoundID       string       `json:"roundId"`
	Outcome       GuessOutcome `json:"outcome"`
	Click         *ClickResult `json:"click,omitempty"`
	TargetName    string       `json:"targetName"`
	PointsAwarded int          `json:"pointsAwarded"`
	TotalScore    int          `json:"totalScore"`
}

// Game hands out rounds and keeps the running score. One guess is allowed per round.
type Game struct {
	session *Session
	rand    *rand.Rand
	nowFunc func() time.Time

	mu     *sync.Mutex
	rounds map[string]*Round
	score  int
}

func NewGame(session *Session, rnd *rand.Rand) *Game {
	return &Game{
		session: session,
		rand:    rnd,
		nowFunc: time.Now,
		mu:      new(sync.Mutex),
		rounds:  make(map[string]*Round),
	}
}

// NewRound picks a random named country as the target
func (g *Game) NewRound(ctx context.Context) (*Round, errorsx.Error) {
	features, err := g.session.Features(ctx)
	if err != nil {
		return nil, err
	}

	names := countryNames(features)
	if len(names) == 0 {
		return nil, errorsx.Wrap(ErrNoCountriesToAsk)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	g.pruneExpiredRounds(now)

	round := &Round{
		ID:         uuid.New().String(),
		TargetName: names[g.rand.Intn(len(names))],
		StartedAt:  now,
		Deadline:   now.Add(TimeLimit),
	}
	g.rounds[round.ID] = round

	return round, nil
}

// Guess answers a round with a click on the map
func (g *Game) Guess(ctx context.Context, roundID string, pixelX, pixelY float64, frame geoquiz.DisplayFrame) (*GuessResult, errorsx.Error) {
	g.mu.Lock()
	round, ok := g.rounds[roundID]
	if !ok {
		g.mu.Unlock()
		return nil, errorsx.Wrap(ErrRoundNotFound, "roundID", roundID)
	}
	if round.finished {
		g.mu.Unlock()
		return nil, errorsx.Wrap(ErrRoundFinished, "roundID", roundID)
	}
	isTooLate := g.nowFunc().After(round.Deadline)
	if isTooLate {
		round.finished = true
	}
	g.mu.Unlock()

	if isTooLate {
		metrics.GuessesTotal.WithLabelValues(string(GuessOutcomeTooLate)).Inc()
		return &GuessResult{
			RoundID:    roundID,
			Outcome:    GuessOutcomeTooLate,
			TargetName: round.TargetName,
			TotalScore: g.Score(),
		}, nil
	}

	click, err := g.session.OnUserClick(ctx, pixelX, pixelY, frame)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if round.finished {
		// a concurrent guess got there first
		return nil, errorsx.Wrap(ErrRoundFinished, "roundID", roundID)
	}
	round.finished = true

	result := &GuessResult{
		RoundID:    roundID,
		Outcome:    GuessOutcomeWrong,
		Click:      click,
		TargetName: round.TargetName,
	}

	if click.Found && click.Name == round.TargetName {
		result.Outcome = GuessOutcomeCorrect
		result.PointsAwarded = PointsPerCorrectAnswer
		g.score += PointsPerCorrectAnswer
	}
	result.TotalScore = g.score

	metrics.GuessesTotal.WithLabelValues(string(result.Outcome)).Inc()

	return result, nil
}

func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// pruneExpiredRounds forgets rounds that can no longer be answered. Must be called with mu held.
func (g *Game) pruneExpiredRounds(now time.Time) {
	for id, round := range g.rounds {
		if now.Sub(round.Deadline) > TimeLimit {
			delete(g.rounds, id)
		}
	}
}

// countryNames lists the distinct feature names, excluding features with no usable name
func countryNames(features []*geoquiz.Feature) []string {
	seen := make(map[string]bool)
	var names []string
	for _, feature := range features {
		if feature.Name == geoquiz.UnknownName || seen[feature.Name] {
			continue
		}
		seen[feature.Name] = true
		names = append(names, feature.Name)
	}

	sort.Strings(names)

	return names
}
