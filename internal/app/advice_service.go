package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecotrack/internal/domain"
)

// TextGenerator is the port for the advisory-text collaborator. It
// receives a structured summary rendered as a prompt and returns
// free-form text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// fallbackAdvice is returned whenever the generator is unreachable or
// errors. The collaborator must never fail the surrounding request.
const fallbackAdvice = "Small habits add up: pick one activity today. Walk or cycle a short trip, " +
	"skip single-use packaging, or switch off standby appliances."

// AdvicePayload is the advisory text together with its provenance.
type AdvicePayload struct {
	Advice string `json:"advice"`
	Source string `json:"source"`
}

// AdviceService produces short advisory copy from a user's recent
// progress. Generation is a single blocking call with no retry; failures
// degrade to a fixed fallback payload.
type AdviceService struct {
	users      domain.UserRepository
	activities domain.ActivityRepository
	gen        TextGenerator
}

// NewAdviceService creates an AdviceService backed by the given
// repositories and text generator.
func NewAdviceService(users domain.UserRepository, activities domain.ActivityRepository, gen TextGenerator) *AdviceService {
	return &AdviceService{users: users, activities: activities, gen: gen}
}

// DailyAdvice builds a structured summary of the user's footprint and
// recent activity and asks the generator for a daily tip. On any
// generator failure the fixed fallback payload is returned instead.
func (s *AdviceService) DailyAdvice(ctx context.Context, userID int64, now time.Time) (*AdvicePayload, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	weekAgo := domain.TimeframeWeekly.WindowStart(now)
	count, err := s.activities.CountActive(ctx, userID, "", weekAgo)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"User carbon footprint: baseline %.1f kg, current %.1f kg. "+
			"Activities logged in the last 7 days: %d. "+
			"Write one short, encouraging sustainability tip for today.",
		user.BaselineKg, user.CurrentKg, count)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil || text == "" {
		if err != nil {
			log.Printf("advice: generator failed for user %d: %v", userID, err)
		}
		return &AdvicePayload{Advice: fallbackAdvice, Source: "fallback"}, nil
	}
	return &AdvicePayload{Advice: text, Source: "assistant"}, nil
}
