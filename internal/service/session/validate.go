package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/calmora/calmora_backend/internal/model"
)

const (
	moodRatingMin = 1
	moodRatingMax = 10

	ratingMin = 1
	ratingMax = 5

	maxSymptomTags   = 10
	maxSymptomLength = 40
	maxFreeTextChars = 2000
)

// validateIntake checks the schema bounds and returns the immutable record to
// attach. Tags are trimmed and de-duplicated; order is preserved.
func validateIntake(req IntakeRequest) (*model.IntakeRecord, error) {
	if req.MoodRating < moodRatingMin || req.MoodRating > moodRatingMax {
		return nil, fmt.Errorf("%w: mood rating must be %d..%d", ErrInvalidIntake, moodRatingMin, moodRatingMax)
	}
	if len(req.Symptoms) > maxSymptomTags {
		return nil, fmt.Errorf("%w: at most %d symptom tags", ErrInvalidIntake, maxSymptomTags)
	}
	if len(req.Notes) > maxFreeTextChars {
		return nil, fmt.Errorf("%w: notes exceed %d characters", ErrInvalidIntake, maxFreeTextChars)
	}

	seen := make(map[string]bool, len(req.Symptoms))
	tags := make([]string, 0, len(req.Symptoms))
	for _, raw := range req.Symptoms {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || len(tag) > maxSymptomLength {
			return nil, fmt.Errorf("%w: invalid symptom tag %q", ErrInvalidIntake, raw)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	return &model.IntakeRecord{
		MoodRating:  req.MoodRating,
		Symptoms:    tags,
		Notes:       req.Notes,
		Urgent:      req.Urgent,
		SubmittedAt: time.Now(),
	}, nil
}

func validateFeedback(req FeedbackRequest) (*model.Feedback, error) {
	if req.ClinicianRating < ratingMin || req.ClinicianRating > ratingMax {
		return nil, fmt.Errorf("%w: clinician rating must be %d..%d", ErrInvalidFeedback, ratingMin, ratingMax)
	}
	if req.SessionRating < ratingMin || req.SessionRating > ratingMax {
		return nil, fmt.Errorf("%w: session rating must be %d..%d", ErrInvalidFeedback, ratingMin, ratingMax)
	}
	if req.Comments != nil && len(*req.Comments) > maxFreeTextChars {
		return nil, fmt.Errorf("%w: comments exceed %d characters", ErrInvalidFeedback, maxFreeTextChars)
	}
	return &model.Feedback{
		ClinicianRating: req.ClinicianRating,
		SessionRating:   req.SessionRating,
		Comments:        req.Comments,
		SubmittedAt:     time.Now(),
	}, nil
}
