package session

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateIntake(t *testing.T) {
	longNotes := strings.Repeat("a", maxFreeTextChars+1)
	longTag := strings.Repeat("b", maxSymptomLength+1)

	tests := []struct {
		name    string
		req     IntakeRequest
		wantErr bool
	}{
		{"valid minimal", IntakeRequest{MoodRating: 5}, false},
		{"valid full", IntakeRequest{MoodRating: 1, Symptoms: []string{"anxiety"}, Notes: "ok", Urgent: true}, false},
		{"mood too low", IntakeRequest{MoodRating: 0}, true},
		{"mood too high", IntakeRequest{MoodRating: 11}, true},
		{"too many tags", IntakeRequest{MoodRating: 5, Symptoms: make([]string, maxSymptomTags+1)}, true},
		{"empty tag", IntakeRequest{MoodRating: 5, Symptoms: []string{"  "}}, true},
		{"oversized tag", IntakeRequest{MoodRating: 5, Symptoms: []string{longTag}}, true},
		{"oversized notes", IntakeRequest{MoodRating: 5, Notes: longNotes}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateIntake(tt.req)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidIntake) {
					t.Errorf("validateIntake() error = %v, want ErrInvalidIntake", err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateIntake() error = %v", err)
			}
		})
	}
}

func TestValidateIntakeNormalizesTags(t *testing.T) {
	record, err := validateIntake(IntakeRequest{
		MoodRating: 6,
		Symptoms:   []string{" Anxiety ", "insomnia", "ANXIETY"},
	})
	if err != nil {
		t.Fatalf("validateIntake() error = %v", err)
	}
	if len(record.Symptoms) != 2 || record.Symptoms[0] != "anxiety" || record.Symptoms[1] != "insomnia" {
		t.Errorf("symptoms = %v, want [anxiety insomnia]", record.Symptoms)
	}
}

func TestValidateFeedback(t *testing.T) {
	longComments := strings.Repeat("c", maxFreeTextChars+1)

	tests := []struct {
		name    string
		req     FeedbackRequest
		wantErr bool
	}{
		{"valid", FeedbackRequest{ClinicianRating: 5, SessionRating: 1}, false},
		{"clinician rating low", FeedbackRequest{ClinicianRating: 0, SessionRating: 3}, true},
		{"session rating high", FeedbackRequest{ClinicianRating: 3, SessionRating: 6}, true},
		{"oversized comments", FeedbackRequest{ClinicianRating: 3, SessionRating: 3, Comments: &longComments}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateFeedback(tt.req)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFeedback) {
					t.Errorf("validateFeedback() error = %v, want ErrInvalidFeedback", err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateFeedback() error = %v", err)
			}
		})
	}
}
