package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/washp/pkg/model"
)

func TestParseLocale(t *testing.T) {
	testCases := []struct {
		input  string
		expect model.Locale
	}{
		{"fr", model.LocaleFR},
		{"en", model.LocaleEN},
		{"en-US", model.LocaleEN},
		{"EN_gb", model.LocaleEN},
		{" fr-CA ", model.LocaleFR},
		{"de", model.LocaleFR},
		{"", model.LocaleFR},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			gt.Equal(t, model.ParseLocale(tc.input), tc.expect)
		})
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC)

	gt.Equal(t, model.LocaleFR.FormatDate(d), "2 janvier 2025")
	gt.Equal(t, model.LocaleEN.FormatDate(d), "January 2, 2025")
	gt.Equal(t, model.Locale("xx").FormatDate(d), "2 janvier 2025")
}

func TestCredentialsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		creds  model.Credentials
		expect error
	}{
		{"valid", model.Credentials{Email: "user@example.com", Password: "secret1"}, nil},
		{"no password", model.Credentials{Email: "user@example.com"}, model.ErrMissingPassword},
		{"bad email", model.Credentials{Email: "not-an-email", Password: "secret1"}, model.ErrInvalidEmail},
		{"display name form", model.Credentials{Email: "User <user@example.com>", Password: "secret1"}, model.ErrInvalidEmail},
		{"short password", model.Credentials{Email: "user@example.com", Password: "12345"}, model.ErrWeakPassword},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Normalize().Validate()
			if tc.expect == nil {
				gt.NoError(t, err)
				return
			}
			gt.True(t, errors.Is(err, tc.expect))
		})
	}
}

func TestAnalysisResultClone(t *testing.T) {
	orig := &model.AnalysisResult{
		Title:   "Shirt",
		PreWash: []string{"a", "b"},
		Maintenance: model.Maintenance{
			Storage: []string{"hang"},
		},
	}

	c := orig.Clone()
	c.PreWash[0] = "changed"
	c.Maintenance.Storage[0] = "fold"

	gt.Equal(t, orig.PreWash[0], "a")
	gt.Equal(t, orig.Maintenance.Storage[0], "hang")
	gt.Equal(t, c.Title, "Shirt")

	var nilResult *model.AnalysisResult
	gt.True(t, nilResult.Clone() == nil)
}

func TestNewHistoryItem(t *testing.T) {
	now := time.Now()
	result := &model.AnalysisResult{
		Title: "Blue Shirt",
		Summary: model.CareSummary{
			Program:     "Cotton",
			Temperature: "40°C",
		},
	}

	item := model.NewHistoryItem("user-1", "data:image/jpeg;base64,AAAA", result, now)
	gt.Equal(t, item.Name, "Blue Shirt")
	gt.Equal(t, item.Temperature, "40°C")
	gt.Equal(t, item.Cycle, "Cotton")
	gt.Equal(t, item.UserID, model.UserID("user-1"))
	gt.Equal(t, item.ID, model.HistoryID(""))
	gt.True(t, item.Date.Equal(now))
}
