package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// HistoryItem pairs a captured garment image with its analysis for one user.
// Items are written once and never updated.
type HistoryItem struct {
	ID             HistoryID       `json:"id" firestore:"-"`
	Name           string          `json:"name" firestore:"name"`
	Date           time.Time       `json:"date" firestore:"date"`
	Temperature    string          `json:"temperature" firestore:"temperature"`
	Cycle          string          `json:"cycle" firestore:"cycle"`
	Image          string          `json:"image" firestore:"image"`
	AnalysisResult *AnalysisResult `json:"analysisResult" firestore:"analysisResult"`
	UserID         UserID          `json:"userId" firestore:"userId"`
}

// NewHistoryItem builds a history record from an analysis. The ID is left
// empty so that the repository can allocate it.
func NewHistoryItem(userID UserID, image string, result *AnalysisResult, now time.Time) *HistoryItem {
	return &HistoryItem{
		Name:           result.Title,
		Date:           now,
		Temperature:    result.Summary.Temperature,
		Cycle:          result.Summary.Program,
		Image:          image,
		AnalysisResult: result,
		UserID:         userID,
	}
}
