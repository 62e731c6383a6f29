package snapshot

import (
	"encoding/json"
	"fmt"
)

const documentVersion = 1

// Document is the persisted form of the canvas state.
type Document struct {
	Version     int               `json:"version"`
	SavedAt     int64             `json:"savedAt"`
	Grid        []int8            `json:"grid"`
	Painters    map[int]string    `json:"painters"`
	Annotations map[int]string    `json:"annotations"`
	Leaderboard map[string]uint64 `json:"leaderboard"`
	// Consumed lists the payment references already used, least recent first.
	Consumed []ConsumedRef `json:"consumed,omitempty"`
}

type ConsumedRef struct {
	Ref   string `json:"ref"`
	Actor string `json:"actor"`
	Cell  int    `json:"cell"`
}

func (d Document) encode() ([]byte, error) {
	d.Version = documentVersion
	return json.Marshal(d)
}

func decodeDocument(data []byte) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("could not decode snapshot: %w", err)
	}
	if doc.Version > documentVersion {
		return Document{}, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	if doc.Painters == nil {
		doc.Painters = map[int]string{}
	}
	if doc.Annotations == nil {
		doc.Annotations = map[int]string{}
	}
	if doc.Leaderboard == nil {
		doc.Leaderboard = map[string]uint64{}
	}
	return doc, nil
}
