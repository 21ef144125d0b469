package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RunRecord archives one applied simulation: what was submitted and what came back.
type RunRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Sequence  uint64             `bson:"sequence" json:"sequence"`
	Scenario  ScenarioPayload    `bson:"scenario" json:"scenario"`
	Results   []SimulationResult `bson:"results" json:"results"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// TrackJob remembers the request identifier of an asynchronous GPS track upload.
type TrackJob struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	RequestID string             `bson:"request_id" json:"request_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
