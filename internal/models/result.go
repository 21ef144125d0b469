package models

// SimulationResult is one per-vehicle entry returned by the simulate endpoint.
type SimulationResult struct {
	VehicleID        int     `bson:"vehicle_id" json:"vehicle_id"`
	TotalDistance    float64 `bson:"total_distance" json:"total_distance"` // in kilometers
	TollDistance     float64 `bson:"toll_distance" json:"toll_distance"`   // in kilometers
	TollCharged      float64 `bson:"toll_charged" json:"toll_charged"`     // in INR
	RemainingBalance float64 `bson:"remaining_balance" json:"remaining_balance"`
}

// Route is one computed route from GPS track processing.
type Route struct {
	TotalDistance float64 `json:"totalDistance"`
	TollDistance  float64 `json:"tollDistance"`
	TollAmount    float64 `json:"tollAmount"`
}

// UploadTracksRequest triggers server-side GPS track ingestion.
type UploadTracksRequest struct {
	IsAsync bool `json:"isAsync"`
}

// DownloadTracksRequest fetches the results of an earlier asynchronous upload.
type DownloadTracksRequest struct {
	RequestID string `json:"requestId"`
}

// TrackResponse is returned by both track endpoints. A synchronous upload or a
// download carries Routes; an asynchronous upload carries RequestID. A nil
// Routes slice means the routes are not yet available.
type TrackResponse struct {
	Routes    []Route `json:"routes,omitempty"`
	RequestID string  `json:"requestId,omitempty"`
}
