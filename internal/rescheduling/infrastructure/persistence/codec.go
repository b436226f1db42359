package persistence

import (
	"encoding/json"

	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
)

const optionColumns = `
	id, booking_id, start_at, end_at, rank, score, proximity_score,
	confidence, weather_valid, availability_valid, observation, created_at`

const preferenceColumns = `
	booking_id, user_id, role, option1_id, option2_id, option3_id,
	unavailable, deadline, submitted_at, created_at, updated_at`

const auditColumns = `id, booking_id, action, detail, occurred_at`

func encodeObservation(obs *weather.Observation) ([]byte, error) {
	if obs == nil {
		return nil, nil
	}
	return json.Marshal(obs)
}

func decodeObservation(data []byte) (*weather.Observation, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var obs weather.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, err
	}
	return &obs, nil
}

func encodeIDs(ids []uuid.UUID) ([]byte, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return json.Marshal(ids)
}

func decodeIDs(data []byte) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}
