package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is returned when an override record cannot be decoded.
var ErrInvalidRecord = errors.New("invalid session record")

// Record is the serialized shape stored in the override slot.
type Record struct {
	Identifier string     `json:"identifier"`
	Attributes Attributes `json:"attributes"`
}

// RecordFromSession projects a session onto its override record.
func RecordFromSession(s Session) Record {
	return Record{Identifier: s.Identifier, Attributes: s.Attributes.Clone()}
}

// EncodeRecord serializes r. Empty identifiers are rejected.
func EncodeRecord(r Record) ([]byte, error) {
	if strings.TrimSpace(r.Identifier) == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrInvalidRecord)
	}
	if r.Attributes == nil {
		r.Attributes = Attributes{}
	}
	return json.Marshal(r)
}

// DecodeRecord parses data produced by EncodeRecord.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if strings.TrimSpace(r.Identifier) == "" {
		return Record{}, fmt.Errorf("%w: identifier is required", ErrInvalidRecord)
	}
	if r.Attributes == nil {
		r.Attributes = Attributes{}
	}
	return r, nil
}

// Session materializes the record as a simulated session.
func (r Record) Session(id string) Session {
	return Session{
		ID:         id,
		Identifier: r.Identifier,
		Attributes: r.Attributes.Clone(),
		Provider:   ProviderSimulated,
	}
}
