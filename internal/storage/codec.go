package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"neuromesh/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeSession(s model.LearningSession) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSession(data []byte) (model.LearningSession, error) {
	var session model.LearningSession
	if err := json.Unmarshal(data, &session); err != nil {
		return model.LearningSession{}, err
	}
	if err := checkVersion(session.VersionedRecord); err != nil {
		return model.LearningSession{}, err
	}
	return session, nil
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, record.SchemaVersion, record.CodecVersion)
	}
	return nil
}
