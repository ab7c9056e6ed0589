package storage

import (
	"errors"
	"testing"
	"time"

	"neuromesh/internal/model"
)

func TestEncodeDecodeSession(t *testing.T) {
	session := testSession("s1", "a1", time.Now().UTC())
	session.Converged = true
	session.ConvergenceEpoch = 7

	data, err := EncodeSession(session)
	if err != nil {
		t.Fatalf("EncodeSession: %v", err)
	}
	got, err := DecodeSession(data)
	if err != nil {
		t.Fatalf("DecodeSession: %v", err)
	}
	if got.ID != session.ID || got.AgentID != session.AgentID {
		t.Fatalf("identity mangled: %+v", got)
	}
	if !got.Converged || got.ConvergenceEpoch != 7 {
		t.Fatalf("convergence mangled: %+v", got)
	}
}

func TestDecodeSessionVersionMismatch(t *testing.T) {
	session := testSession("s1", "a1", time.Now())
	session.SchemaVersion = CurrentSchemaVersion + 1

	data, err := EncodeSession(session)
	if err != nil {
		t.Fatalf("EncodeSession: %v", err)
	}
	if _, err := DecodeSession(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("error = %v, want ErrVersionMismatch", err)
	}
}

func TestDecodeSessionMalformed(t *testing.T) {
	if _, err := DecodeSession([]byte("{bad")); err == nil {
		t.Fatal("malformed payload accepted")
	}
}

func TestCheckVersionZeroValue(t *testing.T) {
	if err := checkVersion(model.VersionedRecord{}); err == nil {
		t.Fatal("zero-value record accepted")
	}
}
