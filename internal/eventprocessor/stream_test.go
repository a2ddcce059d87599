// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package eventprocessor

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
)

// fakeJetStream records the stream calls made by StreamInitializer.
type fakeJetStream struct {
	lookupErr error
	createErr error
	created   []jetstream.StreamConfig
	updated   []jetstream.StreamConfig
}

func (f *fakeJetStream) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, f.lookupErr
}

func (f *fakeJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.created = append(f.created, cfg)
	return nil, f.createErr
}

func (f *fakeJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.updated = append(f.updated, cfg)
	return nil, nil
}

func TestNewStreamInitializer_RequiresArguments(t *testing.T) {
	t.Parallel()

	cfg := DefaultStreamConfig()
	if _, err := NewStreamInitializer(nil, &cfg); err == nil {
		t.Error("expected error for nil JetStream context")
	}
	if _, err := NewStreamInitializer(&fakeJetStream{}, nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestEnsureStream(t *testing.T) {
	t.Parallel()

	lookupFailure := errors.New("connection reset")
	tests := []struct {
		name        string
		lookupErr   error
		createErr   error
		wantCreated int
		wantUpdated int
		wantErr     bool
	}{
		{"missing stream is created", jetstream.ErrStreamNotFound, nil, 1, 0, false},
		{"existing stream is updated", nil, nil, 0, 1, false},
		{"create failure", jetstream.ErrStreamNotFound, errors.New("insufficient resources"), 1, 0, true},
		{"lookup failure", lookupFailure, nil, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			js := &fakeJetStream{lookupErr: tt.lookupErr, createErr: tt.createErr}
			cfg := DefaultStreamConfig()
			si, err := NewStreamInitializer(js, &cfg)
			if err != nil {
				t.Fatalf("NewStreamInitializer() error = %v", err)
			}

			_, err = si.EnsureStream(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("EnsureStream() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(js.created) != tt.wantCreated || len(js.updated) != tt.wantUpdated {
				t.Errorf("created=%d updated=%d, want %d/%d", len(js.created), len(js.updated), tt.wantCreated, tt.wantUpdated)
			}
		})
	}
}

func TestEnsureStream_AppliesConfig(t *testing.T) {
	t.Parallel()

	js := &fakeJetStream{lookupErr: jetstream.ErrStreamNotFound}
	cfg := DefaultStreamConfig()
	si, err := NewStreamInitializer(js, &cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := si.EnsureStream(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := js.created[0]
	if got.Name != DefaultStreamName {
		t.Errorf("Name = %q, want %q", got.Name, DefaultStreamName)
	}
	if len(got.Subjects) != 1 || got.Subjects[0] != "business.>" {
		t.Errorf("Subjects = %v", got.Subjects)
	}
	if got.Storage != jetstream.FileStorage || got.Discard != jetstream.DiscardOld {
		t.Errorf("Storage/Discard = %v/%v", got.Storage, got.Discard)
	}
	if got.Duplicates != cfg.DuplicateWindow {
		t.Errorf("Duplicates = %v, want %v", got.Duplicates, cfg.DuplicateWindow)
	}
	if si.Config().Name != DefaultStreamName {
		t.Errorf("Config().Name = %q", si.Config().Name)
	}
}
