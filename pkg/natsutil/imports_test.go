/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package natsutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
)

func TestDecodeImportSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    map[string]string
		wantErr bool
	}{
		{
			name:    "bare signal",
			payload: `{"parameters":{"foreignSource":"ODL"}}`,
			want:    map[string]string{"foreignSource": "ODL"},
		},
		{
			name:    "cloud event envelope",
			payload: `{"specversion":"1.0","id":"1","type":"inventory.import","data":{"parameters":{"foreignSource":"lab"}}}`,
			want:    map[string]string{"foreignSource": "lab"},
		},
		{
			name:    "malformed json",
			payload: `{"parameters":`,
			wantErr: true,
		},
		{
			name:    "no parameters",
			payload: `{}`,
			wantErr: true,
		},
		{
			name:    "cloud event with bad data",
			payload: `{"specversion":"1.0","data":"nope"}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := decodeImportSignal([]byte(tc.payload))
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Parameters)
		})
	}
}

func TestImportSubscriberDeliversSerially(t *testing.T) {
	srv := runJetStreamServer(t)
	nc := connectTestServer(t, srv)

	const subject = "events.inventory.import"

	var (
		mu       sync.Mutex
		sources  []string
		inFlight int
		overlap  bool
	)

	handler := func(_ context.Context, signal models.ImportSignal) {
		mu.Lock()
		inFlight++
		if inFlight > 1 {
			overlap = true
		}
		fs, _ := signal.Parameter("foreignSource")
		sources = append(sources, fs)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	}

	sub, err := NewImportSubscriber(nc, subject, logger.NewTestLogger()).Subscribe(context.Background(), handler)
	require.NoError(t, err)

	t.Cleanup(func() { _ = sub.Close() })

	require.NoError(t, nc.Publish(subject, []byte(`{"parameters":{"foreignSource":"a"}}`)))
	require.NoError(t, nc.Publish(subject, []byte(`not json`)))
	require.NoError(t, nc.Publish(subject,
		[]byte(`{"specversion":"1.0","data":{"parameters":{"foreignSource":"b"}}}`)))
	require.NoError(t, nc.Publish(subject, []byte(`{"parameters":{"foreignSource":"c"}}`)))
	require.NoError(t, nc.Flush())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(sources) == 3
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{"a", "b", "c"}, sources)
	assert.False(t, overlap, "handler invocations overlapped")
}

func TestImportSubscriptionCloseIsIdempotent(t *testing.T) {
	srv := runJetStreamServer(t)
	nc := connectTestServer(t, srv)

	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sub, err := NewImportSubscriber(nc, "events.inventory.import", logger.NewTestLogger()).
		Subscribe(context.Background(), func(context.Context, models.ImportSignal) {})
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}

func TestImportSubscriptionCloseLetsInFlightHandlerFinish(t *testing.T) {
	srv := runJetStreamServer(t)
	nc := connectTestServer(t, srv)

	const subject = "events.inventory.import"

	started := make(chan struct{})
	finished := make(chan error, 1)

	handler := func(ctx context.Context, _ models.ImportSignal) {
		close(started)

		select {
		case <-ctx.Done():
		case <-time.After(500 * time.Millisecond):
		}

		finished <- ctx.Err()
	}

	sub, err := NewImportSubscriber(nc, subject, logger.NewTestLogger()).Subscribe(context.Background(), handler)
	require.NoError(t, err)

	require.NoError(t, nc.Publish(subject, []byte(`{"parameters":{"foreignSource":"ODL"}}`)))
	require.NoError(t, nc.Flush())

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never started")
	}

	require.NoError(t, sub.Close())

	select {
	case ctxErr := <-finished:
		assert.NoError(t, ctxErr, "running handler must not be cancelled by Close")
	default:
		t.Fatal("Close returned before the running handler finished")
	}
}
