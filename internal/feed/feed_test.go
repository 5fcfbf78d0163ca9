package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quang17112009/apiluck/pkg/models"
)

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"state": 1,
			"list": [
				{"expect": "3091224", "openCode": "3,4,5", "kaiJiangTime": 1755691200000},
				{"expect": "3091225", "openCode": "2,2,2", "kaiJiangTime": "1755691230000"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	records, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	sess, err := records[0].Session()
	require.NoError(t, err)
	assert.Equal(t, "3091224", sess.SessionID)
	assert.Equal(t, int64(3091224), sess.SequenceNumber)
	assert.Equal(t, time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC), sess.OpenedAt)
	assert.Equal(t, [3]int{3, 4, 5}, sess.Dice)
	assert.Equal(t, 12, sess.Total)
	assert.Equal(t, models.OutcomeHigh, sess.Outcome)

	// Quoted timestamps decode the same as bare numbers.
	sess, err = records[1].Session()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 20, 12, 0, 30, 0, time.UTC), sess.OpenedAt)
	assert.Equal(t, models.OutcomeLow, sess.Outcome, "triples are Low")
}

func TestClient_Fetch_NoStateField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list": [{"expect": "1", "openCode": "1,2,3", "kaiJiangTime": 1755691200000}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	records, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestClient_Fetch_UnhealthyState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state": 0, "list": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnhealthy)
}

func TestClient_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Fetch_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list": []}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(Config{URL: server.URL, Timeout: time.Second})
	_, err := client.Fetch(ctx)
	assert.Error(t, err)
}

func TestRecord_Session(t *testing.T) {
	validTime := json.RawMessage("1755691200000")

	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{
			name:   "valid",
			record: Record{Expect: "3091224", OpenCode: "3,4,5", KaiJiangTime: validTime},
		},
		{
			name:   "valid with quoted timestamp",
			record: Record{Expect: "3091224", OpenCode: "3,4,5", KaiJiangTime: json.RawMessage(`"1755691200000"`)},
		},
		{
			name:   "non-numeric expect keeps zero sequence",
			record: Record{Expect: "draw-42", OpenCode: "1,1,2", KaiJiangTime: validTime},
		},
		{
			name:    "missing expect",
			record:  Record{OpenCode: "3,4,5", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "missing openCode",
			record:  Record{Expect: "1", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "missing kaiJiangTime",
			record:  Record{Expect: "1", OpenCode: "3,4,5"},
			wantErr: true,
		},
		{
			name:    "two dice",
			record:  Record{Expect: "1", OpenCode: "3,4", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "four dice",
			record:  Record{Expect: "1", OpenCode: "3,4,5,6", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "non-numeric die",
			record:  Record{Expect: "1", OpenCode: "3,x,5", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "die out of range",
			record:  Record{Expect: "1", OpenCode: "3,7,5", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "zero die",
			record:  Record{Expect: "1", OpenCode: "0,4,5", KaiJiangTime: validTime},
			wantErr: true,
		},
		{
			name:    "non-numeric timestamp",
			record:  Record{Expect: "1", OpenCode: "3,4,5", KaiJiangTime: json.RawMessage(`"yesterday"`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := tt.record.Session()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.record.Expect, sess.SessionID)
		})
	}
}

func TestRecord_Session_SpacedDice(t *testing.T) {
	rec := Record{Expect: "1", OpenCode: " 3, 4 ,5 ", KaiJiangTime: json.RawMessage("1755691200000")}
	sess, err := rec.Session()
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 4, 5}, sess.Dice)
}
