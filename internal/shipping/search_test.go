package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/models"
)

func TestQuery_Validate(t *testing.T) {
	assert.ErrorIs(t, Query{Departure: "Kobe", Destination: "Shanghai"}.Validate(), ErrDateRequired)
	assert.NoError(t, Query{ETD: "2026-09-10"}.Validate())
	assert.NoError(t, Query{ETA: "2026-09-20"}.Validate())
}

func TestDeparturePorts(t *testing.T) {
	assert.Equal(t, []string{"Kobe", "Osaka", "Yokohama", "Tokyo"}, DeparturePorts())
}

func TestDestinationsFor(t *testing.T) {
	dests := DestinationsFor("Kobe")
	assert.Len(t, dests, 10)
	assert.Contains(t, dests, "Shanghai")

	assert.Nil(t, DestinationsFor(""))
	assert.Nil(t, DestinationsFor("Nagoya"))
}

func TestCarrierURLCatalogs(t *testing.T) {
	url, ok := CarrierLoginURL("ONE")
	assert.True(t, ok)
	assert.Contains(t, url, "one-line.com")

	_, ok = CarrierLoginURL("UNKNOWN LINE")
	assert.False(t, ok)

	url, ok = ToyoshingoURL("MAERSK")
	assert.True(t, ok)
	assert.Equal(t, "https://toyoshingo.com/maersk/", url)
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name    string
		failure *apiclient.ShippingFailure
		want    string
	}{
		{"nil", nil, ""},
		{"server message wins", &apiclient.ShippingFailure{Reason: "no_schedule", Error: "custom"}, "custom"},
		{"destination", &apiclient.ShippingFailure{Reason: "no_schedule_for_destination"}, "この目的地へのスケジュールは現在ありません。"},
		{"no schedule", &apiclient.ShippingFailure{Reason: "no_schedule"}, "該当するスケジュールが存在しません。"},
		{"pdf missing", &apiclient.ShippingFailure{Reason: "pdf_not_found"}, "PDFスケジュールファイルが見つかりませんでした。"},
		{"unknown reason", &apiclient.ShippingFailure{Reason: "mystery"}, "スケジュール取得に失敗しました。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureMessage(tt.failure))
		})
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	return NewService(apiclient.New(apiclient.Config{BaseURL: srv.URL}, logger), logger)
}

func scheduleBackend(t *testing.T, results []models.ScheduleResult) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/recommend-shipping", r.URL.Path)

		var req apiclient.ShippingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(results)
	}
}

func TestService_SearchSortsByFareAscending(t *testing.T) {
	svc := newTestService(t, scheduleBackend(t, []models.ScheduleResult{
		{Company: "MAERSK", Fare: "3200"},
		{Company: "ONE", Fare: "1500"},
		{Company: "NYK", Fare: ""}, // missing fare sorts last
		{Company: "MSC", Fare: "2100.50"},
	}))

	results, msg, err := svc.Search(context.Background(), Query{
		Departure:   "Kobe",
		Destination: "Shanghai",
		ETD:         "2026-09-10",
	})
	require.NoError(t, err)
	assert.Empty(t, msg)

	companies := make([]string, 0, len(results))
	for _, r := range results {
		companies = append(companies, r.Company)
		assert.Equal(t, models.ScheduleTagNone, r.Status)
	}
	assert.Equal(t, []string{"ONE", "MSC", "MAERSK", "NYK"}, companies)
}

func TestService_SearchValidatesDates(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("an invalid query must not reach the network")
	})

	results, msg, err := svc.Search(context.Background(), Query{Departure: "Kobe"})
	assert.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, ErrDateRequired.Error(), msg)
}

func TestService_SearchMapsFailureReason(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"reason": "no_schedule"})
	})

	results, msg, err := svc.Search(context.Background(), Query{ETD: "2026-09-10"})
	assert.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "該当するスケジュールが存在しません。", msg)
}

func TestService_ToggleTag(t *testing.T) {
	svc := newTestService(t, scheduleBackend(t, []models.ScheduleResult{
		{Company: "ONE", Fare: "1500"},
		{Company: "NYK", Fare: "2000"},
	}))
	_, _, err := svc.Search(context.Background(), Query{ETD: "2026-09-10"})
	require.NoError(t, err)

	results, err := svc.ToggleTag(0, models.ScheduleTagDone)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleTagDone, results[0].Status)
	assert.Equal(t, models.ScheduleTagNone, results[1].Status)

	// Re-applying the same tag clears it
	results, err = svc.ToggleTag(0, models.ScheduleTagDone)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleTagNone, results[0].Status)

	// Switching tags replaces, not stacks
	_, err = svc.ToggleTag(1, models.ScheduleTagProcessing)
	require.NoError(t, err)
	results, err = svc.ToggleTag(1, models.ScheduleTagExclude)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleTagExclude, results[1].Status)

	_, err = svc.ToggleTag(9, models.ScheduleTagDone)
	assert.Error(t, err)
}

func TestTagClass(t *testing.T) {
	assert.Equal(t, "bg-blue-100", TagClass(models.ScheduleTagDone))
	assert.Equal(t, "bg-pink-100", TagClass(models.ScheduleTagProcessing))
	assert.Equal(t, "bg-gray-200", TagClass(models.ScheduleTagExclude))
	assert.Equal(t, "bg-white", TagClass(models.ScheduleTagNone))
	assert.Equal(t, "bg-white", TagClass(""))
}

func TestService_FeedbackSentOnce(t *testing.T) {
	feedbackCalls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recommend-shipping":
			json.NewEncoder(w).Encode([]models.ScheduleResult{
				{Company: "ONE", Fare: "1500", ScheduleURL: "https://example.com/s.pdf", ETD: "2026-09-10", ETA: "2026-09-20"},
			})
		case "/update-feedback":
			feedbackCalls++
			var fb apiclient.ScheduleFeedback
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fb))
			assert.Equal(t, "yes", fb.Feedback)
			assert.Equal(t, "https://example.com/s.pdf", fb.URL)
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		}
	})

	_, _, err := svc.Search(context.Background(), Query{ETD: "2026-09-10"})
	require.NoError(t, err)

	require.NoError(t, svc.SendFeedback(context.Background(), 0, "yes"))
	require.NoError(t, svc.SendFeedback(context.Background(), 0, "yes"))
	assert.Equal(t, 1, feedbackCalls, "repeat feedback on the same result is dropped")

	assert.Error(t, svc.SendFeedback(context.Background(), 5, "no"))
}
